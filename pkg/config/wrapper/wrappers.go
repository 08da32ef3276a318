package wrapper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/vault-governor/pkg/config"
)

// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
var ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// converter converts a raw config value into T. Sources like the environment
// yield []byte, while in memory configs may hold T directly.
type converter[T any] func(raw interface{}) (T, error)

type typedConfig[T any] struct {
	override     config.Config
	defaultValue T
	convert      converter[T]

	stateMu   sync.RWMutex
	lastValue T
}

func newTypedConfig[T any](override config.Config, defaultValue T, convert converter[T]) config.Typed[T] {
	return &typedConfig[T]{
		override:     override,
		defaultValue: defaultValue,
		convert:      convert,
		lastValue:    defaultValue,
	}
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *typedConfig[T]) GetSafe(ctx context.Context) (T, error) {
	override, err := c.override.Get(ctx)
	c.stateMu.RLock()
	lastValue := c.lastValue
	c.stateMu.RUnlock()
	if err == config.ErrNoValue {
		c.stateMu.Lock()
		c.lastValue = c.defaultValue
		c.stateMu.Unlock()
		return c.defaultValue, nil
	} else if err != nil {
		return lastValue, err
	}

	newValue, err := c.convert(override)
	if err != nil {
		return lastValue, err
	}

	c.stateMu.Lock()
	c.lastValue = newValue
	c.stateMu.Unlock()
	return newValue, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *typedConfig[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *typedConfig[T]) Shutdown() {
	c.override.Shutdown()
}

// NewBoolConfig returns a new bool config utility wrapper
func NewBoolConfig(override config.Config, defaultValue bool) config.Bool {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (bool, error) {
		switch raw := raw.(type) {
		case []byte:
			return strconv.ParseBool(string(raw))
		case bool:
			return raw, nil
		}
		return false, ErrUnsuportedConversion
	})
}

// NewUint64Config returns a new uint64 config utility wrapper
func NewUint64Config(override config.Config, defaultValue uint64) config.Uint64 {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (uint64, error) {
		switch raw := raw.(type) {
		case []byte:
			return strconv.ParseUint(string(raw), 10, 64)
		case uint64:
			return raw, nil
		case uint:
			return uint64(raw), nil
		}
		return 0, ErrUnsuportedConversion
	})
}

// NewStringConfig returns a new string config utility wrapper
func NewStringConfig(override config.Config, defaultValue string) config.String {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (string, error) {
		switch raw := raw.(type) {
		case []byte:
			return string(raw), nil
		case string:
			return raw, nil
		}
		return "", ErrUnsuportedConversion
	})
}

// NewDurationConfig returns a new duration config utility wrapper
func NewDurationConfig(override config.Config, defaultValue time.Duration) config.Duration {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (time.Duration, error) {
		switch raw := raw.(type) {
		case []byte:
			return time.ParseDuration(string(raw))
		case time.Duration:
			return raw, nil
		}
		return 0, ErrUnsuportedConversion
	})
}
