package governor

import (
	"time"

	"github.com/code-payments/vault-governor/pkg/config"
	"github.com/code-payments/vault-governor/pkg/config/env"
	"github.com/code-payments/vault-governor/pkg/config/memory"
	"github.com/code-payments/vault-governor/pkg/config/wrapper"
)

const (
	envConfigPrefix = "GOVERNOR_"

	ComputeUnitLimitConfigEnvName = envConfigPrefix + "COMPUTE_UNIT_LIMIT"
	defaultComputeUnitLimit       = 1_400_000

	ComputeUnitPriceConfigEnvName = envConfigPrefix + "COMPUTE_UNIT_PRICE"
	defaultComputeUnitPrice       = 0

	ConfirmationTimeoutConfigEnvName = envConfigPrefix + "CONFIRMATION_TIMEOUT"
	defaultConfirmationTimeout       = 45 * time.Second

	DryRunConfigEnvName = envConfigPrefix + "DRY_RUN"
	defaultDryRun       = false

	MemoConfigEnvName = envConfigPrefix + "MEMO"
	defaultMemo       = ""
)

type conf struct {
	computeUnitLimit    config.Uint64
	computeUnitPrice    config.Uint64
	confirmationTimeout config.Duration
	dryRun              config.Bool
	memo                config.String
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables,
// falling back to the values loaded from the config file
func WithEnvConfigs(file *FileConfig) ConfigProvider {
	return func() *conf {
		computeUnitLimit := uint64(defaultComputeUnitLimit)
		computeUnitPrice := uint64(defaultComputeUnitPrice)
		confirmationTimeout := defaultConfirmationTimeout
		dryRun := defaultDryRun
		memo := defaultMemo
		if file != nil {
			computeUnitLimit = uint64(file.ComputeUnitLimit)
			computeUnitPrice = file.ComputeUnitPrice
			confirmationTimeout = file.ConfirmationTimeout
			dryRun = file.DryRun
			memo = file.Memo
		}

		return &conf{
			computeUnitLimit:    env.NewUint64Config(ComputeUnitLimitConfigEnvName, computeUnitLimit),
			computeUnitPrice:    env.NewUint64Config(ComputeUnitPriceConfigEnvName, computeUnitPrice),
			confirmationTimeout: env.NewDurationConfig(ConfirmationTimeoutConfigEnvName, confirmationTimeout),
			dryRun:              env.NewBoolConfig(DryRunConfigEnvName, dryRun),
			memo:                env.NewStringConfig(MemoConfigEnvName, memo),
		}
	}
}

type testOverrides struct {
	computeUnitLimit uint64
	computeUnitPrice uint64
	dryRun           bool
	memo             string
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			computeUnitLimit:    wrapper.NewUint64Config(memory.NewConfig(overrides.computeUnitLimit), defaultComputeUnitLimit),
			computeUnitPrice:    wrapper.NewUint64Config(memory.NewConfig(overrides.computeUnitPrice), defaultComputeUnitPrice),
			confirmationTimeout: wrapper.NewDurationConfig(memory.NewConfig(time.Second), defaultConfirmationTimeout),
			dryRun:              wrapper.NewBoolConfig(memory.NewConfig(overrides.dryRun), defaultDryRun),
			memo:                wrapper.NewStringConfig(memory.NewConfig(overrides.memo), defaultMemo),
		}
	}
}
