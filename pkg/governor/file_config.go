package governor

import (
	"context"
	"crypto/ed25519"
	"os"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/code-payments/vault-governor/pkg/config/env"
	"github.com/code-payments/vault-governor/pkg/netutil"
	"github.com/code-payments/vault-governor/pkg/solana"
)

const (
	RpcEndpointConfigEnvName = "SOLANA_RPC_ENDPOINT"
	WalletConfigEnvName      = "GOVERNOR_WALLET"
)

// FileConfig is the configuration loaded from the governor's YAML file
type FileConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	// Metrics configuration across many providers
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	RpcEndpoint string `mapstructure:"rpc_endpoint"`

	// RpcRequestsPerSecond throttles each RPC method independently. Zero
	// disables throttling.
	RpcRequestsPerSecond float64 `mapstructure:"rpc_requests_per_second"`

	// WalletPath points at a JSON array holding the 64 byte private key of the
	// member submitting governance transactions
	WalletPath string `mapstructure:"wallet_path"`

	MultisigAddress string `mapstructure:"multisig_address"`
	VaultIndex      uint8  `mapstructure:"vault_index"`

	// LookupTables are used when compiling both vault messages and the outer
	// execute transaction
	LookupTables []string `mapstructure:"lookup_tables"`

	ComputeUnitLimit    uint32        `mapstructure:"compute_unit_limit"`
	ComputeUnitPrice    uint64        `mapstructure:"compute_unit_price"`
	ConfirmationTimeout time.Duration `mapstructure:"confirmation_timeout"`

	Memo string `mapstructure:"memo"`

	// DryRun simulates every transaction without broadcasting it
	DryRun bool `mapstructure:"dry_run"`

	// LookupTableCacheSize bounds the number of cached table addresses
	LookupTableCacheSize int `mapstructure:"lookup_table_cache_size"`
}

var defaultFileConfig = FileConfig{
	LogLevel: "info",
	AppName:  "vault-governor",

	RpcEndpoint: string(solana.EnvironmentProd),
	WalletPath:  "wallet.json",

	ComputeUnitLimit:    defaultComputeUnitLimit,
	ComputeUnitPrice:    defaultComputeUnitPrice,
	ConfirmationTimeout: defaultConfirmationTimeout,

	LookupTableCacheSize: 4096,
}

// LoadFileConfig reads the YAML config at path. A missing file yields the
// defaults, which still require a multisig address to be usable.
func LoadFileConfig(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
	_ = v.BindEnv("multisig_address", envConfigPrefix+"MULTISIG_ADDRESS")

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "failed to load config")
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to check if config exists")
	}

	config := defaultFileConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	// Endpoint and wallet are commonly swapped per environment, so they're
	// resolved through the env config layer on top of the file values
	config.RpcEndpoint = env.NewStringConfig(RpcEndpointConfigEnvName, config.RpcEndpoint).Get(context.Background())
	config.RpcEndpoint = solana.ResolveEndpoint(config.RpcEndpoint)
	config.WalletPath = env.NewStringConfig(WalletConfigEnvName, config.WalletPath).Get(context.Background())

	return &config, nil
}

// Validate checks the fields required to construct a Governor
func (c *FileConfig) Validate() error {
	if len(c.MultisigAddress) == 0 {
		return errors.New("multisig_address is required")
	}
	if _, err := c.Multisig(); err != nil {
		return err
	}
	if _, err := c.LookupTableAddresses(); err != nil {
		return err
	}
	if len(c.RpcEndpoint) == 0 {
		return errors.New("rpc_endpoint is required")
	}
	if err := netutil.ValidateRpcEndpoint(c.RpcEndpoint, false); err != nil {
		return errors.Wrap(err, "invalid rpc_endpoint")
	}
	if c.RpcRequestsPerSecond < 0 {
		return errors.New("rpc_requests_per_second cannot be negative")
	}
	return nil
}

// Multisig decodes the configured multisig address
func (c *FileConfig) Multisig() (ed25519.PublicKey, error) {
	return decodeAddress(c.MultisigAddress)
}

// LookupTableAddresses decodes the configured lookup table addresses
func (c *FileConfig) LookupTableAddresses() ([]ed25519.PublicKey, error) {
	res := make([]ed25519.PublicKey, len(c.LookupTables))
	for i, address := range c.LookupTables {
		decoded, err := decodeAddress(address)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid lookup table %d", i)
		}
		res[i] = decoded
	}
	return res, nil
}

func decodeAddress(address string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(address)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid address %q", address)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid address %q: expected 32 bytes, got %d", address, len(decoded))
	}
	return decoded, nil
}
