package governor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/vault-governor/pkg/testutil"
)

func clearConfigEnv(t *testing.T) {
	for _, name := range []string{
		"LOG_LEVEL",
		"NEW_RELIC_LICENSE_KEY",
		envConfigPrefix + "MULTISIG_ADDRESS",
		RpcEndpointConfigEnvName,
		WalletConfigEnvName,
		ComputeUnitLimitConfigEnvName,
		ComputeUnitPriceConfigEnvName,
		ConfirmationTimeoutConfigEnvName,
		DryRunConfigEnvName,
		MemoConfigEnvName,
	} {
		t.Setenv(name, "")
	}
}

func TestLoadFileConfig(t *testing.T) {
	clearConfigEnv(t)

	keys := testutil.GenerateSolanaKeys(t, 2)
	contents := "log_level: debug\n" +
		"multisig_address: " + base58.Encode(keys[0]) + "\n" +
		"vault_index: 1\n" +
		"lookup_tables:\n" +
		"  - " + base58.Encode(keys[1]) + "\n" +
		"compute_unit_limit: 200000\n" +
		"compute_unit_price: 5\n" +
		"confirmation_timeout: 30s\n" +
		"rpc_requests_per_second: 12.5\n" +
		"memo: release\n"

	path := filepath.Join(t.TempDir(), "governor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	t.Setenv(RpcEndpointConfigEnvName, "http://localhost:8899")

	config, err := LoadFileConfig(path)
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "vault-governor", config.AppName)
	assert.Equal(t, "http://localhost:8899", config.RpcEndpoint)
	assert.Equal(t, "wallet.json", config.WalletPath)
	assert.EqualValues(t, 1, config.VaultIndex)
	assert.EqualValues(t, 200_000, config.ComputeUnitLimit)
	assert.EqualValues(t, 5, config.ComputeUnitPrice)
	assert.Equal(t, 30*time.Second, config.ConfirmationTimeout)
	assert.Equal(t, "release", config.Memo)
	assert.Equal(t, 12.5, config.RpcRequestsPerSecond)
	assert.Equal(t, 4096, config.LookupTableCacheSize)

	multisig, err := config.Multisig()
	require.NoError(t, err)
	assert.Equal(t, keys[0], multisig)

	tables, err := config.LookupTableAddresses()
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, keys[1], tables[0])
}

func TestLoadFileConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	config, err := LoadFileConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", config.RpcEndpoint)
	assert.EqualValues(t, defaultComputeUnitLimit, config.ComputeUnitLimit)
	assert.Equal(t, defaultConfirmationTimeout, config.ConfirmationTimeout)
	assert.Error(t, config.Validate())

	t.Setenv(envConfigPrefix+"MULTISIG_ADDRESS", "not-an-address")
	config, err = LoadFileConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "not-an-address", config.MultisigAddress)
	assert.Error(t, config.Validate())

	config.MultisigAddress = base58.Encode(testutil.GenerateSolanaKeys(t, 1)[0])
	require.NoError(t, config.Validate())

	config.LookupTables = []string{base58.Encode([]byte{1, 2, 3})}
	assert.Error(t, config.Validate())
	config.LookupTables = nil

	config.RpcRequestsPerSecond = -1
	assert.Error(t, config.Validate())
	config.RpcRequestsPerSecond = 0

	config.RpcEndpoint = "ftp://api.mainnet-beta.solana.com"
	assert.Error(t, config.Validate())

	t.Setenv(RpcEndpointConfigEnvName, "devnet")
	config, err = LoadFileConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://api.devnet.solana.com", config.RpcEndpoint)
}

func TestWithEnvConfigs(t *testing.T) {
	clearConfigEnv(t)

	file := &FileConfig{
		ComputeUnitLimit:    300_000,
		ComputeUnitPrice:    10,
		ConfirmationTimeout: time.Minute,
		Memo:                "from file",
	}

	conf := WithEnvConfigs(file)()
	assert.EqualValues(t, 300_000, conf.computeUnitLimit.Get(context.Background()))
	assert.EqualValues(t, 10, conf.computeUnitPrice.Get(context.Background()))
	assert.Equal(t, time.Minute, conf.confirmationTimeout.Get(context.Background()))
	assert.False(t, conf.dryRun.Get(context.Background()))
	assert.Equal(t, "from file", conf.memo.Get(context.Background()))

	t.Setenv(ComputeUnitPriceConfigEnvName, "25")
	t.Setenv(DryRunConfigEnvName, "true")
	t.Setenv(MemoConfigEnvName, "from env")

	conf = WithEnvConfigs(file)()
	assert.EqualValues(t, 25, conf.computeUnitPrice.Get(context.Background()))
	assert.True(t, conf.dryRun.Get(context.Background()))
	assert.Equal(t, "from env", conf.memo.Get(context.Background()))

	conf = WithEnvConfigs(nil)()
	assert.EqualValues(t, defaultComputeUnitLimit, conf.computeUnitLimit.Get(context.Background()))
}
