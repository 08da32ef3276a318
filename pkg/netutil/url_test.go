package netutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRpcEndpoint(t *testing.T) {
	for _, tc := range []struct {
		value  string
		secure bool
		valid  bool
	}{
		{value: "https://api.mainnet-beta.solana.com", secure: true, valid: true},
		{value: "http://localhost:8899", valid: true},
		{value: "http://127.0.0.1:8899", valid: true},
		{value: "localhost:8899", valid: true},
		{value: "api.devnet.solana.com", valid: true},
		{value: "http://localhost:8899", secure: true},
		{value: "ftp://api.mainnet-beta.solana.com"},
		{value: "https://"},
		{value: "https://bad_host.com"},
		{value: ""},
	} {
		err := ValidateRpcEndpoint(tc.value, tc.secure)
		if tc.valid {
			assert.NoError(t, err, tc.value)
		} else {
			assert.Error(t, err, tc.value)
		}
	}
}

func TestValidateDomainName(t *testing.T) {
	assert.NoError(t, ValidateDomainName("solana.com"))
	assert.NoError(t, ValidateDomainName("rpc.helius.xyz"))

	assert.Error(t, ValidateDomainName(""))
	assert.Error(t, ValidateDomainName(strings.Repeat("a", 254)))
	assert.Error(t, ValidateDomainName("under_score.com"))
}

func TestValidateDomainName_LabelSize(t *testing.T) {
	assert.NoError(t, ValidateDomainName(strings.Repeat("a", 63)+".com"))
	assert.Error(t, ValidateDomainName(strings.Repeat("a", 64)+".com"))
}
