package squads

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/vault-governor/pkg/solana"
)

func TestProgramAddress(t *testing.T) {
	assert.Equal(t, "SQDS4ep65T869zMMBKyuUq6aD6EgTu8psMjkvj52pCf", base58.Encode(PROGRAM_ID))
	assert.Equal(t, "11111111111111111111111111111111", base58.Encode(SYSTEM_PROGRAM_ID))
}

func TestDerivedAddresses(t *testing.T) {
	multisig := testKey(1)

	vault0, _, err := GetVaultAddress(&GetVaultAddressArgs{Multisig: multisig, VaultIndex: 0})
	require.NoError(t, err)
	vault1, _, err := GetVaultAddress(&GetVaultAddressArgs{Multisig: multisig, VaultIndex: 1})
	require.NoError(t, err)

	transaction, _, err := GetTransactionAddress(&GetTransactionAddressArgs{Multisig: multisig, TransactionIndex: 5})
	require.NoError(t, err)
	proposal, bump, err := GetProposalAddress(&GetProposalAddressArgs{Multisig: multisig, TransactionIndex: 5})
	require.NoError(t, err)
	batchTransaction, _, err := GetBatchTransactionAddress(&GetBatchTransactionAddressArgs{Multisig: multisig, BatchIndex: 5, TransactionIndex: 1})
	require.NoError(t, err)
	ephemeral, _, err := GetEphemeralSignerAddress(&GetEphemeralSignerAddressArgs{Transaction: batchTransaction})
	require.NoError(t, err)
	multisigAddress, _, err := GetMultisigAddress(&GetMultisigAddressArgs{CreateKey: testKey(2)})
	require.NoError(t, err)

	addresses := []ed25519.PublicKey{vault0, vault1, transaction, proposal, batchTransaction, ephemeral, multisigAddress}
	seen := make(map[string]struct{})
	for _, address := range addresses {
		assert.Len(t, address, ed25519.PublicKeySize)
		seen[string(address)] = struct{}{}
	}
	assert.Len(t, seen, len(addresses))

	// derivation is deterministic and matches the raw seeds
	expected, err := solana.CreateProgramAddress(
		PROGRAM_ID,
		[]byte("multisig"),
		multisig,
		[]byte("transaction"),
		[]byte{5, 0, 0, 0, 0, 0, 0, 0},
		[]byte("proposal"),
		[]byte{bump},
	)
	require.NoError(t, err)
	assert.Equal(t, expected, proposal)
}
