package squads

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/vault-governor/pkg/solana"
)

func TestMarshal_Multisig(t *testing.T) {
	for _, rentCollector := range []ed25519.PublicKey{nil, testKey(3)} {
		expected := &MultisigAccount{
			CreateKey:             testKey(1),
			ConfigAuthority:       testKey(2),
			Threshold:             2,
			TimeLock:              60,
			TransactionIndex:      7,
			StaleTransactionIndex: 5,
			RentCollector:         rentCollector,
			Bump:                  255,
			Members: []Member{
				{Key: testKey(4), Permissions: PermissionAll},
				{Key: testKey(5), Permissions: PermissionVote},
			},
		}

		data := expected.Marshal()
		assert.Equal(t, encodeMultisig(
			expected.CreateKey,
			expected.ConfigAuthority,
			expected.Threshold,
			expected.TimeLock,
			expected.TransactionIndex,
			expected.StaleTransactionIndex,
			rentCollector,
			expected.Bump,
			expected.Members,
		), data[discriminatorSize:])

		var actual MultisigAccount
		require.NoError(t, actual.Unmarshal(data))
		assert.Equal(t, *expected, actual)
	}
}

func TestMarshal_Proposal(t *testing.T) {
	for _, kind := range []ProposalStatusKind{
		ProposalStatusKindDraft,
		ProposalStatusKindActive,
		ProposalStatusKindApproved,
		ProposalStatusKindExecuting,
		ProposalStatusKindExecuted,
	} {
		status, err := NewProposalStatus(kind, 1700000000)
		require.NoError(t, err)

		expected := &ProposalAccount{
			Multisig:         testKey(1),
			TransactionIndex: 4,
			Status:           status,
			Bump:             253,
			Approved:         []ed25519.PublicKey{testKey(2), testKey(3)},
			Rejected:         []ed25519.PublicKey{testKey(4)},
			Cancelled:        []ed25519.PublicKey{},
		}

		var actual ProposalAccount
		require.NoError(t, actual.Unmarshal(expected.Marshal()))
		assert.Equal(t, expected.Multisig, actual.Multisig)
		assert.Equal(t, expected.TransactionIndex, actual.TransactionIndex)
		assert.Equal(t, expected.Status, actual.Status)
		assert.Equal(t, expected.Bump, actual.Bump)
		assert.Equal(t, expected.Approved, actual.Approved)
		assert.Equal(t, expected.Rejected, actual.Rejected)
		assert.Empty(t, actual.Cancelled)
	}
}

func TestMarshal_Batch(t *testing.T) {
	expected := &BatchAccount{
		Multisig:                 testKey(1),
		Creator:                  testKey(2),
		Index:                    9,
		Bump:                     250,
		VaultIndex:               1,
		VaultBump:                249,
		Size:                     3,
		ExecutedTransactionIndex: 1,
	}

	var actual BatchAccount
	require.NoError(t, actual.Unmarshal(expected.Marshal()))
	assert.Equal(t, *expected, actual)
	assert.Equal(t, []uint32{2, 3}, actual.PendingTransactionIndexes())
}

func TestMarshal_VaultBatchTransaction(t *testing.T) {
	expected := &VaultBatchTransactionAccount{
		Bump:                 251,
		EphemeralSignerBumps: []byte{1, 2},
		Message: VaultTransactionMessage{
			NumSigners:            1,
			NumWritableSigners:    1,
			NumWritableNonSigners: 1,
			AccountKeys:           []ed25519.PublicKey{testKey(1), testKey(2), testKey(3)},
			Instructions: []solana.CompiledInstruction{
				{ProgramIndex: 2, Accounts: []byte{0, 1, 3}, Data: []byte{9, 8, 7}},
			},
			AddressTableLookups: []solana.MessageAddressTableLookup{
				{PublicKey: testKey(4), WritableIndexes: []byte{5}, ReadonlyIndexes: []byte{6, 7}},
			},
		},
	}

	data := expected.Marshal()

	var actual VaultBatchTransactionAccount
	require.NoError(t, actual.Unmarshal(data))
	assert.Equal(t, *expected, actual)

	assert.ErrorIs(t, (&BatchAccount{}).Unmarshal(data), ErrInvalidAccountData)
}

func TestNewVaultTransactionMessage(t *testing.T) {
	m := solana.CompactMessage{
		Header: solana.Header{
			NumSignatures:     2,
			NumReadonlySigned: 1,
			NumReadOnly:       1,
		},
		Accounts: []ed25519.PublicKey{testKey(1), testKey(2), testKey(3), testKey(4)},
		Instructions: []solana.CompiledInstruction{
			{ProgramIndex: 3, Accounts: []byte{0, 1, 2}, Data: []byte{1}},
		},
	}

	stored := NewVaultTransactionMessage(m)
	assert.EqualValues(t, 2, stored.NumSigners)
	assert.EqualValues(t, 1, stored.NumWritableSigners)
	assert.EqualValues(t, 1, stored.NumWritableNonSigners)

	converted, err := stored.ToCompactMessage()
	require.NoError(t, err)
	assert.Equal(t, m, converted)
}
