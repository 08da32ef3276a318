package governor

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/vault-governor/pkg/solana"
	address_lookup_table "github.com/code-payments/vault-governor/pkg/solana/addresslookuptable"
	"github.com/code-payments/vault-governor/pkg/solana/memo"
	"github.com/code-payments/vault-governor/pkg/solana/squads"
	"github.com/code-payments/vault-governor/pkg/solana/system"
	"github.com/code-payments/vault-governor/pkg/testutil"
)

const testProposalIndex = 5

type testEnv struct {
	client   *fakeClient
	governor *Governor

	member   ed25519.PublicKey
	other    ed25519.PublicKey
	multisig ed25519.PublicKey
	dest     ed25519.PublicKey
}

func setup(t *testing.T, overrides *testOverrides, opts ...Option) *testEnv {
	if overrides == nil {
		overrides = &testOverrides{computeUnitLimit: 200_000}
	}

	signer := testutil.GenerateSolanaKeypair(t)
	keys := testutil.GenerateSolanaKeys(t, 3)

	env := &testEnv{
		client:   newFakeClient(),
		member:   signer.Public().(ed25519.PublicKey),
		other:    keys[0],
		multisig: keys[1],
		dest:     keys[2],
	}

	var err error
	env.governor, err = New(env.client, signer, env.multisig, 0, withManualTestOverrides(overrides), opts...)
	require.NoError(t, err)

	env.putMultisig(t, func(*squads.MultisigAccount) {})
	return env
}

func (e *testEnv) putMultisig(t *testing.T, modify func(*squads.MultisigAccount)) {
	ms := &squads.MultisigAccount{
		CreateKey:        e.multisig,
		ConfigAuthority:  make(ed25519.PublicKey, ed25519.PublicKeySize),
		Threshold:        2,
		TransactionIndex: testProposalIndex - 1,
		Bump:             255,
		Members: []squads.Member{
			{Key: e.member, Permissions: squads.PermissionAll},
			{Key: e.other, Permissions: squads.PermissionAll},
		},
	}
	modify(ms)
	e.client.setAccount(e.multisig, squads.PROGRAM_ID, ms.Marshal())
}

func (e *testEnv) putProposal(t *testing.T, kind squads.ProposalStatusKind, at time.Time, approved ...ed25519.PublicKey) {
	status, err := squads.NewProposalStatus(kind, at.Unix())
	require.NoError(t, err)

	address, err := e.governor.proposalAddress(testProposalIndex)
	require.NoError(t, err)

	proposal := &squads.ProposalAccount{
		Multisig:         e.multisig,
		TransactionIndex: testProposalIndex,
		Status:           status,
		Bump:             254,
		Approved:         approved,
	}
	e.client.setAccount(address, squads.PROGRAM_ID, proposal.Marshal())
}

func (e *testEnv) putBatch(t *testing.T, creator ed25519.PublicKey, size, executed uint32) {
	address, err := e.governor.batchAddress(testProposalIndex)
	require.NoError(t, err)

	batch := &squads.BatchAccount{
		Multisig:                 e.multisig,
		Creator:                  creator,
		Index:                    testProposalIndex,
		Bump:                     253,
		Size:                     size,
		ExecutedTransactionIndex: executed,
	}
	e.client.setAccount(address, squads.PROGRAM_ID, batch.Marshal())
}

func (e *testEnv) putBatchTransaction(t *testing.T, index uint32, tables []solana.AddressLookupTable, instructions ...solana.Instruction) {
	address, err := e.governor.batchTransactionAddress(testProposalIndex, index)
	require.NoError(t, err)

	encoded, err := squads.CompileVaultTransactionMessage(e.governor.Vault(), instructions, tables)
	require.NoError(t, err)
	message, err := solana.UnmarshalCompact(encoded)
	require.NoError(t, err)

	transaction := &squads.VaultBatchTransactionAccount{
		Bump:    252,
		Message: squads.NewVaultTransactionMessage(message),
	}
	e.client.setAccount(address, squads.PROGRAM_ID, transaction.Marshal())
}

func (e *testEnv) putLookupTable(address, authority ed25519.PublicKey, addresses ...ed25519.PublicKey) {
	account := &address_lookup_table.AddressLookupTableAccount{
		DeactivationSlot: address_lookup_table.DeactivationSlotActive,
		Authority:        authority,
		Addresses:        addresses,
	}
	e.client.setAccount(address, address_lookup_table.ProgramKey, account.Marshal())
}

func (e *testEnv) transfer() solana.Instruction {
	return system.Transfer(e.governor.Vault(), e.dest, 10)
}

func (e *testEnv) transferDescription() string {
	return fmt.Sprintf("system::transfer(%s -> %s, 10)", base58.Encode(e.governor.Vault()), base58.Encode(e.dest))
}

func describe(t *testing.T, txn solana.Transaction, tables ...solana.AddressLookupTable) []string {
	instructions, err := txn.Message.DecompileInstructions(tables)
	require.NoError(t, err)

	res := make([]string, len(instructions))
	for i, ix := range instructions {
		res[i] = DescribeInstruction(ix)
	}
	return res
}

func decompile(t *testing.T, txn solana.Transaction, tables ...solana.AddressLookupTable) []solana.Instruction {
	instructions, err := txn.Message.DecompileInstructions(tables)
	require.NoError(t, err)
	return instructions
}

func TestCreateProposal(t *testing.T) {
	env := setup(t, &testOverrides{memo: "release v2"})

	index, sig, err := env.governor.CreateProposal(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, testProposalIndex, index)

	submitted := env.client.getSubmitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, sig, submitted[0].Signatures[0])
	assert.Equal(t, solana.MessageVersionLegacy, submitted[0].Message.Version)
	assert.True(t, submitted[0].FullySigned())
	assert.Equal(t, []string{
		"squads::batch_create",
		"squads::proposal_create",
		`memo("release v2")`,
	}, describe(t, submitted[0]))

	assert.Len(t, env.client.getSimulated(), 1)
}

func TestCreateProposal_NotMember(t *testing.T) {
	env := setup(t, nil)
	env.putMultisig(t, func(ms *squads.MultisigAccount) {
		ms.Members = ms.Members[1:]
	})

	_, _, err := env.governor.CreateProposal(context.Background())
	assert.True(t, errors.Is(err, ErrNotMember))
	assert.Empty(t, env.client.getSimulated())
	assert.Empty(t, env.client.getSubmitted())
}

func TestCreateProposal_MissingMultisig(t *testing.T) {
	env := setup(t, nil)
	env.client.deleteAccount(env.multisig)

	_, _, err := env.governor.CreateProposal(context.Background())
	assert.True(t, errors.Is(err, ErrAccountNotFound))
}

func TestCreateProposal_WrongOwner(t *testing.T) {
	env := setup(t, nil)
	info, err := env.client.GetAccountInfo(env.multisig, solana.CommitmentConfirmed)
	require.NoError(t, err)
	env.client.setAccount(env.multisig, env.other, info.Data)

	_, _, err = env.governor.CreateProposal(context.Background())
	assert.True(t, errors.Is(err, squads.ErrInvalidProgram))
}

func TestAddInstructions(t *testing.T) {
	env := setup(t, nil)
	env.putProposal(t, squads.ProposalStatusKindDraft, time.Now())
	env.putBatch(t, env.member, 2, 0)

	index, _, err := env.governor.AddInstructions(context.Background(), testProposalIndex, []solana.Instruction{env.transfer()})
	require.NoError(t, err)
	assert.EqualValues(t, 3, index)

	submitted := env.client.getSubmitted()
	require.Len(t, submitted, 1)

	instructions := decompile(t, submitted[0])
	require.Len(t, instructions, 1)
	assert.Equal(t, "squads::batch_add_transaction", DescribeInstruction(instructions[0]))

	expectedAddress, err := env.governor.batchTransactionAddress(testProposalIndex, 3)
	require.NoError(t, err)
	assert.Equal(t, expectedAddress, instructions[0].Accounts[3].PublicKey)

	args, err := squads.ParseBatchAddTransactionInstructionArgs(instructions[0].Data)
	require.NoError(t, err)
	assert.EqualValues(t, 0, args.EphemeralSigners)

	message, err := solana.UnmarshalCompact(args.TransactionMessage)
	require.NoError(t, err)
	assert.Equal(t, env.governor.Vault(), message.Accounts[0])

	inner, err := message.DecompileInstructions(nil)
	require.NoError(t, err)
	require.Len(t, inner, 1)
	assert.Equal(t, env.transferDescription(), DescribeInstruction(inner[0]))
}

func TestAddInstructions_InvalidState(t *testing.T) {
	env := setup(t, nil)
	env.putBatch(t, env.member, 0, 0)

	env.putProposal(t, squads.ProposalStatusKindActive, time.Now())
	_, _, err := env.governor.AddInstructions(context.Background(), testProposalIndex, []solana.Instruction{env.transfer()})
	assert.True(t, errors.Is(err, ErrInvalidProposalState))

	env.putProposal(t, squads.ProposalStatusKindDraft, time.Now())
	env.putBatch(t, env.other, 0, 0)
	_, _, err = env.governor.AddInstructions(context.Background(), testProposalIndex, []solana.Instruction{env.transfer()})
	assert.True(t, errors.Is(err, ErrNotBatchCreator))

	_, _, err = env.governor.AddInstructions(context.Background(), testProposalIndex, nil)
	assert.Error(t, err)

	assert.Empty(t, env.client.getSubmitted())
}

func TestActivateProposal(t *testing.T) {
	env := setup(t, nil)

	env.putProposal(t, squads.ProposalStatusKindActive, time.Now())
	_, err := env.governor.ActivateProposal(context.Background(), testProposalIndex)
	assert.True(t, errors.Is(err, ErrInvalidProposalState))

	env.putProposal(t, squads.ProposalStatusKindDraft, time.Now())
	_, err = env.governor.ActivateProposal(context.Background(), testProposalIndex)
	require.NoError(t, err)

	submitted := env.client.getSubmitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, []string{"squads::proposal_activate"}, describe(t, submitted[0]))
}

func TestActivateProposal_SerializedPerProposal(t *testing.T) {
	env := setup(t, nil)
	env.putProposal(t, squads.ProposalStatusKindDraft, time.Now())

	unlock := env.governor.lockProposal(testProposalIndex)

	done := make(chan error, 1)
	go func() {
		_, err := env.governor.ActivateProposal(context.Background(), testProposalIndex)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, env.client.getSubmitted())

	unlock()
	require.NoError(t, testutil.WaitFor(time.Second, 10*time.Millisecond, func() bool {
		return len(env.client.getSubmitted()) == 1
	}))
	assert.NoError(t, <-done)
}

func TestVoteProposal(t *testing.T) {
	env := setup(t, nil)
	env.putProposal(t, squads.ProposalStatusKindActive, time.Now())

	_, err := env.governor.ApproveProposal(context.Background(), testProposalIndex)
	require.NoError(t, err)
	_, err = env.governor.RejectProposal(context.Background(), testProposalIndex)
	require.NoError(t, err)

	submitted := env.client.getSubmitted()
	require.Len(t, submitted, 2)
	assert.Equal(t, []string{"squads::proposal_approve"}, describe(t, submitted[0]))
	assert.Equal(t, []string{"squads::proposal_reject"}, describe(t, submitted[1]))
}

func TestVoteProposal_Invalid(t *testing.T) {
	env := setup(t, nil)

	env.putProposal(t, squads.ProposalStatusKindActive, time.Now(), env.member)
	_, err := env.governor.ApproveProposal(context.Background(), testProposalIndex)
	assert.Equal(t, ErrAlreadyVoted, err)

	env.putProposal(t, squads.ProposalStatusKindDraft, time.Now())
	_, err = env.governor.RejectProposal(context.Background(), testProposalIndex)
	assert.True(t, errors.Is(err, ErrInvalidProposalState))

	env.putProposal(t, squads.ProposalStatusKindActive, time.Now())
	env.putMultisig(t, func(ms *squads.MultisigAccount) {
		ms.Members[0].Permissions = squads.PermissionInitiate | squads.PermissionExecute
	})
	_, err = env.governor.ApproveProposal(context.Background(), testProposalIndex)
	assert.True(t, errors.Is(err, ErrMissingPermission))

	assert.Empty(t, env.client.getSubmitted())
}

func TestExecuteProposal_Approved(t *testing.T) {
	env := setup(t, nil)
	env.putProposal(t, squads.ProposalStatusKindApproved, time.Now(), env.member, env.other)
	env.putBatch(t, env.member, 1, 0)
	env.putBatchTransaction(t, 1, nil, env.transfer())

	_, err := env.governor.ExecuteProposal(context.Background(), testProposalIndex, 0)
	require.NoError(t, err)

	submitted := env.client.getSubmitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, solana.MessageVersionLegacy, submitted[0].Message.Version)

	instructions := decompile(t, submitted[0])
	require.Len(t, instructions, 2)
	assert.Equal(t, "compute_budget::set_compute_unit_limit(200000)", DescribeInstruction(instructions[0]))
	assert.Equal(t, "squads::batch_execute_transaction", DescribeInstruction(instructions[1]))

	// Fixed accounts, followed by the vault, destination and system program
	execute := instructions[1]
	require.Len(t, execute.Accounts, 8)
	assert.Equal(t, env.member, execute.Accounts[1].PublicKey)
	assert.True(t, execute.Accounts[1].IsSigner)
	assert.Equal(t, env.governor.Vault(), execute.Accounts[5].PublicKey)
	assert.False(t, execute.Accounts[5].IsSigner)
	assert.Equal(t, env.dest, execute.Accounts[6].PublicKey)
	assert.True(t, execute.Accounts[6].IsWritable)
}

func TestExecuteProposal_Count(t *testing.T) {
	env := setup(t, nil)
	env.putProposal(t, squads.ProposalStatusKindApproved, time.Now(), env.member, env.other)
	env.putBatch(t, env.member, 3, 1)
	env.putBatchTransaction(t, 2, nil, env.transfer())

	_, err := env.governor.ExecuteProposal(context.Background(), testProposalIndex, 1)
	require.NoError(t, err)

	submitted := env.client.getSubmitted()
	require.Len(t, submitted, 1)

	instructions := decompile(t, submitted[0])
	require.Len(t, instructions, 2)

	expectedAddress, err := env.governor.batchTransactionAddress(testProposalIndex, 2)
	require.NoError(t, err)
	assert.Equal(t, expectedAddress, instructions[1].Accounts[4].PublicKey)
}

func TestExecuteProposal_SelfApprove(t *testing.T) {
	env := setup(t, nil)
	env.putProposal(t, squads.ProposalStatusKindActive, time.Now(), env.other)
	env.putBatch(t, env.member, 1, 0)
	env.putBatchTransaction(t, 1, nil, env.transfer())

	_, err := env.governor.ExecuteProposal(context.Background(), testProposalIndex, 0)
	require.NoError(t, err)

	submitted := env.client.getSubmitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, []string{
		"compute_budget::set_compute_unit_limit(200000)",
		"squads::proposal_approve",
		"squads::batch_execute_transaction",
	}, describe(t, submitted[0]))
}

func TestExecuteProposal_Invalid(t *testing.T) {
	env := setup(t, nil)
	env.putBatch(t, env.member, 1, 0)
	env.putBatchTransaction(t, 1, nil, env.transfer())

	// Self approval still leaves the proposal short of the threshold
	env.putMultisig(t, func(ms *squads.MultisigAccount) {
		ms.Threshold = 3
	})
	env.putProposal(t, squads.ProposalStatusKindActive, time.Now(), env.other)
	_, err := env.governor.ExecuteProposal(context.Background(), testProposalIndex, 0)
	assert.True(t, errors.Is(err, ErrNotEnoughApprovals))

	// Approval would start the time lock
	env.putMultisig(t, func(ms *squads.MultisigAccount) {
		ms.TimeLock = 60
	})
	_, err = env.governor.ExecuteProposal(context.Background(), testProposalIndex, 0)
	assert.True(t, errors.Is(err, ErrTimeLockNotReleased))

	env.putMultisig(t, func(*squads.MultisigAccount) {})
	env.putProposal(t, squads.ProposalStatusKindActive, time.Now(), env.member)
	_, err = env.governor.ExecuteProposal(context.Background(), testProposalIndex, 0)
	assert.Equal(t, ErrAlreadyVoted, err)

	env.putProposal(t, squads.ProposalStatusKindDraft, time.Now())
	_, err = env.governor.ExecuteProposal(context.Background(), testProposalIndex, 0)
	assert.True(t, errors.Is(err, ErrInvalidProposalState))

	env.putMultisig(t, func(ms *squads.MultisigAccount) {
		ms.Members[0].Permissions = squads.PermissionInitiate | squads.PermissionVote
	})
	env.putProposal(t, squads.ProposalStatusKindApproved, time.Now(), env.member, env.other)
	_, err = env.governor.ExecuteProposal(context.Background(), testProposalIndex, 0)
	assert.True(t, errors.Is(err, ErrMissingPermission))

	env.putMultisig(t, func(*squads.MultisigAccount) {})
	env.putBatch(t, env.member, 1, 1)
	_, err = env.governor.ExecuteProposal(context.Background(), testProposalIndex, 0)
	assert.True(t, errors.Is(err, ErrEmptyBatch))

	assert.Empty(t, env.client.getSubmitted())
}

func TestExecuteProposal_TimeLock(t *testing.T) {
	env := setup(t, nil)
	env.putMultisig(t, func(ms *squads.MultisigAccount) {
		ms.TimeLock = 3600
	})
	env.putBatch(t, env.member, 1, 0)
	env.putBatchTransaction(t, 1, nil, env.transfer())

	env.putProposal(t, squads.ProposalStatusKindApproved, time.Now(), env.member, env.other)
	_, err := env.governor.ExecuteProposal(context.Background(), testProposalIndex, 0)
	assert.True(t, errors.Is(err, ErrTimeLockNotReleased))
	assert.Empty(t, env.client.getSubmitted())

	env.putProposal(t, squads.ProposalStatusKindApproved, time.Now().Add(-2*time.Hour), env.member, env.other)
	_, err = env.governor.ExecuteProposal(context.Background(), testProposalIndex, 0)
	require.NoError(t, err)
	assert.Len(t, env.client.getSubmitted(), 1)
}

func TestExecuteProposal_LookupTables(t *testing.T) {
	tableAddress := testutil.GenerateSolanaKeys(t, 1)[0]
	env := setup(t, nil, WithLookupTables(tableAddress))

	filler := testutil.GenerateSolanaKeys(t, 1)[0]
	env.putLookupTable(tableAddress, env.other, filler)

	// Cache the table before it is extended with the destination
	_, err := env.governor.GetLookupTable(context.Background(), tableAddress)
	require.NoError(t, err)

	extended := solana.AddressLookupTable{
		PublicKey: tableAddress,
		Addresses: []ed25519.PublicKey{filler, env.dest},
	}
	env.putLookupTable(tableAddress, env.other, extended.Addresses...)

	env.putProposal(t, squads.ProposalStatusKindApproved, time.Now(), env.member, env.other)
	env.putBatch(t, env.member, 1, 0)
	env.putBatchTransaction(t, 1, []solana.AddressLookupTable{extended}, env.transfer())

	_, err = env.governor.ExecuteProposal(context.Background(), testProposalIndex, 0)
	require.NoError(t, err)

	submitted := env.client.getSubmitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, solana.MessageVersion0, submitted[0].Message.Version)
	require.Len(t, submitted[0].Message.AddressTableLookups, 1)
	assert.Equal(t, tableAddress, submitted[0].Message.AddressTableLookups[0].PublicKey)

	instructions := decompile(t, submitted[0], extended)
	require.Len(t, instructions, 2)

	// The table is passed ahead of the resolved accounts
	execute := instructions[1]
	require.Len(t, execute.Accounts, 9)
	assert.Equal(t, tableAddress, execute.Accounts[5].PublicKey)

	var found bool
	for _, account := range execute.Accounts {
		if account.PublicKey.Equal(env.dest) {
			found = true
			assert.True(t, account.IsWritable)
		}
	}
	assert.True(t, found)
}

func TestSimulateProposal_Draft(t *testing.T) {
	env := setup(t, nil)
	env.putProposal(t, squads.ProposalStatusKindDraft, time.Now())
	env.putBatch(t, env.member, 1, 0)
	env.putBatchTransaction(t, 1, nil, env.transfer())

	res, err := env.governor.SimulateProposal(context.Background(), testProposalIndex, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, res.UnitsConsumed)

	assert.Empty(t, env.client.getSubmitted())

	simulated := env.client.getSimulated()
	require.Len(t, simulated, 1)
	assert.False(t, simulated[0].FullySigned())
	assert.Equal(t, []string{
		"compute_budget::set_compute_unit_limit(200000)",
		"squads::proposal_activate",
		"squads::proposal_approve",
		"squads::proposal_approve",
		"squads::batch_execute_transaction",
	}, describe(t, simulated[0]))
}

func TestSimulateProposal_Approved(t *testing.T) {
	env := setup(t, nil)
	env.putProposal(t, squads.ProposalStatusKindApproved, time.Now(), env.member, env.other)
	env.putBatch(t, env.member, 1, 0)
	env.putBatchTransaction(t, 1, nil, env.transfer())

	_, err := env.governor.SimulateProposal(context.Background(), testProposalIndex, 0)
	require.NoError(t, err)

	simulated := env.client.getSimulated()
	require.Len(t, simulated, 1)
	assert.True(t, simulated[0].FullySigned())
	assert.Equal(t, []string{
		"compute_budget::set_compute_unit_limit(200000)",
		"squads::batch_execute_transaction",
	}, describe(t, simulated[0]))
}

func TestSimulateProposal_NotEnoughVoters(t *testing.T) {
	env := setup(t, nil)
	env.putMultisig(t, func(ms *squads.MultisigAccount) {
		ms.Threshold = 3
	})
	env.putProposal(t, squads.ProposalStatusKindActive, time.Now())
	env.putBatch(t, env.member, 1, 0)
	env.putBatchTransaction(t, 1, nil, env.transfer())

	_, err := env.governor.SimulateProposal(context.Background(), testProposalIndex, 0)
	assert.True(t, errors.Is(err, ErrNotEnoughApprovals))
	assert.Empty(t, env.client.getSimulated())
}

func TestSubmit_SimulationFailure(t *testing.T) {
	env := setup(t, nil)
	env.client.simulationErr = solana.NewTransactionError(solana.TransactionErrorAccountNotFound)

	_, _, err := env.governor.CreateProposal(context.Background())
	require.Error(t, err)

	var simErr *solana.SimulationError
	require.True(t, errors.As(err, &simErr))
	assert.Equal(t, []string{"Program log: simulated"}, simErr.Logs)
	assert.Empty(t, env.client.getSubmitted())
}

func TestSubmit_DryRun(t *testing.T) {
	env := setup(t, &testOverrides{dryRun: true})

	_, _, err := env.governor.CreateProposal(context.Background())
	require.NoError(t, err)

	assert.Len(t, env.client.getSimulated(), 1)
	assert.Empty(t, env.client.getSubmitted())
}

func TestSubmit_ComputeBudget(t *testing.T) {
	env := setup(t, &testOverrides{computeUnitLimit: 300_000, computeUnitPrice: 1_000})
	env.putProposal(t, squads.ProposalStatusKindApproved, time.Now(), env.member, env.other)
	env.putBatch(t, env.member, 1, 0)
	env.putBatchTransaction(t, 1, nil, env.transfer())

	_, err := env.governor.ExecuteProposal(context.Background(), testProposalIndex, 0)
	require.NoError(t, err)

	submitted := env.client.getSubmitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, []string{
		"compute_budget::set_compute_unit_limit(300000)",
		"compute_budget::set_compute_unit_price(1000)",
		"squads::batch_execute_transaction",
	}, describe(t, submitted[0]))
}

func TestCheckProposal(t *testing.T) {
	env := setup(t, nil)
	env.putProposal(t, squads.ProposalStatusKindActive, time.Now(), env.other)
	env.putBatch(t, env.member, 2, 1)
	env.putBatchTransaction(t, 1, nil, env.transfer())
	env.putBatchTransaction(t, 2, nil, memo.Instruction("hello"))

	report, err := env.governor.CheckProposal(context.Background(), testProposalIndex)
	require.NoError(t, err)

	assert.Equal(t, "active", report.Status())
	require.Len(t, report.Transactions, 2)
	assert.True(t, report.Transactions[0].Executed)
	assert.False(t, report.Transactions[1].Executed)

	expected := "proposal 5 (active)\n" +
		"├── approved 1/2\n" +
		"│   └── " + base58.Encode(env.other) + "\n" +
		"└── batch (vault 0, 2 transactions, 1 executed)\n" +
		"    ├── tx_1 (executed)\n" +
		"    │   └── " + env.transferDescription() + "\n" +
		"    └── tx_2 (pending)\n" +
		"        └── memo(\"hello\")\n"
	assert.Equal(t, expected, report.String())
}

func TestCheckProposal_MissingProposal(t *testing.T) {
	env := setup(t, nil)
	env.putBatch(t, env.member, 0, 0)

	report, err := env.governor.CheckProposal(context.Background(), testProposalIndex)
	require.NoError(t, err)

	assert.Nil(t, report.Proposal)
	assert.Equal(t, "missing", report.Status())
	assert.Equal(t, "proposal 5 (missing)\n└── batch (vault 0, 0 transactions, 0 executed)\n", report.String())

	env.client.deleteAccount(env.multisig)
	_, err = env.governor.CheckProposal(context.Background(), testProposalIndex)
	assert.True(t, errors.Is(err, ErrAccountNotFound))
}

func TestEnsureLookupTable_Create(t *testing.T) {
	env := setup(t, nil)
	addresses := testutil.GenerateSolanaKeys(t, 3)

	table, err := env.governor.EnsureLookupTable(context.Background(), nil, addresses)
	require.NoError(t, err)

	expected, _, err := address_lookup_table.GetAddress(env.member, env.client.slot)
	require.NoError(t, err)
	assert.Equal(t, expected, table)

	submitted := env.client.getSubmitted()
	require.Len(t, submitted, 2)
	assert.Equal(t, []string{"address_lookup_table"}, describe(t, submitted[0]))
	assert.Equal(t, []string{"address_lookup_table"}, describe(t, submitted[1]))
}

func TestEnsureLookupTable_Extend(t *testing.T) {
	env := setup(t, nil)
	tableAddress := testutil.GenerateSolanaKeys(t, 1)[0]
	addresses := testutil.GenerateSolanaKeys(t, 2)

	env.putLookupTable(tableAddress, env.member, addresses...)

	// Nothing is missing
	table, err := env.governor.EnsureLookupTable(context.Background(), tableAddress, addresses)
	require.NoError(t, err)
	assert.Equal(t, tableAddress, table)
	assert.Empty(t, env.client.getSubmitted())

	more := append(addresses, testutil.GenerateSolanaKeys(t, 1)...)
	_, err = env.governor.EnsureLookupTable(context.Background(), tableAddress, more)
	require.NoError(t, err)

	submitted := env.client.getSubmitted()
	require.Len(t, submitted, 1)

	instructions := decompile(t, submitted[0])
	require.Len(t, instructions, 1)
	assert.Equal(t, "address_lookup_table", DescribeInstruction(instructions[0]))
}

func TestEnsureLookupTable_Invalid(t *testing.T) {
	env := setup(t, nil)
	tableAddress := testutil.GenerateSolanaKeys(t, 1)[0]
	addresses := testutil.GenerateSolanaKeys(t, 2)

	_, err := env.governor.EnsureLookupTable(context.Background(), tableAddress, addresses)
	assert.True(t, errors.Is(err, ErrAccountNotFound))

	env.putLookupTable(tableAddress, env.other)
	_, err = env.governor.EnsureLookupTable(context.Background(), tableAddress, addresses)
	assert.Error(t, err)

	account := &address_lookup_table.AddressLookupTableAccount{
		DeactivationSlot: 10,
		Authority:        env.member,
	}
	env.client.setAccount(tableAddress, address_lookup_table.ProgramKey, account.Marshal())
	_, err = env.governor.EnsureLookupTable(context.Background(), tableAddress, addresses)
	assert.True(t, errors.Is(err, ErrLookupTableInactive))

	assert.Empty(t, env.client.getSubmitted())
}
