package governor

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/vault-governor/pkg/metrics"
	"github.com/code-payments/vault-governor/pkg/solana"
	compute_budget "github.com/code-payments/vault-governor/pkg/solana/computebudget"
	"github.com/code-payments/vault-governor/pkg/solana/memo"
	"github.com/code-payments/vault-governor/pkg/solana/squads"
)

var ErrNotBatchCreator = errors.New("only the batch creator can add transactions")

// CreateProposal creates an empty batch and its draft proposal at the next
// transaction index of the multisig, returning that index
func (g *Governor) CreateProposal(ctx context.Context) (uint64, solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "CreateProposal")
	defer tracer.End()

	unlock := g.lockProposalCreation()
	defer unlock()

	index, sig, err := g.createProposal(ctx)
	tracer.AddAttribute("proposal", index)
	tracer.OnError(err)
	return index, sig, err
}

func (g *Governor) createProposal(ctx context.Context) (uint64, solana.Signature, error) {
	ms, err := g.GetMultisig(ctx)
	if err != nil {
		return 0, solana.Signature{}, err
	}
	if err := g.requireMember(ms, squads.PermissionInitiate); err != nil {
		return 0, solana.Signature{}, err
	}

	index := ms.NextTransactionIndex()
	log := g.log.WithFields(logrus.Fields{
		"method":   "CreateProposal",
		"proposal": index,
	})

	batch, err := g.batchAddress(index)
	if err != nil {
		return 0, solana.Signature{}, err
	}
	proposal, err := g.proposalAddress(index)
	if err != nil {
		return 0, solana.Signature{}, err
	}

	member := g.Member()
	instructions := []solana.Instruction{
		squads.NewBatchCreateInstruction(
			&squads.BatchCreateInstructionAccounts{
				Multisig:  g.multisig,
				Creator:   member,
				RentPayer: member,
				Batch:     batch,
			},
			&squads.BatchCreateInstructionArgs{
				VaultIndex: g.vaultIndex,
				Memo:       g.memo(ctx),
			},
		),
		squads.NewProposalCreateInstruction(
			&squads.ProposalCreateInstructionAccounts{
				Multisig:  g.multisig,
				Proposal:  proposal,
				Creator:   member,
				RentPayer: member,
			},
			&squads.ProposalCreateInstructionArgs{
				TransactionIndex: index,
				Draft:            true,
			},
		),
	}

	sig, err := g.Submit(ctx, "proposal & batch creation", g.withMemo(ctx, instructions), nil)
	if err != nil {
		return index, sig, err
	}

	log.WithField("batch", base58.Encode(batch)).Info("created proposal")
	g.recordProposalTransitionEvent(ctx, index, "created")
	return index, sig, nil
}

// AddInstructions compiles instructions into a single vault transaction, with
// the vault as payer, and appends it to the batch of a draft proposal. The
// index of the transaction within the batch is returned.
func (g *Governor) AddInstructions(ctx context.Context, index uint64, instructions []solana.Instruction) (uint32, solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "AddInstructions")
	tracer.AddAttribute("proposal", index)
	defer tracer.End()

	unlock := g.lockProposal(index)
	defer unlock()

	transactionIndex, sig, err := g.addInstructions(ctx, index, instructions)
	tracer.OnError(err)
	return transactionIndex, sig, err
}

func (g *Governor) addInstructions(ctx context.Context, index uint64, instructions []solana.Instruction) (uint32, solana.Signature, error) {
	if len(instructions) == 0 {
		return 0, solana.Signature{}, errors.New("no instructions provided")
	}

	ms, err := g.GetMultisig(ctx)
	if err != nil {
		return 0, solana.Signature{}, err
	}
	if err := g.requireMember(ms, squads.PermissionInitiate); err != nil {
		return 0, solana.Signature{}, err
	}

	proposal, err := g.GetProposal(ctx, index)
	if err != nil {
		return 0, solana.Signature{}, err
	}
	if err := requireStatus(proposal, squads.ProposalStatusKindDraft); err != nil {
		return 0, solana.Signature{}, err
	}

	batch, err := g.GetBatch(ctx, index)
	if err != nil {
		return 0, solana.Signature{}, err
	}
	if !bytes.Equal(batch.Creator, g.Member()) {
		return 0, solana.Signature{}, errors.Wrapf(ErrNotBatchCreator, "batch %d was created by %s", index, base58.Encode(batch.Creator))
	}

	tables, err := g.GetLookupTables(ctx)
	if err != nil {
		return 0, solana.Signature{}, err
	}

	vault, _, err := squads.GetVaultAddress(&squads.GetVaultAddressArgs{
		Multisig:   g.multisig,
		VaultIndex: batch.VaultIndex,
	})
	if err != nil {
		return 0, solana.Signature{}, errors.Wrap(err, "failed to derive vault address")
	}

	message, err := squads.CompileVaultTransactionMessage(vault, instructions, tables)
	if err != nil {
		return 0, solana.Signature{}, err
	}

	transactionIndex := batch.Size + 1
	log := g.log.WithFields(logrus.Fields{
		"method":            "AddInstructions",
		"proposal":          index,
		"transaction_index": transactionIndex,
		"message_size":      len(message),
	})

	batchAddress, err := g.batchAddress(index)
	if err != nil {
		return 0, solana.Signature{}, err
	}
	proposalAddress, err := g.proposalAddress(index)
	if err != nil {
		return 0, solana.Signature{}, err
	}
	transactionAddress, err := g.batchTransactionAddress(index, transactionIndex)
	if err != nil {
		return 0, solana.Signature{}, err
	}

	member := g.Member()
	add := squads.NewBatchAddTransactionInstruction(
		&squads.BatchAddTransactionInstructionAccounts{
			Multisig:    g.multisig,
			Proposal:    proposalAddress,
			Batch:       batchAddress,
			Transaction: transactionAddress,
			Member:      member,
			RentPayer:   member,
		},
		&squads.BatchAddTransactionInstructionArgs{
			EphemeralSigners:   0,
			TransactionMessage: message,
		},
	)

	sig, err := g.Submit(ctx, "batch transaction addition", []solana.Instruction{add}, nil)
	if err != nil {
		return transactionIndex, sig, err
	}

	log.Info("added transaction to batch")
	return transactionIndex, sig, nil
}

// ActivateProposal moves a draft proposal to active, after which its batch no
// longer accepts transactions and members can vote
func (g *Governor) ActivateProposal(ctx context.Context, index uint64) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ActivateProposal")
	tracer.AddAttribute("proposal", index)
	defer tracer.End()

	unlock := g.lockProposal(index)
	defer unlock()

	sig, err := g.activateProposal(ctx, index)
	tracer.OnError(err)
	return sig, err
}

func (g *Governor) activateProposal(ctx context.Context, index uint64) (solana.Signature, error) {
	ms, err := g.GetMultisig(ctx)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := g.requireMember(ms, squads.PermissionInitiate); err != nil {
		return solana.Signature{}, err
	}

	proposal, err := g.GetProposal(ctx, index)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := requireStatus(proposal, squads.ProposalStatusKindDraft); err != nil {
		return solana.Signature{}, err
	}

	activate, err := g.activateInstruction(index)
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := g.Submit(ctx, "proposal activation", g.withMemo(ctx, []solana.Instruction{activate}), nil)
	if err != nil {
		return sig, err
	}

	g.recordProposalTransitionEvent(ctx, index, "activated")
	return sig, nil
}

// ApproveProposal casts the signer's approval on an active proposal
func (g *Governor) ApproveProposal(ctx context.Context, index uint64) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ApproveProposal")
	tracer.AddAttribute("proposal", index)
	defer tracer.End()

	unlock := g.lockProposal(index)
	defer unlock()

	sig, err := g.vote(ctx, index, true)
	tracer.OnError(err)
	return sig, err
}

// RejectProposal casts the signer's rejection on an active proposal
func (g *Governor) RejectProposal(ctx context.Context, index uint64) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "RejectProposal")
	tracer.AddAttribute("proposal", index)
	defer tracer.End()

	unlock := g.lockProposal(index)
	defer unlock()

	sig, err := g.vote(ctx, index, false)
	tracer.OnError(err)
	return sig, err
}

func (g *Governor) vote(ctx context.Context, index uint64, approve bool) (solana.Signature, error) {
	ms, err := g.GetMultisig(ctx)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := g.requireMember(ms, squads.PermissionVote); err != nil {
		return solana.Signature{}, err
	}

	proposal, err := g.GetProposal(ctx, index)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := requireStatus(proposal, squads.ProposalStatusKindActive); err != nil {
		return solana.Signature{}, err
	}
	if hasVoted(proposal, g.Member()) {
		return solana.Signature{}, ErrAlreadyVoted
	}

	ix, err := g.voteInstruction(ctx, index, g.Member(), approve)
	if err != nil {
		return solana.Signature{}, err
	}

	transition, description := "approved", "proposal approval"
	if !approve {
		transition, description = "rejected", "proposal rejection"
	}

	sig, err := g.Submit(ctx, description, []solana.Instruction{ix}, nil)
	if err != nil {
		return sig, err
	}

	g.recordProposalTransitionEvent(ctx, index, transition)
	return sig, nil
}

// ExecuteProposal executes pending transactions of an approved proposal's
// batch, in order, within a single transaction. When the proposal is still
// active and the signer's approval reaches the threshold, the approval is
// included in the same transaction. A count of zero executes every pending
// transaction.
func (g *Governor) ExecuteProposal(ctx context.Context, index uint64, count int) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ExecuteProposal")
	tracer.AddAttribute("proposal", index)
	defer tracer.End()

	unlock := g.lockProposal(index)
	defer unlock()

	sig, err := g.executeProposal(ctx, index, count)
	tracer.OnError(err)
	return sig, err
}

func (g *Governor) executeProposal(ctx context.Context, index uint64, count int) (solana.Signature, error) {
	ms, err := g.GetMultisig(ctx)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := g.requireMember(ms, squads.PermissionExecute); err != nil {
		return solana.Signature{}, err
	}

	proposal, err := g.GetProposal(ctx, index)
	if err != nil {
		return solana.Signature{}, err
	}

	var instructions []solana.Instruction
	switch proposal.Status.Kind() {
	case squads.ProposalStatusKindApproved:
		if err := checkTimeLock(ms, proposal, time.Now()); err != nil {
			return solana.Signature{}, err
		}
	case squads.ProposalStatusKindActive:
		if len(proposal.Approved)+1 < int(ms.Threshold) {
			return solana.Signature{}, errors.Wrapf(ErrNotEnoughApprovals, "%d of %d", len(proposal.Approved), ms.Threshold)
		}
		if ms.TimeLock > 0 {
			return solana.Signature{}, errors.Wrapf(ErrTimeLockNotReleased, "approval starts a %ds time lock", ms.TimeLock)
		}
		if err := g.requireMember(ms, squads.PermissionVote); err != nil {
			return solana.Signature{}, err
		}
		if hasVoted(proposal, g.Member()) {
			return solana.Signature{}, ErrAlreadyVoted
		}

		approve, err := g.voteInstruction(ctx, index, g.Member(), true)
		if err != nil {
			return solana.Signature{}, err
		}
		instructions = append(instructions, approve)
	default:
		return solana.Signature{}, requireStatus(proposal, squads.ProposalStatusKindApproved)
	}

	executes, tables, err := g.executeInstructions(ctx, index, count)
	if err != nil {
		return solana.Signature{}, err
	}
	instructions = append(g.computeBudget(ctx), append(instructions, executes...)...)

	sig, err := g.Submit(ctx, "proposal execution", instructions, tables)
	if err != nil {
		return sig, err
	}

	g.recordBatchTransactionsExecuted(ctx, len(executes))
	g.recordProposalTransitionEvent(ctx, index, "executed")
	return sig, nil
}

// SimulateProposal simulates executing a proposal as if it had been voted
// through by the first members holding every permission. Draft proposals are
// activated first. Votes from other members are unsigned, so the simulation
// skips signature verification.
func (g *Governor) SimulateProposal(ctx context.Context, index uint64, count int) (*solana.SimulationResult, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "SimulateProposal")
	tracer.AddAttribute("proposal", index)
	defer tracer.End()

	res, err := g.simulateProposal(ctx, index, count)
	tracer.OnError(err)
	return res, err
}

func (g *Governor) simulateProposal(ctx context.Context, index uint64, count int) (*solana.SimulationResult, error) {
	ms, err := g.GetMultisig(ctx)
	if err != nil {
		return nil, err
	}

	proposal, err := g.GetProposal(ctx, index)
	if err != nil {
		return nil, err
	}

	var instructions []solana.Instruction
	switch proposal.Status.Kind() {
	case squads.ProposalStatusKindDraft:
		activate, err := g.activateInstruction(index)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, activate)
		fallthrough
	case squads.ProposalStatusKindActive:
		votes, err := g.simulatedVotes(ctx, ms, proposal)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, votes...)
	case squads.ProposalStatusKindApproved:
	default:
		return nil, requireStatus(proposal, squads.ProposalStatusKindDraft, squads.ProposalStatusKindActive, squads.ProposalStatusKindApproved)
	}

	executes, tables, err := g.executeInstructions(ctx, index, count)
	if err != nil {
		return nil, err
	}
	instructions = append(g.computeBudget(ctx), append(instructions, executes...)...)

	return g.Simulate(ctx, instructions, tables)
}

// simulatedVotes approves the proposal with as many full permission members as
// needed to reach the threshold
func (g *Governor) simulatedVotes(ctx context.Context, ms *squads.MultisigAccount, proposal *squads.ProposalAccount) ([]solana.Instruction, error) {
	needed := int(ms.Threshold) - len(proposal.Approved)

	var votes []solana.Instruction
	for _, voter := range ms.MembersWith(squads.PermissionAll) {
		if needed <= 0 {
			break
		}
		if hasVoted(proposal, voter.Key) {
			continue
		}

		vote, err := g.voteInstruction(ctx, proposal.TransactionIndex, voter.Key, true)
		if err != nil {
			return nil, err
		}
		votes = append(votes, vote)
		needed--
	}

	if needed > 0 {
		return nil, errors.Wrapf(ErrNotEnoughApprovals, "missing %d voters with full permissions", needed)
	}
	return votes, nil
}

// executeInstructions builds the execute instruction for each pending batch
// transaction, along with every lookup table needed to compile them
func (g *Governor) executeInstructions(ctx context.Context, index uint64, count int) ([]solana.Instruction, []solana.AddressLookupTable, error) {
	batch, err := g.GetBatch(ctx, index)
	if err != nil {
		return nil, nil, err
	}

	pending := batch.PendingTransactionIndexes()
	if len(pending) == 0 {
		return nil, nil, errors.Wrapf(ErrEmptyBatch, "batch %d", index)
	}
	if count > 0 && count < len(pending) {
		pending = pending[:count]
	}

	proposalAddress, err := g.proposalAddress(index)
	if err != nil {
		return nil, nil, err
	}
	batchAddress, err := g.batchAddress(index)
	if err != nil {
		return nil, nil, err
	}

	var referenced []solana.AddressLookupTable
	instructions := make([]solana.Instruction, 0, len(pending))
	for _, transactionIndex := range pending {
		transaction, err := g.GetBatchTransaction(ctx, index, transactionIndex)
		if err != nil {
			return nil, nil, err
		}

		messageTables, err := g.resolveMessageTables(ctx, transaction.Message.AddressTableLookups)
		if err != nil {
			return nil, nil, err
		}

		transactionAddress, err := g.batchTransactionAddress(index, transactionIndex)
		if err != nil {
			return nil, nil, err
		}

		execute, err := squads.NewBatchExecuteTransactionInstruction(
			&squads.BatchExecuteTransactionInstructionAccounts{
				Multisig:    g.multisig,
				Member:      g.Member(),
				Proposal:    proposalAddress,
				Batch:       batchAddress,
				Transaction: transactionAddress,
			},
			&squads.BatchExecuteTransactionInstructionArgs{
				VaultIndex:          batch.VaultIndex,
				BatchTransaction:    transaction,
				AddressLookupTables: messageTables,
			},
		)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to build execute instruction for transaction %d", transactionIndex)
		}

		instructions = append(instructions, execute)
		referenced = appendUniqueTables(referenced, messageTables...)
	}

	// Configured tables are loaded last so that any table refreshed while
	// resolving messages is used in its refreshed form
	tables, err := g.GetLookupTables(ctx)
	if err != nil {
		return nil, nil, err
	}
	return instructions, appendUniqueTables(tables, referenced...), nil
}

func (g *Governor) activateInstruction(index uint64) (solana.Instruction, error) {
	proposal, err := g.proposalAddress(index)
	if err != nil {
		return solana.Instruction{}, err
	}

	return squads.NewProposalActivateInstruction(&squads.ProposalActivateInstructionAccounts{
		Multisig: g.multisig,
		Member:   g.Member(),
		Proposal: proposal,
	}), nil
}

func (g *Governor) voteInstruction(ctx context.Context, index uint64, member ed25519.PublicKey, approve bool) (solana.Instruction, error) {
	proposal, err := g.proposalAddress(index)
	if err != nil {
		return solana.Instruction{}, err
	}

	accounts := &squads.ProposalVoteInstructionAccounts{
		Multisig: g.multisig,
		Member:   member,
		Proposal: proposal,
	}
	args := &squads.ProposalVoteInstructionArgs{
		Memo: g.memo(ctx),
	}

	if approve {
		return squads.NewProposalApproveInstruction(accounts, args), nil
	}
	return squads.NewProposalRejectInstruction(accounts, args), nil
}

func (g *Governor) computeBudget(ctx context.Context) []solana.Instruction {
	limit := g.conf.computeUnitLimit.Get(ctx)
	if limit > uint64(^uint32(0)) {
		limit = uint64(^uint32(0))
	}
	return compute_budget.Budget(uint32(limit), g.conf.computeUnitPrice.Get(ctx))
}

// withMemo tags governance transactions with the configured memo
func (g *Governor) withMemo(ctx context.Context, instructions []solana.Instruction) []solana.Instruction {
	tag := g.memo(ctx)
	if tag == nil {
		return instructions
	}
	return append(instructions, memo.Instruction(*tag))
}

func hasVoted(proposal *squads.ProposalAccount, member ed25519.PublicKey) bool {
	for _, keys := range [][]ed25519.PublicKey{proposal.Approved, proposal.Rejected} {
		for _, key := range keys {
			if bytes.Equal(key, member) {
				return true
			}
		}
	}
	return false
}

func checkTimeLock(ms *squads.MultisigAccount, proposal *squads.ProposalAccount, now time.Time) error {
	if ms.TimeLock == 0 {
		return nil
	}

	status, ok := proposal.Status.(squads.TimestampedStatus)
	if !ok {
		return nil
	}

	releasedAt := status.At().Add(time.Duration(ms.TimeLock) * time.Second)
	if now.Before(releasedAt) {
		return errors.Wrapf(ErrTimeLockNotReleased, "releases at %s", releasedAt.Format(time.RFC3339))
	}
	return nil
}

func appendUniqueTables(tables []solana.AddressLookupTable, more ...solana.AddressLookupTable) []solana.AddressLookupTable {
	for _, table := range more {
		var found bool
		for _, existing := range tables {
			if bytes.Equal(existing.PublicKey, table.PublicKey) {
				found = true
				break
			}
		}
		if !found {
			tables = append(tables, table)
		}
	}
	return tables
}
