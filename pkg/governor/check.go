package governor

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/vault-governor/pkg/metrics"
	"github.com/code-payments/vault-governor/pkg/solana/squads"
)

// ProposalReport summarizes a proposal and the contents of its batch
type ProposalReport struct {
	Index     uint64
	Threshold uint16

	// Proposal is nil when only the batch exists
	Proposal *squads.ProposalAccount
	Batch    *squads.BatchAccount

	Transactions []TransactionReport
}

// TransactionReport summarizes a transaction within a batch
type TransactionReport struct {
	Index        uint32
	Executed     bool
	Instructions []string
}

// CheckProposal decodes a proposal, its batch and every batch transaction
func (g *Governor) CheckProposal(ctx context.Context, index uint64) (*ProposalReport, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "CheckProposal")
	tracer.AddAttribute("proposal", index)
	defer tracer.End()

	report, err := g.checkProposal(ctx, index)
	tracer.OnError(err)
	return report, err
}

func (g *Governor) checkProposal(ctx context.Context, index uint64) (*ProposalReport, error) {
	ms, err := g.GetMultisig(ctx)
	if err != nil {
		return nil, err
	}

	batch, err := g.GetBatch(ctx, index)
	if err != nil {
		return nil, err
	}

	report := &ProposalReport{
		Index:     index,
		Threshold: ms.Threshold,
		Batch:     batch,
	}

	for i := uint32(1); i <= batch.Size; i++ {
		transaction, err := g.GetBatchTransaction(ctx, index, i)
		if err != nil {
			return nil, err
		}

		instructions, err := g.describeBatchTransaction(ctx, transaction)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to describe transaction %d", i)
		}

		report.Transactions = append(report.Transactions, TransactionReport{
			Index:        i,
			Executed:     i <= batch.ExecutedTransactionIndex,
			Instructions: instructions,
		})
	}

	proposal, err := g.GetProposal(ctx, index)
	if errors.Is(err, ErrAccountNotFound) {
		return report, nil
	} else if err != nil {
		return nil, err
	}
	report.Proposal = proposal

	return report, nil
}

func (g *Governor) describeBatchTransaction(ctx context.Context, transaction *squads.VaultBatchTransactionAccount) ([]string, error) {
	message, err := transaction.Message.ToCompactMessage()
	if err != nil {
		return nil, err
	}

	tables, err := g.resolveMessageTables(ctx, message.AddressTableLookups)
	if err != nil {
		return nil, err
	}

	instructions, err := message.DecompileInstructions(tables)
	if err != nil {
		return nil, err
	}

	res := make([]string, len(instructions))
	for i, ix := range instructions {
		res[i] = DescribeInstruction(ix)
	}
	return res, nil
}

// Status renders the proposal status, or "missing" if only the batch exists
func (r *ProposalReport) Status() string {
	if r.Proposal == nil {
		return "missing"
	}
	return r.Proposal.Status.Kind().String()
}

// String renders the report as a tree
func (r *ProposalReport) String() string {
	root := &treeNode{label: fmt.Sprintf("proposal %d (%s)", r.Index, r.Status())}

	if r.Proposal != nil {
		root.add(fmt.Sprintf("approved %d/%d", len(r.Proposal.Approved), r.Threshold), keyLabels(r.Proposal.Approved)...)
		if len(r.Proposal.Rejected) > 0 {
			root.add(fmt.Sprintf("rejected %d", len(r.Proposal.Rejected)), keyLabels(r.Proposal.Rejected)...)
		}
	}

	batch := root.add(fmt.Sprintf(
		"batch (vault %d, %d transactions, %d executed)",
		r.Batch.VaultIndex,
		r.Batch.Size,
		r.Batch.ExecutedTransactionIndex,
	))
	for _, transaction := range r.Transactions {
		state := "pending"
		if transaction.Executed {
			state = "executed"
		}
		batch.add(fmt.Sprintf("tx_%d (%s)", transaction.Index, state), transaction.Instructions...)
	}

	var sb strings.Builder
	root.render(&sb, "", "")
	return sb.String()
}

type treeNode struct {
	label    string
	children []*treeNode
}

func (n *treeNode) add(label string, leaves ...string) *treeNode {
	child := &treeNode{label: label}
	for _, leaf := range leaves {
		child.children = append(child.children, &treeNode{label: leaf})
	}
	n.children = append(n.children, child)
	return child
}

func (n *treeNode) render(sb *strings.Builder, prefix, childPrefix string) {
	sb.WriteString(prefix)
	sb.WriteString(n.label)
	sb.WriteString("\n")

	for i, child := range n.children {
		if i == len(n.children)-1 {
			child.render(sb, childPrefix+"└── ", childPrefix+"    ")
		} else {
			child.render(sb, childPrefix+"├── ", childPrefix+"│   ")
		}
	}
}

func keyLabels(keys []ed25519.PublicKey) []string {
	res := make([]string, len(keys))
	for i, key := range keys {
		res[i] = base58.Encode(key)
	}
	return res
}
