package governor

import (
	"context"

	"github.com/mr-tron/base58"

	"github.com/code-payments/vault-governor/pkg/metrics"
)

const (
	metricsStructName = "governor.Governor"

	transactionSubmittedEventName = "GovernorTransactionSubmitted"
	proposalTransitionEventName   = "GovernorProposalTransition"

	batchTransactionsExecutedMetricName = "Governor/BatchTransactionsExecuted"
)

func (g *Governor) recordSubmissionEvent(ctx context.Context, description string, err error) {
	kvPairs := map[string]interface{}{
		"multisig":    base58.Encode(g.multisig),
		"description": description,
		"success":     err == nil,
		"dry_run":     g.conf.dryRun.Get(ctx),
	}
	if err != nil {
		kvPairs["error"] = err.Error()
	}
	metrics.RecordEvent(ctx, transactionSubmittedEventName, kvPairs)
}

func (g *Governor) recordProposalTransitionEvent(ctx context.Context, index uint64, transition string) {
	metrics.RecordEvent(ctx, proposalTransitionEventName, map[string]interface{}{
		"multisig":   base58.Encode(g.multisig),
		"proposal":   index,
		"transition": transition,
	})
}

func (g *Governor) recordBatchTransactionsExecuted(ctx context.Context, count int) {
	metrics.RecordCount(ctx, batchTransactionsExecutedMetricName, uint64(count))
}
