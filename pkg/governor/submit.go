package governor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/vault-governor/pkg/metrics"
	"github.com/code-payments/vault-governor/pkg/retry"
	"github.com/code-payments/vault-governor/pkg/retry/backoff"
	"github.com/code-payments/vault-governor/pkg/solana"
	"github.com/code-payments/vault-governor/pkg/solana/squads"
)

const confirmationAttempts = 3

var (
	ErrTransactionTooLarge = errors.New("transaction exceeds the maximum size")
	ErrNotConfirmed        = errors.New("transaction was not confirmed")
)

// Submit signs, simulates, sends and waits for finalization of a transaction
// paid for by the signer. Lookup tables are only used when provided. In dry
// run mode the transaction is simulated but never sent.
func (g *Governor) Submit(ctx context.Context, description string, instructions []solana.Instruction, tables []solana.AddressLookupTable) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Submit")
	tracer.AddAttribute("description", description)
	defer tracer.End()

	log := g.log.WithFields(logrus.Fields{
		"method":      "Submit",
		"description": description,
	})

	sig, err := g.submit(ctx, log, instructions, tables)
	tracer.OnError(err)
	g.recordSubmissionEvent(ctx, description, err)
	return sig, err
}

func (g *Governor) submit(ctx context.Context, log *logrus.Entry, instructions []solana.Instruction, tables []solana.AddressLookupTable) (solana.Signature, error) {
	txn, err := g.buildTransaction(instructions, tables)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := txn.Sign(g.signer); err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to sign transaction")
	}
	sig := txn.Signatures[0]
	log = log.WithField("signature", sig.String())

	log.Info("simulating transaction")
	if _, err := g.simulate(log, txn); err != nil {
		return sig, err
	}

	if g.conf.dryRun.Get(ctx) {
		log.Info("dry run enabled, not broadcasting transaction")
		return sig, nil
	}

	log.Info("broadcasting transaction")
	if _, err := g.client.SubmitTransaction(txn, solana.CommitmentConfirmed); err != nil {
		log.WithError(err).Warn("failed to broadcast transaction")
		return sig, errors.Wrap(err, "failed to submit transaction")
	}

	log.Info("waiting for finalization")
	if err := g.waitForFinalization(ctx, log, sig); err != nil {
		return sig, err
	}

	log.Info("transaction finalized")
	return sig, nil
}

// Simulate simulates a transaction paid for by the signer. Instructions may
// require signatures from other members, in which case the transaction is
// simulated without signature verification.
func (g *Governor) Simulate(ctx context.Context, instructions []solana.Instruction, tables []solana.AddressLookupTable) (*solana.SimulationResult, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Simulate")
	defer tracer.End()

	txn, err := g.buildTransaction(instructions, tables)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	// Only the payer signature is provided
	if err := txn.Sign(g.signer); err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	res, err := g.simulate(g.log.WithField("method", "Simulate"), txn)
	tracer.OnError(err)
	return res, err
}

func (g *Governor) buildTransaction(instructions []solana.Instruction, tables []solana.AddressLookupTable) (solana.Transaction, error) {
	txn, err := solana.NewVersionedTransaction(g.Member(), tables, instructions)
	if err != nil {
		return txn, err
	}

	blockhash, err := g.client.GetLatestBlockhash()
	if err != nil {
		return txn, errors.Wrap(err, "failed to get latest blockhash")
	}
	txn.SetBlockhash(blockhash)

	if size := len(txn.Marshal()); size > solana.MaxTransactionSize {
		return txn, errors.Wrapf(ErrTransactionTooLarge, "%d > %d bytes", size, solana.MaxTransactionSize)
	}
	return txn, nil
}

func (g *Governor) simulate(log *logrus.Entry, txn solana.Transaction) (*solana.SimulationResult, error) {
	res, err := g.client.SimulateTransaction(txn, solana.CommitmentConfirmed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to simulate transaction")
	}

	if res.Err != nil {
		simErr := &solana.SimulationError{Err: res.Err, Logs: res.Logs}
		log.WithFields(logrus.Fields{
			"reason": squads.DescribeError(simErr),
			"logs":   res.Logs,
		}).Warn("transaction simulation failed")
		return res, simErr
	}

	log.WithField("units_consumed", res.UnitsConsumed).Debug("transaction simulation succeeded")
	return res, nil
}

func (g *Governor) waitForFinalization(ctx context.Context, log *logrus.Entry, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, g.conf.confirmationTimeout.Get(ctx))
	defer cancel()

	var attempt int
	_, err := retry.Retry(
		func() error {
			attempt++

			status, err := g.client.GetSignatureStatus(sig, solana.CommitmentFinalized)
			if err != nil {
				log.WithError(err).Warnf("failed to await transaction finalization, attempt %d/%d", attempt, confirmationAttempts)
				return ErrNotConfirmed
			}
			if status == nil {
				return ErrNotConfirmed
			}
			if status.ErrorResult != nil {
				return status.ErrorResult
			}
			return nil
		},
		retry.RetriableErrors(ErrNotConfirmed),
		retry.Limit(confirmationAttempts),
		retry.Context(ctx),
		retry.Backoff(backoff.Constant(solana.PollRate), time.Second),
	)
	if err != nil {
		return errors.Wrapf(err, "transaction %s failed", sig)
	}
	return nil
}
