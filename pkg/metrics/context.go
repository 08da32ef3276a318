package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

type newRelicContextKey struct{}

// NewRelicContextKey is the context key holding the *newrelic.Application used
// to record custom events and metrics
var NewRelicContextKey = newRelicContextKey{}

// NewContext returns a context carrying app. A nil app leaves ctx unchanged,
// which makes every recording function in this package a no-op.
func NewContext(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}
	return context.WithValue(ctx, NewRelicContextKey, app)
}

// StartTransaction starts a New Relic transaction for a unit of work, such as
// a single CLI command, so that method calls within it can be traced. The
// returned function ends the transaction.
func StartTransaction(ctx context.Context, name string) (context.Context, func()) {
	app, ok := applicationFromContext(ctx)
	if !ok {
		return ctx, func() {}
	}

	txn := app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), txn.End
}
