package metrics

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

func applicationFromContext(ctx context.Context) (*newrelic.Application, bool) {
	app, ok := ctx.Value(NewRelicContextKey).(*newrelic.Application)
	return app, ok && app != nil
}

// RecordCount records a count metric
func RecordCount(ctx context.Context, metricName string, count uint64) {
	if app, ok := applicationFromContext(ctx); ok {
		app.RecordCustomMetric(metricName, float64(count))
	}
}

// RecordDuration records a duration metric in milliseconds
func RecordDuration(ctx context.Context, metricName string, duration time.Duration) {
	if app, ok := applicationFromContext(ctx); ok {
		app.RecordCustomMetric(metricName, float64(duration/time.Millisecond))
	}
}

// RecordEvent records a new event with a name and set of key-value pairs
func RecordEvent(ctx context.Context, eventName string, kvPairs map[string]interface{}) {
	if app, ok := applicationFromContext(ctx); ok {
		app.RecordCustomEvent(eventName, kvPairs)
	}
}
