package metrics

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// TraceMethodCall traces a method call with a given struct/package and method
// names. The returned tracer is nil, and safe to use, when ctx carries no
// New Relic transaction.
func TraceMethodCall(ctx context.Context, structOrPackageName, methodName string) *MethodTracer {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return nil
	}

	return &MethodTracer{
		txn:   txn,
		seg:   txn.StartSegment(structOrPackageName + " " + methodName),
		start: time.Now(),
	}
}

// MethodTracer collects analytics for a given method call within an existing
// trace.
type MethodTracer struct {
	txn   *newrelic.Transaction
	seg   *newrelic.Segment
	start time.Time
}

// AddAttribute adds a key-value pair metadata to the method trace
func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t == nil {
		return
	}

	t.seg.AddAttribute(key, value)
}

// AddAttributes adds a set of key-value pair metadata to the method trace
func (t *MethodTracer) AddAttributes(attributes map[string]interface{}) {
	for key, value := range attributes {
		t.AddAttribute(key, value)
	}
}

// OnError observes an error within a method trace
func (t *MethodTracer) OnError(err error) {
	if t == nil || err == nil {
		return
	}

	t.txn.NoticeError(err)
}

// End completes the trace for the method call.
func (t *MethodTracer) End() {
	if t == nil {
		return
	}

	t.seg.AddAttribute("elapsed_ms", time.Since(t.start).Milliseconds())
	t.seg.End()
}
