package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNoopWithoutApplication(t *testing.T) {
	ctx := NewContext(context.Background(), nil)
	assert.Nil(t, ctx.Value(NewRelicContextKey))

	ctx, end := StartTransaction(ctx, "test")
	defer end()

	tracer := TraceMethodCall(ctx, "governor", "Test")
	assert.Nil(t, tracer)

	// a nil tracer is safe to use
	tracer.AddAttribute("key", "value")
	tracer.AddAttributes(map[string]interface{}{"key": "value"})
	tracer.OnError(errors.New("error"))
	tracer.End()

	RecordCount(ctx, "count", 1)
	RecordDuration(ctx, "duration", time.Second)
	RecordEvent(ctx, "event", map[string]interface{}{"key": "value"})
}

func TestNewRelicMessage(t *testing.T) {
	logger := logrus.New()

	e := logrus.NewEntry(logger)
	e.Message = "plain"
	assert.Equal(t, "plain", newRelicMessage(e))

	e = logger.WithField("proposal", "abc").WithError(errors.New("boom"))
	e.Message = "failed"
	assert.Equal(t, `message="failed", error="boom", data={"proposal":"abc"}`, newRelicMessage(e))
}
