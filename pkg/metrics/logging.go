package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
)

// CustomNewRelicContextLogFormatter is a logrus.Formatter that forwards logs to
// New Relic, including every logrus.Entry field in the forwarded message.
//
// Based off of: https://github.com/newrelic/go-agent/blob/f1942e10f0819e2c854d5d7289eb0dc1c52a00af/v3/integrations/logcontext-v2/nrlogrus/formatter.go
type CustomNewRelicContextLogFormatter struct {
	app       *newrelic.Application
	formatter logrus.Formatter
}

func NewCustomNewRelicLogFormatter(app *newrelic.Application, formatter logrus.Formatter) CustomNewRelicContextLogFormatter {
	return CustomNewRelicContextLogFormatter{
		app:       app,
		formatter: formatter,
	}
}

func (f CustomNewRelicContextLogFormatter) Format(e *logrus.Entry) ([]byte, error) {
	logData := newrelic.LogData{
		Severity: e.Level.String(),
		Message:  newRelicMessage(e),
	}

	logBytes, err := f.formatter.Format(e)
	if err != nil {
		return nil, err
	}
	b := bytes.NewBuffer(bytes.TrimRight(logBytes, "\n"))

	var txn *newrelic.Transaction
	if e.Context != nil {
		txn = newrelic.FromContext(e.Context)
	}

	if txn != nil {
		txn.RecordLog(logData)
		err = newrelic.EnrichLog(b, newrelic.FromTxn(txn))
	} else {
		f.app.RecordLog(logData)
		err = newrelic.EnrichLog(b, newrelic.FromApp(f.app))
	}
	if err != nil {
		return nil, err
	}

	b.WriteString("\n")
	return b.Bytes(), nil
}

func newRelicMessage(e *logrus.Entry) string {
	if len(e.Data) == 0 {
		return e.Message
	}

	errorString := "<nil>"
	extraData := make(map[string]interface{}, len(e.Data))
	for k, v := range e.Data {
		if k != logrus.ErrorKey {
			extraData[k] = v
			continue
		}

		if typed, ok := v.(error); ok {
			errorString = fmt.Sprintf("%q", typed.Error())
		}
	}

	encoded, err := json.Marshal(extraData)
	if err != nil {
		return e.Message
	}
	return fmt.Sprintf("message=%q, error=%s, data=%s", e.Message, errorString, encoded)
}
