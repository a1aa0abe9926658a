// internal/common/logger/logger_test.go
package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"":      zapcore.InfoLevel,
		"loud":  zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestWrapper_FieldsAreSortedAndInherited(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"taskType": "score-risk"})

	log.WithError(errors.New("boom")).Info("processing job", map[string]interface{}{
		"workflowKey": int64(2),
		"jobKey":      int64(1),
	})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		e := entries[0]
		assert.Equal(t, "processing job", e.Message)
		ctx := e.ContextMap()
		assert.Equal(t, "score-risk", ctx["taskType"])
		assert.Equal(t, "boom", ctx["error"])
		assert.Equal(t, int64(1), ctx["jobKey"])

		var keys []string
		for _, f := range e.Context {
			keys = append(keys, f.Key)
		}
		assert.Equal(t, []string{"taskType", "error", "jobKey", "workflowKey"}, keys)
	}
}

func TestNewWithOptions_BadOutputFallsBack(t *testing.T) {
	l := NewWithOptions(Options{Level: "debug", Format: "json", Output: "/nonexistent/dir/app.log"})
	assert.NotNil(t, l)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNoOpAndTestLoggers(t *testing.T) {
	NewNoOpLogger().With(map[string]interface{}{"a": 1}).Warn("ignored", nil)
	NewTestLogger(t).Debug("visible in -v", map[string]interface{}{"k": "v"})
	NewStructured("warn", "console").Info("filtered", nil)
}
