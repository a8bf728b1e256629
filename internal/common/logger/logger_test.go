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

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New(tt.level, "json")
			assert.True(t, l.Core().Enabled(tt.expected))
			if tt.expected > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.expected-1))
			}
		})
	}
}

func TestZapAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"taskType": "classify-incident"})

	log.Info("classified", map[string]interface{}{"category": "Database"})
	log.WithError(errors.New("boom")).Error("failed", map[string]interface{}{"cause": errors.New("db down")})

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "classify-incident", entries[0].ContextMap()["taskType"])
	assert.Equal(t, "Database", entries[0].ContextMap()["category"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
	assert.Equal(t, "db down", entries[1].ContextMap()["cause"])
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	assert.NotPanics(t, func() {
		log.With(map[string]interface{}{"k": "v"}).Warn("ignored", nil)
	})
}
