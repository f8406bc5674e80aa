package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	logger := zap.New(core).With(zap.String("component", "engine"))

	logger.Info("stock moved")
	logger.Warn("failed to publish domain events")

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))
	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "failed to publish domain events", entries[0].Message)
		assert.Equal(t, "engine", entries[0].ContextMap()["component"])
	}
}
