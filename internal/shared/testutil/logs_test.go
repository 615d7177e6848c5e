package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferedSlogHandler(t *testing.T) {
	logger, h := NewTestLogger(t)

	logger.With(slog.String("component", "pipeline")).Info("stage complete", slog.Int("rows", 3))
	logger.Error("stage failed")

	assert.Equal(t, 2, h.Count())
	assert.True(t, h.ContainsMessage("stage complete"))
	assert.True(t, h.ContainsAttr("component", "pipeline"))
	assert.True(t, h.ContainsAttr("rows", int64(3)))
	assert.Len(t, h.RecordsByLevel(slog.LevelError), 1)
	AssertLogContains(t, h, slog.LevelError, "failed")
}
