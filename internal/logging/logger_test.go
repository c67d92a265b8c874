package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "quiz-studio", "production", "warn")

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "app=quiz-studio")
}

func TestNewWithWriter_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "quiz-studio", "production", "loud")

	logger.Debug().Msg("debug line")
	logger.Info().Msg("info line")

	assert.NotContains(t, buf.String(), "debug line")
	assert.Contains(t, buf.String(), "info line")
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "quiz-studio", "production", "info")

	ctx := IntoContext(context.Background(), logger)
	stored := FromContext(ctx)
	stored.Info().Msg("from context")
	assert.Contains(t, buf.String(), "from context")

	// no logger stored: writes nowhere
	missing := FromContext(context.Background())
	missing.Info().Msg("dropped")
	assert.NotContains(t, buf.String(), "dropped")
}
