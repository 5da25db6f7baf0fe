package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigFromStrings(t *testing.T) {
	cfg := ConfigFromStrings("DEBUG", "text")
	assert.Equal(t, DebugLevel, cfg.Level)
	assert.True(t, cfg.Pretty)
	assert.False(t, ConfigFromStrings("info", "json").Pretty)
}

func TestFromContext(t *testing.T) {
	var global, scoped bytes.Buffer
	Configure(Config{Level: InfoLevel, Output: &global})

	FromContext(context.Background()).Info().Msg("global")
	assert.Contains(t, global.String(), `"message":"global"`)

	l := Get().Output(&scoped).With().Str("request_id", "r-1").Logger()
	ctx := l.WithContext(context.Background())
	FromContext(ctx).Info().Msg("scoped")
	assert.Contains(t, scoped.String(), `"request_id":"r-1"`)
	assert.NotContains(t, global.String(), "scoped")
}
