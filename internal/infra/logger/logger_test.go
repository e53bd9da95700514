package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_ENCODING", "")

	cfg := ConfigFromEnv()
	assert.False(t, cfg.Development)
	assert.Equal(t, "warn", cfg.Level)
	assert.Empty(t, cfg.Encoding)
	assert.Equal(t, "shortkey", cfg.Service)

	t.Setenv("APP_ENV", "")
	cfg = ConfigFromEnv()
	assert.True(t, cfg.Development)
	assert.Equal(t, "console", cfg.Encoding)
}

func TestNew_Level(t *testing.T) {
	l, err := New(Config{Level: "ERROR"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestLevelLabel(t *testing.T) {
	assert.Equal(t, "INFO ", levelLabel(zapcore.InfoLevel, false))
	assert.Equal(t, "\x1b[33mWARN \x1b[0m", levelLabel(zapcore.WarnLevel, true))
}

func TestGlobal(t *testing.T) {
	assert.NotNil(t, L())
	assert.NotNil(t, OrNop(nil))

	l := MustInit(Config{Development: true, Level: "debug", Encoding: "console"})
	assert.Same(t, l, L())
	assert.Same(t, l, OrNop(l))
	assert.NoError(t, Sync())
}
