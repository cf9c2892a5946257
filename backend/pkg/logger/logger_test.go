package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestBuildConfig(t *testing.T) {
	prod, err := buildConfig(Options{Env: "production"})
	require.NoError(t, err)
	assert.Equal(t, "json", prod.Encoding)
	assert.Equal(t, zapcore.InfoLevel, prod.Level.Level())

	dev, err := buildConfig(Options{Env: "development"})
	require.NoError(t, err)
	assert.Equal(t, "console", dev.Encoding)
	assert.Equal(t, zapcore.DebugLevel, dev.Level.Level())
	assert.Equal(t, "timestamp", dev.EncoderConfig.TimeKey)

	quiet, err := buildConfig(Options{Env: "production", Level: "warn"})
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, quiet.Level.Level())
}

func TestBuildConfig_BadLevel(t *testing.T) {
	_, err := buildConfig(Options{Level: "loud"})
	require.Error(t, err)
}

func TestInit(t *testing.T) {
	require.NoError(t, Init(Options{Env: "production", Service: "loremaster"}))
	assert.True(t, Get().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, Get().Core().Enabled(zapcore.DebugLevel))
	assert.NotNil(t, Named("repository.world"))
}
