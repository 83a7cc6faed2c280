package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestGet_BeforeInit(t *testing.T) {
	Logger = nil
	assert.NotNil(t, Get())
	assert.NotNil(t, ForRun("run-1"))
}

func TestInit(t *testing.T) {
	t.Cleanup(func() { Logger = nil })

	require.NoError(t, Init("production", false))
	assert.False(t, Get().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init("development", true))
	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))
	Sync()
}
