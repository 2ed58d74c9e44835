package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	logger, err := New("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = New("warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New("chatty")
	assert.Error(t, err)

	_, err = NewConsole("chatty")
	assert.Error(t, err)
}

func TestNewConsole(t *testing.T) {
	logger, err := NewConsole("warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNamedNil(t *testing.T) {
	assert.NotNil(t, Named(nil, "mcp"))
}
