package log_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"kbedit/internal/log"
)

func TestSet(t *testing.T) {
	require.NoError(t, log.Set("warn"))
	assert.False(t, log.Get().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Get().Core().Enabled(zapcore.WarnLevel))

	assert.Error(t, log.Set("chatty"))
}
