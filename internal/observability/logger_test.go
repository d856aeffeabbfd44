package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger("not-a-level")
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	require.True(t, logger.Core().Enabled(zapcore.InfoLevel))

	logger, err = NewLogger("")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestLoggerContextRoundTrip(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))

	logger := zap.NewExample()
	ctx := WithLogger(context.Background(), logger)
	require.Same(t, logger, FromContext(ctx))

	ctx = WithLogger(context.Background(), nil)
	require.NotNil(t, FromContext(ctx))
	require.NotNil(t, OrNop(nil))
}

func TestSpanHelpersAreSafeWithoutSDK(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test", "op")
	require.NotNil(t, ctx)
	EndSpan(span, errors.New("boom"))
	EndSpan(nil, nil)
}
