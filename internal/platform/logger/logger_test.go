// Package logger_test contains tests for the logger package
package logger_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esther-anierobi/bookIT/internal/config"
	"github.com/esther-anierobi/bookIT/internal/platform/logger"
)

func TestSetupLogLevels(t *testing.T) {
	// No t.Parallel(): Setup installs the process default logger.
	cases := []struct {
		name          string
		configLevel   string
		enabledAt     slog.Level
		disabledBelow bool
	}{
		{name: "debug level", configLevel: "debug", enabledAt: slog.LevelDebug},
		{name: "info level", configLevel: "info", enabledAt: slog.LevelInfo},
		{name: "warn level", configLevel: "warn", enabledAt: slog.LevelWarn},
		{name: "error level", configLevel: "error", enabledAt: slog.LevelError},
		{name: "uppercase is accepted", configLevel: "DEBUG", enabledAt: slog.LevelDebug},
		{name: "invalid level falls back to info", configLevel: "verbose", enabledAt: slog.LevelInfo},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log, err := logger.Setup(config.ServerConfig{LogLevel: tc.configLevel})
			require.NoError(t, err)
			require.NotNil(t, log)

			ctx := context.Background()
			assert.True(t, log.Enabled(ctx, tc.enabledAt),
				"logger should be enabled at %v", tc.enabledAt)
			if tc.enabledAt > slog.LevelDebug {
				assert.False(t, log.Enabled(ctx, tc.enabledAt-4),
					"logger should not be enabled below the configured level")
			}
		})
	}
}

func TestSetupInstallsDefault(t *testing.T) {
	log, err := logger.Setup(config.ServerConfig{LogLevel: "warn"})
	require.NoError(t, err)

	assert.Equal(t, log.Handler(), slog.Default().Handler(),
		"Setup should install the returned logger as the process default")
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := logger.WithLogger(context.Background(), custom)

	assert.Same(t, custom, logger.FromContext(ctx))
	assert.NotNil(t, logger.FromContext(context.Background()),
		"bare context should yield the default logger")
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := logger.WithLogger(context.Background(), custom)
	assert.Same(t, custom, logger.FromContextOrDefault(ctx, fallback),
		"context logger wins over the fallback")

	assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback),
		"fallback is used when the context carries no logger")

	assert.NotNil(t, logger.FromContextOrDefault(context.Background(), nil),
		"nil fallback still yields a usable logger")
}
