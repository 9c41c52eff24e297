package cli

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kharcha/internal/config"
	"kharcha/internal/log"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: log.FormatJSON}, log.ComponentWorker)
	assert.Equal(t, log.ComponentWorker, logger.Component())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}

func TestRunCleanup(t *testing.T) {
	logger := log.New(log.DefaultConfig())

	called := false
	runCleanup(logger, time.Second, func(ctx context.Context) {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		called = true
	})
	assert.True(t, called)

	start := time.Now()
	runCleanup(logger, 20*time.Millisecond, func(ctx context.Context) {
		<-ctx.Done()
		time.Sleep(500 * time.Millisecond)
	})
	assert.Less(t, time.Since(start), 400*time.Millisecond, "a slow cleanup does not hold shutdown past the timeout")

	assert.NotPanics(t, func() { runCleanup(logger, time.Second, nil) })
}
