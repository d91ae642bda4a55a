package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type failingHandler struct {
	slog.Handler
}

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("destination down")
}

func TestFanout(t *testing.T) {
	t.Parallel()

	t.Run("writes to every enabled handler", func(t *testing.T) {
		t.Parallel()

		var info, errs bytes.Buffer
		h := fanout{
			slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
			slog.NewTextHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
		}
		log := slog.New(h).With("store", "svc.Get")

		log.Info("hit")
		require.Contains(t, info.String(), "store=svc.Get")
		require.Zero(t, errs.Len())

		log.Error("load failed")
		require.Contains(t, errs.String(), "load failed")

		require.False(t, h.Enabled(context.Background(), slog.LevelDebug))
		require.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	})

	t.Run("keeps going after a failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		ok := slog.NewTextHandler(&buf, nil)
		h := fanout{failingHandler{Handler: ok}, ok}

		err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0))
		require.Error(t, err)
		require.Contains(t, buf.String(), "msg")
	})
}

func TestLevelsFrom(t *testing.T) {
	t.Parallel()

	require.Equal(t, []slog.Level{slog.LevelWarn, slog.LevelError}, levelsFrom(slog.LevelWarn))
	require.Equal(t, []slog.Level{slog.LevelError}, levelsFrom(slog.LevelError+4))
	require.Len(t, levelsFrom(slog.LevelDebug), 4)
}

func TestWithExtractors_NoExtractors(t *testing.T) {
	t.Parallel()

	base := slog.NewTextHandler(&bytes.Buffer{}, nil)
	require.Same(t, base, withExtractors(base, []ContextExtractor{nil}))
}
