package logger_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/logger"
)

type requestIDKey struct{}

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithJSONFormatter(),
		logger.WithOutput(&buf),
		logger.WithAttr(slog.String("service", "portal")),
	)

	log.Info("session armed", logger.Component("idle"), logger.Audience("admin"))

	out := buf.String()
	assert.Contains(t, out, `"msg":"session armed"`)
	assert.Contains(t, out, `"component":"idle"`)
	assert.Contains(t, out, `"audience":"admin"`)
	assert.Contains(t, out, `"service":"portal"`)
}

func TestNew_Level(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelWarn))

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_Development(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithDevelopment("portal"), logger.WithOutput(&buf))
	log.Debug("debug line")

	assert.Contains(t, buf.String(), "debug line")
	assert.Contains(t, buf.String(), "env=development")
}

func TestNew_ContextValue(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithJSONFormatter(),
		logger.WithOutput(&buf),
		logger.WithContextValue(requestIDKey{}, "request_id"),
	)

	ctx := context.WithValue(context.Background(), requestIDKey{}, "req-1")
	log.InfoContext(ctx, "with id")
	log.With(slog.String("k", "v")).InfoContext(context.Background(), "without id")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), `"request_id":"req-1"`)
	assert.NotContains(t, string(lines[1]), "request_id")
	assert.Contains(t, string(lines[1]), `"k":"v"`)
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() {
		logger.Discard().Error("dropped", logger.Error(errors.New("boom")))
	})
}

func TestAttrs_NilSafe(t *testing.T) {
	t.Parallel()

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	assert.True(t, logger.Errors(nil, nil).Equal(slog.Attr{}))
	assert.True(t, logger.Audience("").Equal(slog.Attr{}))
	assert.True(t, logger.Role("").Equal(slog.Attr{}))
	assert.True(t, logger.RequestID("").Equal(slog.Attr{}))
	assert.True(t, logger.Key("k", nil).Equal(slog.Attr{}))
}

func TestAttrs_Values(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	assert.Equal(t, err, logger.Error(err).Value.Any())

	errs := logger.Errors(nil, err)
	require.Equal(t, "errors", errs.Key)
	g := errs.Value.Group()
	require.Len(t, g, 1)
	assert.Equal(t, "1", g[0].Key)

	assert.Equal(t, int64(401), logger.StatusCode(401).Value.Int64())
	assert.Equal(t, 2*time.Minute, logger.Idle(2*time.Minute).Value.Duration())
	assert.Equal(t, "attempt", logger.Attempt(2).Key)
	assert.Equal(t, "admin", logger.Role("admin").Value.String())

	grp := logger.Group("req", logger.Method("POST"), logger.Path("auth/login"))
	assert.Equal(t, slog.KindGroup, grp.Value.Kind())
}
