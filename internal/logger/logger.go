package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"
)

// New builds the process logger.
// Production-like environments get JSON for log aggregation, local runs get colored text.
// Both are wrapped so records carry trace_id/span_id when a span is active.
func New(env, level string) *slog.Logger {
	_, inK8s := os.LookupEnv("KUBERNETES_SERVICE_HOST")
	useJSON := inK8s || env == "prod" || env == "production" || env == "dev"

	return slog.New(newTraceContextHandler(newHandler(os.Stdout, useJSON, parseLevel(level, useJSON))))
}

// NewWithServiceContext adds service, version and environment attributes to every record.
func NewWithServiceContext(serviceName, version, env, level string) *slog.Logger {
	return New(env, level).With(
		slog.String("service", serviceName),
		slog.String("version", version),
		slog.String("environment", env),
	)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHandler(w io.Writer, useJSON bool, level slog.Level) slog.Handler {
	if useJSON {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		})
	}
	return newColorTextHandler(w, &slog.HandlerOptions{Level: level})
}

func parseLevel(level string, useJSON bool) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if useJSON {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// colorTextHandler paints ERROR lines red. The text handler quotes messages
// holding control characters, so the escape codes wrap the formatted line
// instead of the message.
type colorTextHandler struct {
	handler slog.Handler
	buf     *bytes.Buffer
	mu      *sync.Mutex
	out     io.Writer
}

func newColorTextHandler(w io.Writer, opts *slog.HandlerOptions) *colorTextHandler {
	buf := &bytes.Buffer{}
	return &colorTextHandler{
		handler: slog.NewTextHandler(buf, opts),
		buf:     buf,
		mu:      &sync.Mutex{},
		out:     w,
	}
}

func (h *colorTextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *colorTextHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.handler.Handle(ctx, r); err != nil {
		return err
	}

	line := h.buf.Bytes()
	if r.Level >= slog.LevelError {
		line = append(append([]byte(colorRed), bytes.TrimSuffix(line, []byte("\n"))...), colorReset+"\n"...)
	}
	_, err := h.out.Write(line)
	return err
}

func (h *colorTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &colorTextHandler{handler: h.handler.WithAttrs(attrs), buf: h.buf, mu: h.mu, out: h.out}
}

func (h *colorTextHandler) WithGroup(name string) slog.Handler {
	return &colorTextHandler{handler: h.handler.WithGroup(name), buf: h.buf, mu: h.mu, out: h.out}
}

const (
	colorRed   = "\x1b[31m"
	colorReset = "\x1b[0m"
)

type traceContextHandler struct {
	handler slog.Handler
}

func newTraceContextHandler(h slog.Handler) *traceContextHandler {
	return &traceContextHandler{handler: h}
}

func (h *traceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *traceContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return h.handler.Handle(ctx, r)
}

func (h *traceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceContextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *traceContextHandler) WithGroup(name string) slog.Handler {
	return &traceContextHandler{handler: h.handler.WithGroup(name)}
}
