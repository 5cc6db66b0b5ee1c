package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"rota-go/internal/rota"
)

// rotaHandler writes one tab-separated line per record:
//
//	<timestamp>\t<level>\t<command>\t<message>\t<key=value ...>
//
// Group names prefix keys as "group.key". Lines are written whole, so
// handlers derived through WithAttrs or WithGroup can share a writer.
type rotaHandler struct {
	mu      *sync.Mutex
	w       io.Writer
	command string
	level   slog.Level
	group   string // key prefix, "" or ends in "."
	preset  string // attrs added through WithAttrs, already formatted
}

func newRotaHandler(w io.Writer, command string, level slog.Level) *rotaHandler {
	return &rotaHandler{mu: &sync.Mutex{}, w: w, command: command, level: level}
}

func (h *rotaHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }

func (h *rotaHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.UTC().Format(time.RFC3339))
	for _, field := range []string{r.Level.String(), h.command, r.Message} {
		b.WriteByte('\t')
		b.WriteString(field)
	}
	b.WriteString(h.preset)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.group, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *rotaHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	for _, a := range attrs {
		writeAttr(&b, h.group, a)
	}
	derived := *h
	derived.preset = h.preset + b.String()
	return &derived
}

func (h *rotaHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	derived := *h
	derived.group = h.group + name + "."
	return &derived
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(b, prefix, ga)
		}
		return
	}
	b.WriteByte('\t')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(formatValue(a.Value))
}

// formatValue renders times in UTC and quotes strings that would break the
// tab-separated layout.
func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	}
	s := v.String()
	if strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// newLogger appends to logDir/rota.log at info level. Verbose runs log
// debug records too and mirror every line to stderr.
func newLogger(logDir, command string, verbose bool) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(logDir, "rota.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	if !verbose {
		return slog.New(newRotaHandler(f, command, slog.LevelInfo)), f, nil
	}
	return slog.New(newRotaHandler(io.MultiWriter(f, os.Stderr), command, slog.LevelDebug)), f, nil
}

// slogAdapter satisfies rota.Logger.
type slogAdapter struct {
	l *slog.Logger
}

var _ rota.Logger = (*slogAdapter)(nil)

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }

func (a *slogAdapter) With(args ...any) rota.Logger { return &slogAdapter{l: a.l.With(args...)} }
