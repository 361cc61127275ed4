// Package logging sets up the structured logger shared by the cmd/novaprova
// CLI and its subcommands. It fans a single log/slog.Logger out to one or
// more handlers via slog-multi, the way a server component would fan
// structured records out to both a console and a collector — here the two
// sinks are a human-readable console handler and, optionally, the syslog
// classifier facade, so a run's own diagnostics can be exercised by the
// same disposition rules as the logs it's introspecting.
package logging

import (
	"context"
	"io"
	"log/slog"
	"log/syslog"
	"os"

	slogmulti "github.com/samber/slog-multi"

	"github.com/gregbanks/novaprova/pkg/syslogfacade"
)

var defaultWriter io.Writer = os.Stderr

// Options configures New. A zero Options gives a plain text logger on
// stderr at Info level.
type Options struct {
	// Writer is the console sink. Defaults to os.Stderr when nil.
	Writer io.Writer
	// Level is the minimum level the console sink emits.
	Level slog.Level
	// Facade, when non-nil, receives every record as well, routed through
	// its classifier rules (see facadeHandler).
	Facade *syslogfacade.Facade
}

// New builds the fan-out logger described by opts.
func New(opts Options) *slog.Logger {
	var handlers []slog.Handler
	handlers = append(handlers, slog.NewTextHandler(opts.writer(), &slog.HandlerOptions{
		Level: opts.Level,
	}))

	if opts.Facade != nil {
		handlers = append(handlers, &facadeHandler{facade: opts.Facade, level: opts.Level})
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0])
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

func (o Options) writer() io.Writer {
	if o.Writer != nil {
		return o.Writer
	}
	return defaultWriter
}

// facadeHandler adapts slog.Record into syslogfacade.Facade.Log calls, so a
// Facade's fail/ignore/match rules can classify the CLI's own log output
// the same way they'd classify any other program's syslog traffic.
type facadeHandler struct {
	facade *syslogfacade.Facade
	level  slog.Level
	attrs  []slog.Attr
}

func (h *facadeHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *facadeHandler) Handle(_ context.Context, r slog.Record) error {
	priority := levelToPriority(r.Level)
	h.facade.Log(priority, "%s", r.Message)
	return nil
}

func (h *facadeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *facadeHandler) WithGroup(string) slog.Handler {
	return h
}

// levelToPriority maps slog's four standard levels onto the log/syslog
// priorities the facade's priority-name table knows about.
func levelToPriority(level slog.Level) syslog.Priority {
	switch {
	case level >= slog.LevelError:
		return syslog.LOG_ERR
	case level >= slog.LevelWarn:
		return syslog.LOG_WARNING
	case level >= slog.LevelInfo:
		return syslog.LOG_INFO
	default:
		return syslog.LOG_DEBUG
	}
}
