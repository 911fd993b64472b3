// Package lawalog builds a structured logger. pkg/pali, pkg/sama and the
// commands in cmd/ do not call it. It always logs human-readable text to stderr and, when a trace file is
// configured, fans the same records out to a JSON file too, using
// samber/slog-multi the way its own README demonstrates fanning a single
// logger out to multiple handlers.
package lawalog

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// New returns a logger writing human-readable text to stderr. If
// traceFile is non-nil, every record is additionally written to it as
// JSON, alongside the terminal output. No CLI flag exposes a trace file.
func New(traceFile io.Writer) *slog.Logger {
	textHandler := slog.NewTextHandler(os.Stderr, nil)

	if traceFile == nil {
		return slog.New(textHandler)
	}

	jsonHandler := slog.NewJSONHandler(traceFile, nil)
	return slog.New(slogmulti.Fanout(textHandler, jsonHandler))
}
