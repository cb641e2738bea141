// Package logging is the process-wide logger: plain text lines on stderr for
// development, one JSON object per line on stdout when a collector scrapes it.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func ParseFormat(raw string) (Format, error) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported log format %q (expected text or json)", raw)
	}
}

type Logger struct {
	format Format
	mu     sync.Mutex
	out    io.Writer
	text   *log.Logger
}

var defaultLogger = New(FormatText)

// Setup parses the configured format and installs the result as the process
// default used by the package-level helpers.
func Setup(raw string) (*Logger, error) {
	format, err := ParseFormat(raw)
	if err != nil {
		return nil, err
	}
	logger := New(format)
	defaultLogger = logger
	return logger, nil
}

func New(format Format) *Logger {
	out := io.Writer(os.Stderr)
	if format == FormatJSON {
		out = os.Stdout
	}
	return newLogger(format, out)
}

func newLogger(format Format, out io.Writer) *Logger {
	return &Logger{
		format: format,
		out:    out,
		text:   log.New(out, "", log.LstdFlags),
	}
}

func Infof(format string, args ...any) { defaultLogger.logf("info", format, args...) }

func Errorf(format string, args ...any) { defaultLogger.logf("error", format, args...) }

func Fatalf(format string, args ...any) {
	defaultLogger.logf("error", format, args...)
	os.Exit(1)
}

func (l *Logger) Infof(format string, args ...any) { l.logf("info", format, args...) }

func (l *Logger) Errorf(format string, args ...any) { l.logf("error", format, args...) }

func (l *Logger) logf(level, format string, args ...any) {
	if l == nil {
		return
	}
	message := fmt.Sprintf(format, args...)
	if l.format == FormatText {
		l.text.Printf("%-5s %s", strings.ToUpper(level), message)
		return
	}

	line := map[string]any{
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"level":   level,
		"msg":     message,
		"service": "partvault",
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	enc := json.NewEncoder(l.out)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(line)
}
