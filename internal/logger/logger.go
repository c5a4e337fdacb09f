package logger

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// DefaultPath is the log file path, relative to the working directory.
const DefaultPath = "logs/flex.txt"

// Logger stores log lines in memory and appends them to a file on disk. It is an io.Writer
// so it can sit under a slog handler; writes are split on newlines and a trailing partial
// line is held until it is completed.
type Logger struct {
	mu      sync.Mutex
	path    string
	lines   []string
	partial []byte
}

// New returns a Logger appending to path and ensures its directory exists. An empty path
// keeps lines in memory only.
func New(path string) *Logger {
	if path != "" {
		_ = os.MkdirAll(filepath.Dir(path), 0755)
	}
	return &Logger{path: path}
}

// Write implements io.Writer.
func (l *Logger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.partial = append(l.partial, p...)
	var done []string
	for {
		i := bytes.IndexByte(l.partial, '\n')
		if i < 0 {
			break
		}
		done = append(done, string(l.partial[:i]))
		l.partial = l.partial[i+1:]
	}
	if len(done) == 0 {
		return len(p), nil
	}
	l.lines = append(l.lines, done...)
	if l.path == "" {
		return len(p), nil
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return len(p), nil
	}
	for _, line := range done {
		_, _ = f.WriteString(line + "\n")
	}
	_ = f.Close()
	return len(p), nil
}

// Log appends one line.
func (l *Logger) Log(line string) {
	_, _ = l.Write([]byte(line + "\n"))
}

// Lines returns a copy of all completed lines.
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Slog returns a text-format slog.Logger writing to l and, when echo is non-nil, to echo too.
func (l *Logger) Slog(level slog.Level, echo io.Writer) *slog.Logger {
	var w io.Writer = l
	if echo != nil {
		w = io.MultiWriter(l, echo)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
