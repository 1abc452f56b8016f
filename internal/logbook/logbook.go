// Package logbook keeps the user-facing journal of clone operations. Each
// entry is one timestamped, leveled line; the TUI shows the tail.
package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logbook appends journal lines to a text file.
type Logbook struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// New creates a logbook that writes to the provided path.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure dir: %w", err)
	}
	return &Logbook{path: path, now: time.Now}, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes a single entry. Multi-line messages are folded onto one
// line so Tail counts stay meaningful.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	message = strings.Join(strings.Fields(message), " ")
	line := fmt.Sprintf("%s %-5s %s\n",
		l.now().UTC().Format(time.RFC3339),
		string(level),
		message,
	)
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(line)
}

// Tail returns up to maxLines of the most recent entries and the total
// number of entries in the file.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	ring := make([]string, 0, maxLines)
	total := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(ring) == maxLines {
			ring = append(ring[1:], scanner.Text())
		} else {
			ring = append(ring, scanner.Text())
		}
		total++
	}
	if total == 0 {
		return nil, 0
	}
	return ring, total
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}
