// Package activity keeps a human-readable history of the disk commands that succeeded.
package activity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/diskofflaner/diskofflaner/internal/topology"
)

const (
	// DefaultFileName is the name of the history file in the temporary directory.
	DefaultFileName = "diskofflaner_history.log"

	// timeLayout prefixes every history line.
	timeLayout = "2006-01-02 15:04:05"

	// maxSizeMB rotates the history file once it reaches this size.
	maxSizeMB = 1
	// maxBackups is the number of rotated history files kept next to the current one.
	maxBackups = 3
)

// DefaultPath returns the history file location used when none is configured.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), DefaultFileName)
}

// Log appends timestamped lines to a rotating history file.
type Log struct {
	mu   sync.Mutex
	out  *lumberjack.Logger
	now  func() time.Time
	path string
}

// Type assertion to ensure Log can record the activity of a DiskBackend.
var _ topology.ActivityRecorder = (*Log)(nil)

// New creates a Log writing to path. An empty path selects DefaultPath.
func New(path string) *Log {
	if path == "" {
		path = DefaultPath()
	}
	return &Log{
		out: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			LocalTime:  true,
		},
		now:  time.Now,
		path: path,
	}
}

// Path is the current history file.
func (l *Log) Path() string {
	return l.path
}

// Record appends message as "[YYYY-mm-dd HH:MM:SS] message".
func (l *Log) Record(message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("[%s] %s\n", l.now().Format(timeLayout), strings.TrimRight(message, "\r\n"))
	if _, err := l.out.Write([]byte(line)); err != nil {
		return fmt.Errorf("write activity log: %w", err)
	}
	return nil
}

// Read returns the lines of the current history file, oldest first. A missing file is an empty history.
func (l *Log) Read() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read activity log: %w", err)
	}

	content := strings.TrimRight(string(data), "\n")
	if content == "" {
		return []string{}, nil
	}
	return strings.Split(content, "\n"), nil
}

// Clear empties the current history file.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.out.Close(); err != nil {
		return fmt.Errorf("close activity log: %w", err)
	}
	if err := os.Truncate(l.path, 0); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear activity log: %w", err)
	}
	return nil
}

// Close releases the history file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.out.Close()
}
