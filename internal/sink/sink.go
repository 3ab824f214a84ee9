package sink

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/nestor-bot/nestor/internal/model"
)

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("sink closed")

// Sink owns the archive directory and one open file per channel. File
// handles stay open for the lifetime of the process.
type Sink struct {
	dir    string
	logger *slog.Logger

	mu     sync.Mutex
	files  map[string]*os.File
	closed bool
	stats  Stats
}

// Stats provides statistics about the sink.
type Stats struct {
	FilesOpen int
	Appends   int64
	Bytes     int64
}

// New creates the archive directory if needed and returns a sink writing
// into it.
func New(dir string, logger *slog.Logger) (*Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	return &Sink{
		dir:    dir,
		logger: logger,
		files:  make(map[string]*os.File),
	}, nil
}

// Append writes the event to the channel's log file as one JSON line. Any
// error here means events are being lost; callers treat it as fatal.
func (s *Sink) Append(channel string, ev model.Event) error {
	line, err := ev.Encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	f, err := s.file(channel)
	if err != nil {
		return err
	}

	n, err := f.Write(line)
	if err != nil {
		return fmt.Errorf("append to %s: %w", f.Name(), err)
	}

	s.stats.Appends++
	s.stats.Bytes += int64(n)
	return nil
}

// file returns the channel's open handle, opening it on first use.
// Callers hold s.mu.
func (s *Sink) file(channel string) (*os.File, error) {
	if f, ok := s.files[channel]; ok {
		return f, nil
	}

	path := filepath.Join(s.dir, Filename(channel))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s.files[channel] = f
	s.stats.FilesOpen = len(s.files)
	s.logger.Info("opened channel log", "channel", channel, "path", path)
	return f, nil
}

// Stats returns current statistics.
func (s *Sink) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close closes all open files. The sink rejects appends afterwards.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	for channel, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", channel, err)
		}
	}
	return firstErr
}

// Filename maps a channel name to the file it is archived in. Names are
// NFKC-normalized so visually identical channel names land in the same
// file; path separators and control characters never reach the filesystem.
func Filename(channel string) string {
	channel = norm.NFKC.String(channel)

	var b strings.Builder
	for _, r := range channel {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune('_')
		case unicode.IsControl(r):
			// drop
		default:
			b.WriteRune(r)
		}
	}

	name := strings.TrimLeft(b.String(), ".")
	if name == "" {
		name = "channel"
	}
	return name + ".log"
}
