package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// LogEntry represents a log entry to be written to a sink.
type LogEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Level     string            `json:"level"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Sink is an interface for components that receive log entries.
type Sink interface {
	// Write queues a log entry for async processing.
	Write(entry LogEntry)
	// Flush blocks until all queued entries are written.
	Flush(ctx context.Context) error
	// Close shuts down the sink gracefully.
	Close() error
}

// FileSink is an async file log sink with buffered writes. It appends one
// JSON object per line to the run log file.
type FileSink struct {
	file         *os.File
	entryChan    chan LogEntry
	flushChan    chan chan error
	flushTicker  *time.Ticker
	batchSize    int
	flushTimeout time.Duration
	wg           sync.WaitGroup
	done         chan struct{}
	mu           sync.Mutex
	closed       bool
}

// FileSinkConfig configures a FileSink.
type FileSinkConfig struct {
	// Path is the log file path. The file is created or appended to.
	Path string
	// BufferSize is the channel capacity (default: 1000).
	BufferSize int
	// BatchSize is the max entries per batch write (default: 100).
	BatchSize int
	// FlushInterval is how often to flush buffered entries (default: 2s).
	FlushInterval time.Duration
}

// NewFileSink creates a new async file log sink.
func NewFileSink(cfg FileSinkConfig) (*FileSink, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}

	file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", cfg.Path, err)
	}

	sink := &FileSink{
		file:         file,
		entryChan:    make(chan LogEntry, cfg.BufferSize),
		flushChan:    make(chan chan error),
		flushTicker:  time.NewTicker(cfg.FlushInterval),
		batchSize:    cfg.BatchSize,
		flushTimeout: 5 * time.Second,
		done:         make(chan struct{}),
	}

	sink.wg.Add(1)
	go sink.run()

	return sink, nil
}

// Write queues a log entry for async processing.
// If the buffer is full, the entry is dropped and a warning goes to stderr.
func (s *FileSink) Write(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	select {
	case s.entryChan <- entry:
	default:
		fmt.Fprintf(os.Stderr, "[FileSink] buffer full, dropping log entry: %s\n", entry.Message)
	}
}

// Flush blocks until all queued entries are written.
func (s *FileSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	select {
	case s.flushChan <- errChan:
		select {
		case err := <-errChan:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.flushTimeout):
			return fmt.Errorf("flush timeout after %v", s.flushTimeout)
		}
	case <-time.After(100 * time.Millisecond):
		// Background goroutine is busy; it will flush on its own tick.
		return nil
	}
}

// Close shuts down the sink gracefully, draining any queued entries.
func (s *FileSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	s.flushTicker.Stop()
	s.wg.Wait()

	return s.file.Close()
}

// run is the background goroutine that batches and writes log entries.
func (s *FileSink) run() {
	defer s.wg.Done()

	batch := make([]LogEntry, 0, s.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := s.writeBatch(batch)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[FileSink] failed to write batch of %d entries: %v\n", len(batch), err)
		}
		batch = batch[:0]
		return err
	}

	drain := func() {
		flush()
		for {
			select {
			case entry := <-s.entryChan:
				batch = append(batch, entry)
				if len(batch) >= s.batchSize {
					flush()
				}
			default:
				flush()
				return
			}
		}
	}

	for {
		select {
		case entry := <-s.entryChan:
			batch = append(batch, entry)
			if len(batch) >= s.batchSize {
				flush()
			}

		case <-s.flushTicker.C:
			flush()

		case errChan := <-s.flushChan:
			errChan <- flush()

		case <-s.done:
			drain()
			return
		}
	}
}

// writeBatch appends the entries to the log file as JSON lines.
func (s *FileSink) writeBatch(entries []LogEntry) error {
	for _, entry := range entries {
		line, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling log entry: %w", err)
		}
		if _, err := s.file.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("writing log entry: %w", err)
		}
	}
	return s.file.Sync()
}
