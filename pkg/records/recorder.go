package records

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/ladder/pkg/engine"
)

// Config contains configuration for the recorder.
type Config struct {
	// AsyncBuffer is the size of the write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// EnqueueTimeout bounds how long RecordDecision waits for buffer
	// space before dropping the record.
	// Default: 10ms
	EnqueueTimeout time.Duration

	// WriteTimeout is the timeout for writing one record to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		AsyncBuffer:    1000,
		EnqueueTimeout: 10 * time.Millisecond,
		WriteTimeout:   5 * time.Second,
	}
}

// Stats reports recorder throughput.
type Stats struct {
	Written int64
	Dropped int64
	Failed  int64
}

// Recorder writes decisions to a Store in the background.
type Recorder struct {
	store      Store
	config     *Config
	recordChan chan *Record
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger

	// mu guards closed. Senders hold the read lock so Close cannot
	// finish while a send is in flight.
	mu     sync.RWMutex
	closed bool

	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

var _ engine.DecisionRecorder = (*Recorder)(nil)

// NewRecorder creates a recorder and starts its background writer.
func NewRecorder(store Store, cfg *Config, logger *slog.Logger) *Recorder {
	config := DefaultConfig()
	if cfg != nil {
		c := *cfg
		config = &c
	}
	defaults := DefaultConfig()
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = defaults.AsyncBuffer
	}
	if config.EnqueueTimeout <= 0 {
		config.EnqueueTimeout = defaults.EnqueueTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		store:      store,
		config:     config,
		recordChan: make(chan *Record, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     logger.With("component", "records.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("evaluation recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// RecordDecision enqueues a decision for writing. It returns without
// waiting for storage; when the buffer stays full past EnqueueTimeout the
// record is dropped and counted.
func (r *Recorder) RecordDecision(d *engine.Decision) {
	if d == nil {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}

	record := NewRecord(d)

	timer := time.NewTimer(r.config.EnqueueTimeout)
	defer timer.Stop()

	select {
	case r.recordChan <- record:
	case <-timer.C:
		r.dropped.Add(1)
		r.logger.Error("record channel full, dropping record",
			"record_id", record.ID,
			"ladder", record.Ladder,
			"channel_capacity", r.config.AsyncBuffer,
		)
	}
}

// Stats returns counts of written, dropped and failed records.
func (r *Recorder) Stats() Stats {
	return Stats{
		Written: r.written.Load(),
		Dropped: r.dropped.Load(),
		Failed:  r.failed.Load(),
	}
}

// Close drains pending records and stops the background writer. It does
// not close the underlying store.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down evaluation recorder")
		r.mu.Lock()
		r.closed = true
		close(r.done)
		r.mu.Unlock()
		r.wg.Wait()

		for len(r.recordChan) > 0 {
			<-r.recordChan
			r.dropped.Add(1)
		}
		r.logger.Info("evaluation recorder shut down complete",
			"written", r.written.Load(),
			"dropped", r.dropped.Load(),
		)
	})
	return nil
}

// worker drains the record channel into storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			r.logger.Debug("draining record channel before shutdown",
				"pending_count", len(r.recordChan),
			)
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

// writeRecord writes a single record to storage.
func (r *Recorder) writeRecord(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.store.Store(ctx, record); err != nil {
		r.failed.Add(1)
		r.logger.Error("failed to store record",
			"record_id", record.ID,
			"ladder", record.Ladder,
			"error", err,
		)
		return
	}
	r.written.Add(1)

	duration := time.Since(start)
	r.logger.Debug("evaluation recorded",
		"record_id", record.ID,
		"ladder", record.Ladder,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow record write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
