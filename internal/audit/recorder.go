// Package audit records one row per API request on an append-only log.
// Writes run on a detached worker so a slow or failing audit store never
// blocks or fails the request that produced the entry; drops are counted
// on a metrics channel instead of surfacing to callers.
package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/logger"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/metrics"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/retry"
)

// Store persists audit entries. Implemented by the postgres audit
// repository.
type Store interface {
	Insert(ctx context.Context, entry *domain.AuditLog) error
}

const (
	defaultQueueSize    = 1024
	defaultWriteTimeout = 5 * time.Second
)

// Recorder is the asynchronous audit pipeline. Record never blocks and
// never returns an error: entries queue onto a bounded channel, a single
// worker drains them into the Store, and entries that cannot be queued
// or persisted are dropped with a counter increment.
type Recorder struct {
	store   Store
	queue   chan *domain.AuditLog
	retrier *retry.Retrier
	log     *logger.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// Option configures a Recorder.
type Option func(*options)

type options struct {
	queueSize int
}

// WithQueueSize overrides the queue capacity.
func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

// NewRecorder starts the audit worker. Call Close on shutdown to drain
// outstanding entries.
func NewRecorder(store Store, opts ...Option) *Recorder {
	o := options{queueSize: defaultQueueSize}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Recorder{
		store: store,
		queue: make(chan *domain.AuditLog, o.queueSize),
		retrier: retry.New(&retry.Config{
			MaxRetries:      2,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     time.Second,
			Multiplier:      2.0,
			JitterFactor:    0.1,
		}),
		log:  logger.Get(),
		done: make(chan struct{}),
	}
	go r.run()
	return r
}

// Record enqueues an entry. When the queue is full the entry is dropped
// and counted; audit must never apply backpressure to request handling.
func (r *Recorder) Record(entry *domain.AuditLog) {
	if entry == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		metrics.AuditDrops.Inc()
		return
	}

	select {
	case r.queue <- entry:
	default:
		metrics.AuditDrops.Inc()
		r.log.Warn("audit queue full, entry dropped",
			zap.String("method", entry.Method),
			zap.String("path", entry.Path),
		)
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for entry := range r.queue {
		r.persist(entry)
	}
}

func (r *Recorder) persist(entry *domain.AuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultWriteTimeout)
	defer cancel()

	err := r.retrier.Do(ctx, func(ctx context.Context) error {
		return r.store.Insert(ctx, entry)
	})
	if err != nil {
		metrics.AuditDrops.Inc()
		r.log.Error("audit write failed",
			zap.String("method", entry.Method),
			zap.String("path", entry.Path),
			zap.Int("status", entry.Status),
			zap.Error(err),
		)
		return
	}
	metrics.AuditWrites.Inc()
}

// Close stops accepting entries and blocks until the worker has drained
// the queue. Entries recorded after Close are dropped and counted.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}
