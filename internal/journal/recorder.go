// Package journal persists rendered failures off the request path.
//
// The boundary hands each failure to Recorder.Record, which never blocks:
// events go into a bounded buffer drained by Run in small batches, and are
// dropped (and counted) when the buffer is full. Run also prunes events
// older than the configured retention.
package journal

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-gateway-errors/internal/domain"
	"github.com/tbourn/go-gateway-errors/internal/repo"
)

const (
	maxBatch          = 64
	writeTimeout      = 5 * time.Second
	defaultPruneEvery = time.Hour
)

var journalEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gateway_error_journal_events_total",
		Help: "Error journal events by result (written, dropped, failed).",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(journalEvents)
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the recorder's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Recorder) { r.log = l.With().Str("component", "journal").Logger() }
}

// WithRetention prunes events older than d. Zero disables pruning.
func WithRetention(d time.Duration) Option {
	return func(r *Recorder) { r.retention = d }
}

// Recorder buffers events and writes them from a single goroutine.
type Recorder struct {
	db         *gorm.DB
	log        zerolog.Logger
	events     chan domain.ErrorEvent
	retention  time.Duration
	pruneEvery time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewRecorder returns a Recorder holding up to buffer pending events.
func NewRecorder(db *gorm.DB, buffer int, opts ...Option) *Recorder {
	if buffer < 1 {
		buffer = 1
	}
	r := &Recorder{
		db:         db,
		log:        log.With().Str("component", "journal").Logger(),
		events:     make(chan domain.ErrorEvent, buffer),
		pruneEvery: defaultPruneEvery,
		done:       make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Record queues ev and reports whether it was accepted. It never blocks:
// a full buffer or a closed recorder drops the event.
func (r *Recorder) Record(ev domain.ErrorEvent) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		journalEvents.WithLabelValues("dropped").Inc()
		return false
	}
	select {
	case r.events <- ev:
		return true
	default:
		journalEvents.WithLabelValues("dropped").Inc()
		return false
	}
}

// Run writes queued events until ctx is cancelled or Close has been called
// and the buffer is drained.
func (r *Recorder) Run(ctx context.Context) {
	defer close(r.done)

	tick := time.NewTicker(r.pruneEvery)
	defer tick.Stop()

	batch := make([]domain.ErrorEvent, 0, maxBatch)
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			r.prune(ctx)
		case ev, ok := <-r.events:
			if !ok {
				return
			}
			batch = append(batch[:0], ev)
			open := r.fill(&batch)
			r.flush(ctx, batch)
			if !open {
				return
			}
		}
	}
}

// fill moves already-queued events into batch without waiting. It reports
// false once the channel is closed.
func (r *Recorder) fill(batch *[]domain.ErrorEvent) bool {
	for len(*batch) < maxBatch {
		select {
		case ev, ok := <-r.events:
			if !ok {
				return false
			}
			*batch = append(*batch, ev)
		default:
			return true
		}
	}
	return true
}

func (r *Recorder) flush(ctx context.Context, batch []domain.ErrorEvent) {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := repo.CreateEvents(wctx, r.db, batch); err != nil {
		journalEvents.WithLabelValues("failed").Add(float64(len(batch)))
		r.log.Error().Err(err).Int("events", len(batch)).Msg("journal write failed")
		return
	}
	journalEvents.WithLabelValues("written").Add(float64(len(batch)))
}

func (r *Recorder) prune(ctx context.Context) {
	if r.retention <= 0 {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	n, err := repo.PruneBefore(wctx, r.db, time.Now().UTC().Add(-r.retention))
	if err != nil {
		r.log.Error().Err(err).Msg("journal prune failed")
		return
	}
	if n > 0 {
		r.log.Info().Int64("deleted", n).Msg("journal pruned")
	}
}

// Close stops accepting events. Run drains what is queued and returns.
// Close is idempotent.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	close(r.events)
}

// Done is closed when Run returns.
func (r *Recorder) Done() <-chan struct{} { return r.done }
