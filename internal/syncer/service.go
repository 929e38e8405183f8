// Package syncer owns the progress delivery loop: it coalesces incoming
// samples, keeps them durable, and drains them to the activity sink on a
// timer, on queue pressure, and on reconnect. Nothing in this package ever
// propagates an error to a producer; playback must not be breakable by its
// own telemetry.
package syncer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/example/learning-platform/internal/delivery"
	"github.com/example/learning-platform/internal/progress"
	"github.com/example/learning-platform/internal/snapshot"
	"github.com/example/learning-platform/internal/token"
)

const (
	DefaultFlushInterval   = 30 * time.Second
	DefaultBatchThreshold  = 10
	DefaultMaxAttempts     = 3
	DefaultDeliveryTimeout = 10 * time.Second

	persistTimeout = 5 * time.Second
)

// Network is the connectivity view the scheduler consults. nil means
// "assume online".
type Network interface {
	Online() bool
	OnOnline(fn func())
}

type Config struct {
	FlushInterval   time.Duration
	BatchThreshold  int
	MaxAttempts     int
	DeliveryTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.BatchThreshold <= 0 {
		c.BatchThreshold = DefaultBatchThreshold
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = DefaultDeliveryTimeout
	}
	return c
}

// Status is the read-only diagnostics view exposed to operators.
type Status struct {
	QueueSize              int    `json:"queue_size"`
	PendingContext         int    `json:"pending_context"`
	Online                 bool   `json:"online"`
	Flushing               bool   `json:"flushing"`
	OldestPendingAgeMillis *int64 `json:"oldest_pending_age_ms,omitempty"`
}

// Service is the progress telemetry pipeline. Construct with New, then
// Start once; producers call Enqueue, teardown calls Stop.
type Service struct {
	cfg    Config
	log    *zap.Logger
	store  *progress.Store
	slot   snapshot.Slot
	sink   delivery.Sink
	tokens token.Source
	net    Network

	// flight serializes flush cycles; a trigger that loses TryLock is a
	// no-op rather than a queued second cycle.
	flight   sync.Mutex
	flushing atomic.Bool

	persistCh chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func New(cfg Config, store *progress.Store, slot snapshot.Slot, sink delivery.Sink, tokens token.Source, net Network, log *zap.Logger) *Service {
	return &Service{
		cfg:       cfg.withDefaults(),
		log:       log,
		store:     store,
		slot:      slot,
		sink:      sink,
		tokens:    tokens,
		net:       net,
		persistCh: make(chan struct{}, 1),
	}
}

// Start restores the persisted queue and launches the persistence worker
// and the periodic flush timer. The reconnect trigger is registered here so
// a long offline stretch drains as soon as connectivity returns.
func (s *Service) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	restored, err := s.slot.Load(s.ctx)
	if err != nil {
		s.log.Warn("snapshot restore failed, starting empty", zap.Error(err))
	}
	if len(restored) > 0 {
		s.store.Replace(restored)
		s.log.Info("restored pending progress updates", zap.Int("count", s.store.Size()))
	}

	if s.net != nil {
		s.net.OnOnline(s.TriggerFlush)
	}

	s.wg.Add(2)
	go s.persistLoop()
	go s.timerLoop()
}

// Stop cancels the timer and any in-flight delivery, waits for the workers,
// and writes a final synchronous snapshot so teardown never loses the queue.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.persistNow()
}

// Enqueue records the latest sample for a content item. It never blocks on
// I/O and never returns an error: durability is handed to the persistence
// worker and delivery to the next flush cycle.
func (s *Service) Enqueue(key string, sample progress.Sample, parents progress.ParentRefs, display progress.Display) {
	if s.store.Enqueue(key, sample, parents, display) {
		s.requestPersist()
	}
	if s.store.Size() >= s.cfg.BatchThreshold && !s.flushing.Load() && s.online() {
		s.TriggerFlush()
	}
}

// Flush runs one flush cycle synchronously. Safe to call at any time; if a
// cycle is already in flight this is a no-op.
func (s *Service) Flush() {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	s.flushOnce(ctx)
}

// TriggerFlush starts a flush cycle without waiting for it.
func (s *Service) TriggerFlush() {
	go s.Flush()
}

func (s *Service) Status() Status {
	st := Status{
		QueueSize:      s.store.Size(),
		PendingContext: s.store.PendingContext(),
		Online:         s.online(),
		Flushing:       s.flushing.Load(),
	}
	if ts, ok := s.store.OldestEnqueuedAt(); ok {
		age := time.Now().UnixMilli() - ts
		st.OldestPendingAgeMillis = &age
	}
	return st
}

func (s *Service) online() bool {
	return s.net == nil || s.net.Online()
}

// flushOnce is the single guarded entry point for every trigger.
// Guard order: in-flight, offline, empty queue.
func (s *Service) flushOnce(ctx context.Context) {
	if !s.flight.TryLock() {
		return
	}
	defer s.flight.Unlock()

	s.flushing.Store(true)
	defer s.flushing.Store(false)

	if !s.online() {
		return
	}
	batch := s.store.Snapshot()
	if len(batch) == 0 {
		return
	}

	var credential string
	if s.tokens != nil {
		cred, err := s.tokens.Token(ctx)
		if err != nil {
			// Precondition failure, not a delivery failure: abort without
			// touching attempt counters.
			s.log.Warn("flush aborted, credential unavailable", zap.Error(err))
			return
		}
		credential = cred
	}

	var delivered, failed []string
	skipped := 0
	for _, rec := range batch {
		if ctx.Err() != nil {
			break
		}
		if !rec.Ready() {
			// Waiting for display context; a later enqueue supplies it.
			// No attempt penalty.
			skipped++
			continue
		}
		dctx, cancel := context.WithTimeout(ctx, s.cfg.DeliveryTimeout)
		err := s.sink.Deliver(dctx, credential, rec)
		cancel()
		if err != nil {
			s.log.Debug("progress delivery failed",
				zap.String("key", rec.Key),
				zap.Int("attempts", rec.Attempts),
				zap.Error(err))
			failed = append(failed, rec.Key)
			continue
		}
		delivered = append(delivered, rec.Key)
	}

	if len(delivered) > 0 {
		s.store.Remove(delivered...)
	}
	for _, key := range failed {
		attempts, evicted := s.store.Fail(key, s.cfg.MaxAttempts)
		if evicted {
			s.log.Warn("progress update dropped after repeated delivery failures",
				zap.String("key", key),
				zap.Int("attempts", attempts))
		}
	}

	if len(delivered) > 0 || len(failed) > 0 {
		s.persistNow()
	}
	if len(delivered) > 0 || skipped > 0 {
		s.log.Debug("flush cycle finished",
			zap.Int("delivered", len(delivered)),
			zap.Int("failed", len(failed)),
			zap.Int("skipped", skipped))
	}
}

func (s *Service) timerLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.flushOnce(s.ctx)
		}
	}
}

// requestPersist asks the persistence worker for a snapshot write. The
// channel is buffered with one slot so back-to-back enqueues coalesce into
// one write instead of queueing up.
func (s *Service) requestPersist() {
	select {
	case s.persistCh <- struct{}{}:
	default:
	}
}

func (s *Service) persistLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.persistCh:
			s.persistNow()
		}
	}
}

// persistNow writes the full queue to the durable slot, clearing the slot
// when the queue is empty. Failures are logged and swallowed: best-effort
// durability beats blocking the pipeline on storage errors.
func (s *Service) persistNow() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	records := s.store.Snapshot()
	var err error
	if len(records) == 0 {
		err = s.slot.Clear(ctx)
	} else {
		err = s.slot.Save(ctx, records)
	}
	if err != nil {
		s.log.Warn("snapshot persist failed", zap.Error(err))
	}
}
