// Package sweeper reclaims transient files that outlived the retention threshold.
package sweeper

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"docgateway/internal/config"
	"docgateway/internal/storage"
)

// Stats summarises a single sweep.
type Stats struct {
	Scanned int
	Deleted int
	Failed  int
}

// Sweeper periodically deletes transient entries older than the retention threshold.
// It holds no lock shared with request handling; deletions race harmlessly with the
// request pipeline because store deletes are idempotent.
type Sweeper struct {
	store   storage.TransientStore
	policy  config.RetentionConfig
	log     *zap.Logger
	metrics *Metrics
	now     func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// New builds a Sweeper. The policy is copied and never changes afterwards.
func New(store storage.TransientStore, policy config.RetentionConfig, log *zap.Logger, m *Metrics) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m, _ = NewMetrics(nil)
	}
	return &Sweeper{
		store:   store,
		policy:  policy,
		log:     log.Named("sweeper"),
		metrics: m,
		now:     time.Now,
		done:    make(chan struct{}),
	}
}

// Sweep performs one pass over the store. It never returns an error: a failed listing is
// treated as nothing to sweep and each entry fails on its own.
func (s *Sweeper) Sweep(ctx context.Context) Stats {
	start := time.Now()
	defer func() {
		s.metrics.runs.Inc()
		s.metrics.duration.Observe(time.Since(start).Seconds())
	}()

	var st Stats
	objs, err := s.store.List(ctx)
	if err != nil {
		s.metrics.errors.Inc()
		s.log.Warn("transient_list_failed", zap.Error(err))
		return st
	}

	maxAge := s.policy.MaxFileAge()
	now := s.now()
	for _, obj := range objs {
		st.Scanned++
		if obj.StatErr != nil {
			st.Failed++
			s.metrics.errors.Inc()
			s.log.Warn("transient_stat_failed", zap.String("file", obj.Name), zap.Error(obj.StatErr))
			continue
		}
		age := now.Sub(obj.LastModified)
		if age <= maxAge {
			continue
		}
		if err := s.store.Delete(ctx, obj.Name); err != nil {
			st.Failed++
			s.metrics.errors.Inc()
			s.log.Warn("transient_delete_failed", zap.String("file", obj.Name), zap.Error(err))
			continue
		}
		st.Deleted++
		s.metrics.deleted.Inc()
		s.log.Debug("transient_file_reclaimed", zap.String("file", obj.Name), zap.Duration("age", age))
	}

	s.metrics.current.Set(float64(st.Scanned - st.Deleted))
	if st.Deleted > 0 || st.Failed > 0 {
		s.log.Info("transient_sweep_completed",
			zap.Int("scanned", st.Scanned),
			zap.Int("deleted", st.Deleted),
			zap.Int("failed", st.Failed),
		)
	}
	return st
}

// Run sweeps once immediately and then on every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.policy.SweepInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Start launches Run in the background. Later calls are no-ops.
func (s *Sweeper) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		s.log.Info("sweeper_started",
			zap.Duration("max_file_age", s.policy.MaxFileAge()),
			zap.Duration("interval", s.policy.SweepInterval()),
		)
		go func() {
			defer close(s.done)
			s.Run(ctx)
		}()
	})
}

// Stop cancels the background loop and waits for it to exit. It is safe to call more
// than once and before Start.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		// Waits for a concurrent Start and prevents a later one.
		s.startOnce.Do(func() {})
		if s.cancel != nil {
			s.cancel()
			<-s.done
		}
		s.log.Info("sweeper_stopped")
	})
}
