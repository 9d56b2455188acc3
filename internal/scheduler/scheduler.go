package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/francisforadreport/ethvsbtc/internal/models"
	"github.com/francisforadreport/ethvsbtc/internal/store"
)

// Refresher is one schedulable data source.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RangeRefresher additionally supports an out-of-band fetch for a specific
// time range, used when the selected range changes.
type RangeRefresher interface {
	Refresher
	RefreshRange(ctx context.Context, r models.TimeRange) error
}

type task struct {
	name     string
	interval time.Duration
	source   Refresher
	inFlight atomic.Bool
}

// Scheduler drives every registered source on its own period. Periods are
// deliberately de-synchronized by small offsets so ticks don't burst.
// A tick that fires while the previous fetch for the same task is still in
// flight is dropped, not queued, bounding concurrent request growth.
type Scheduler struct {
	store   *store.Store
	tasks   []*task
	candles RangeRefresher

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(st *store.Store) *Scheduler {
	return &Scheduler{
		store:  st,
		stopCh: make(chan struct{}),
	}
}

// Register adds a named periodic task. Must be called before Start.
func (s *Scheduler) Register(name string, interval time.Duration, source Refresher) {
	s.tasks = append(s.tasks, &task{name: name, interval: interval, source: source})
	if rr, ok := source.(RangeRefresher); ok && s.candles == nil {
		s.candles = rr
	}
}

// Start runs every task once, concurrently, waits for all of them, then
// launches one ticker goroutine per task. The initial load is complete
// only after every source has had its first attempt.
func (s *Scheduler) Start(ctx context.Context) {
	var initial sync.WaitGroup
	for _, t := range s.tasks {
		initial.Add(1)
		go func(t *task) {
			defer initial.Done()
			s.run(ctx, t)
		}(t)
	}
	initial.Wait()
	s.store.MarkInitialLoad()
	log.Info().Int("tasks", len(s.tasks)).Msg("initial load complete")

	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, t)
	}
	log.Info().Int("tasks", len(s.tasks)).Msg("scheduler started")
}

// Stop cancels every periodic task and waits for the loops to exit.
// Fetches already in flight run to completion; the store guards against
// their late writes once closed.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	log.Info().Msg("scheduler stopped")
}

// SetRange switches the selected candle time range and fires an immediate
// re-fetch for it, independent of the periodic timers.
func (s *Scheduler) SetRange(ctx context.Context, r models.TimeRange) error {
	if !r.Valid() {
		return fmt.Errorf("invalid time range %q", r)
	}

	s.store.SetRange(r)
	if s.candles == nil {
		return nil
	}
	if err := s.candles.RefreshRange(ctx, r); err != nil {
		log.Warn().Err(err).Str("range", string(r)).Msg("range refresh failed")
		return err
	}
	return nil
}

func (s *Scheduler) loop(ctx context.Context, t *task) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.run(ctx, t)
		case <-s.stopCh:
			log.Debug().Str("task", t.name).Msg("task stopped")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) run(ctx context.Context, t *task) {
	if !t.inFlight.CompareAndSwap(false, true) {
		log.Debug().Str("task", t.name).Msg("tick dropped, previous fetch still in flight")
		return
	}
	defer t.inFlight.Store(false)

	if err := t.source.Refresh(ctx); err != nil {
		log.Warn().Err(err).Str("task", t.name).Msg("refresh failed")
		return
	}
	log.Debug().Str("task", t.name).Msg("refreshed")
}
