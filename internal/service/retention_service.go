package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const EventRevisionsPruned = "revisions:pruned"

// ─────────────────────────────────────────────────────────────
// Retention Service: periodic revision pruning
// ─────────────────────────────────────────────────────────────

// RetentionService prunes old revisions on a cron schedule.
type RetentionService struct {
	articles  *ArticleService
	retention time.Duration
	schedule  string
	emitter   EventEmitter
	logger    *zap.Logger

	mu        sync.Mutex
	cronSched *cron.Cron
}

func NewRetentionService(
	articles *ArticleService,
	retention time.Duration,
	schedule string,
	emitter EventEmitter,
	logger *zap.Logger,
) *RetentionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionService{
		articles:  articles,
		retention: retention,
		schedule:  schedule,
		emitter:   emitter,
		logger:    logger,
	}
}

// Start schedules the sweep. A zero retention or empty schedule leaves it
// disabled.
func (s *RetentionService) Start(ctx context.Context) error {
	if s.retention <= 0 || s.schedule == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cronSched != nil {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(s.schedule, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Warn("revision sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cronSched = c
	s.logger.Info("revision retention scheduled",
		zap.String("schedule", s.schedule), zap.Duration("retention", s.retention))
	return nil
}

// Stop halts the schedule and waits for a running sweep.
func (s *RetentionService) Stop() {
	s.mu.Lock()
	c := s.cronSched
	s.cronSched = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// Sweep prunes once.
func (s *RetentionService) Sweep(ctx context.Context) (int64, error) {
	n, err := s.articles.PruneRevisions(ctx, s.retention)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("pruned revisions", zap.Int64("count", n))
	}
	if s.emitter != nil {
		s.emitter.Emit(ctx, EventRevisionsPruned, n)
	}
	return n, nil
}
