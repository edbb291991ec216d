package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"grouptasks/config"
	"grouptasks/internal/model"
	"grouptasks/internal/repository"
	"grouptasks/pkg/logger"
	"grouptasks/pkg/utils"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// TickSummary tallies one evaluation pass over all candidate tasks.
type TickSummary struct {
	Evaluated int `json:"evaluated"`
	Success   int `json:"success"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	NoAction  int `json:"no_action"`
}

type SchedulerService interface {
	// Execute evaluates every candidate scheduled task against now.
	Execute(ctx context.Context, now time.Time) (*TickSummary, error)
	// RunScheduledTask evaluates a single scheduled task, used by the manual trigger.
	RunScheduledTask(ctx context.Context, scheduledTaskID uint, now time.Time) (*model.ScheduledTaskExecution, error)
	// Start launches the internal cron runner (tick loop + history retention).
	Start(ctx context.Context) error
	Stop()
}

type schedulerService struct {
	cfg       *config.Config
	log       *logger.Logger
	schedRepo repository.ScheduledTaskRepository
	engine    ExecutionEngine
	semaphore chan struct{}
	runner    *cron.Cron
}

func NewSchedulerService(
	cfg *config.Config,
	log *logger.Logger,
	schedRepo repository.ScheduledTaskRepository,
	engine ExecutionEngine,
) SchedulerService {
	return &schedulerService{
		cfg:       cfg,
		log:       log,
		schedRepo: schedRepo,
		engine:    engine,
		semaphore: make(chan struct{}, cfg.Scheduler.MaxConcurrency),
	}
}

func (s *schedulerService) Execute(ctx context.Context, now time.Time) (*TickSummary, error) {
	tasks, err := s.schedRepo.FindCandidates(ctx, now)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to find scheduled task candidates", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to find scheduled task candidates: %w", err)
	}

	summary := &TickSummary{Evaluated: len(tasks)}
	if len(tasks) == 0 {
		s.log.DebugContext(ctx, "No scheduled tasks to evaluate")
		return summary, nil
	}

	s.log.InfoContext(ctx, "Start evaluating scheduled tasks",
		logger.IntField("task_count", len(tasks)),
		logger.IntField("max_concurrency", s.cfg.Scheduler.MaxConcurrency),
	)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
loop:
	for i := range tasks {
		task := tasks[i]

		select {
		case s.semaphore <- struct{}{}:
		case <-gctx.Done():
			s.log.WarnContext(ctx, "Tick cancelled", logger.ErrorField(gctx.Err()))
			break loop
		}

		g.Go(func() error {
			defer func() { <-s.semaphore }()

			if !utils.ShouldContinue(gctx, s.log) {
				mu.Lock()
				summary.NoAction++
				mu.Unlock()
				return nil
			}

			tickCtx, cancel := context.WithTimeout(gctx, s.cfg.Scheduler.TimeoutDuration)
			defer cancel()

			execution, err := s.engine.EvaluateTick(tickCtx, &task, now)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
				s.log.ErrorContextWithAlert(ctx, "Failed to evaluate scheduled task",
					logger.ErrorField(err),
					logger.IntField("scheduled_task_id", int(task.ID)),
					logger.StringField("title", task.Title),
				)
			case execution == nil:
				summary.NoAction++
			case execution.Status == model.ExecutionSuccess:
				summary.Success++
			case execution.Status == model.ExecutionFailed:
				summary.Failed++
			case execution.Status == model.ExecutionSkipped:
				summary.Skipped++
			}
			// Tick errors are tallied, not propagated: one bad task must not
			// stop the rest of the pass.
			return nil
		})
	}

	_ = g.Wait()

	s.log.InfoContext(ctx, "Tick completed",
		logger.IntField("evaluated", summary.Evaluated),
		logger.IntField("success", summary.Success),
		logger.IntField("failed", summary.Failed),
		logger.IntField("skipped", summary.Skipped),
		logger.IntField("no_action", summary.NoAction),
	)

	return summary, nil
}

func (s *schedulerService) RunScheduledTask(ctx context.Context, scheduledTaskID uint, now time.Time) (*model.ScheduledTaskExecution, error) {
	s.log.InfoContext(ctx, "Running scheduled task", logger.IntField("scheduled_task_id", int(scheduledTaskID)))

	task, err := s.schedRepo.FindByID(ctx, scheduledTaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find scheduled task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("scheduled task %d not found", scheduledTaskID)
	}

	return s.engine.EvaluateTick(ctx, task, now)
}

func (s *schedulerService) Start(ctx context.Context) error {
	s.runner = cron.New()

	if _, err := s.runner.AddFunc(s.cfg.Scheduler.TickCron, func() {
		if _, err := s.Execute(ctx, time.Now()); err != nil {
			s.log.ErrorContext(ctx, "Tick failed", logger.ErrorField(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid tick cron %q: %w", s.cfg.Scheduler.TickCron, err)
	}

	if _, err := s.runner.AddFunc(s.cfg.Scheduler.RetentionCron, func() {
		s.pruneHistory(ctx)
	}); err != nil {
		return fmt.Errorf("invalid retention cron %q: %w", s.cfg.Scheduler.RetentionCron, err)
	}

	s.runner.Start()
	s.log.Info("Scheduler started",
		logger.StringField("tick_cron", s.cfg.Scheduler.TickCron),
		logger.StringField("retention_cron", s.cfg.Scheduler.RetentionCron),
	)
	return nil
}

func (s *schedulerService) Stop() {
	if s.runner != nil {
		<-s.runner.Stop().Done()
		s.log.Info("Scheduler stopped")
	}
}

func (s *schedulerService) pruneHistory(ctx context.Context) {
	retention := s.cfg.Scheduler.HistoryRetentionDays
	if retention <= 0 {
		return
	}
	before := time.Now().AddDate(0, 0, -retention)
	removed, err := s.schedRepo.DeleteExecutionsOlderThan(ctx, before)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to prune execution history", logger.ErrorField(err))
		return
	}
	if removed > 0 {
		s.log.InfoContext(ctx, "Pruned execution history",
			logger.IntField("removed", int(removed)),
			logger.IntField("retention_days", retention),
		)
	}
}
