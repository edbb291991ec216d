package service

import (
	"context"
	"fmt"
	"time"

	"grouptasks/config"
	"grouptasks/internal/model"
	"grouptasks/internal/repository"
	"grouptasks/internal/schedule"
	"grouptasks/pkg/logger"
)

// ScheduledTaskService owns the template lifecycle: create, edit, pause,
// resume, delete, and history reads. Recurrence rules are validated here,
// once, before anything is persisted.
type ScheduledTaskService interface {
	Create(ctx context.Context, task *model.ScheduledGroupTask, rules []schedule.RecurrenceRule, tags []string) error
	Update(ctx context.Context, task *model.ScheduledGroupTask, rules []schedule.RecurrenceRule, tags []string) error
	Delete(ctx context.Context, id uint) error
	Pause(ctx context.Context, id uint) error
	Resume(ctx context.Context, id uint) error
	Get(ctx context.Context, param *model.GetScheduledTaskParam) ([]model.ScheduledGroupTask, error)
	FindByID(ctx context.Context, id uint) (*model.ScheduledGroupTask, error)
	History(ctx context.Context, scheduledTaskID uint, limit int) ([]model.ScheduledTaskExecution, error)
	LastSuccess(ctx context.Context, scheduledTaskID uint) (*model.ScheduledTaskExecution, error)
	NextOccurrence(task *model.ScheduledGroupTask, after time.Time) *time.Time
}

type scheduledTaskService struct {
	cfg       *config.Config
	log       *logger.Logger
	schedRepo repository.ScheduledTaskRepository
	calc      *schedule.Calculator
}

func NewScheduledTaskService(cfg *config.Config, log *logger.Logger, schedRepo repository.ScheduledTaskRepository) ScheduledTaskService {
	return &scheduledTaskService{
		cfg:       cfg,
		log:       log,
		schedRepo: schedRepo,
		calc:      schedule.NewCalculator(cfg.Scheduler.TickTolerance),
	}
}

func (s *scheduledTaskService) Create(ctx context.Context, task *model.ScheduledGroupTask, rules []schedule.RecurrenceRule, tags []string) error {
	if err := s.prepare(task, rules, tags); err != nil {
		return err
	}
	if err := s.schedRepo.Create(ctx, task); err != nil {
		return fmt.Errorf("create scheduled task: %w", err)
	}
	s.log.InfoContext(ctx, "Scheduled task created",
		logger.IntField("scheduled_task_id", int(task.ID)),
		logger.StringField("title", task.Title),
	)
	return nil
}

func (s *scheduledTaskService) Update(ctx context.Context, task *model.ScheduledGroupTask, rules []schedule.RecurrenceRule, tags []string) error {
	if err := s.prepare(task, rules, tags); err != nil {
		return err
	}
	if err := s.schedRepo.Update(ctx, task); err != nil {
		return fmt.Errorf("update scheduled task: %w", err)
	}
	return nil
}

func (s *scheduledTaskService) Delete(ctx context.Context, id uint) error {
	return s.schedRepo.Delete(ctx, id)
}

func (s *scheduledTaskService) Pause(ctx context.Context, id uint) error {
	return s.schedRepo.SetActive(ctx, id, false)
}

func (s *scheduledTaskService) Resume(ctx context.Context, id uint) error {
	return s.schedRepo.SetActive(ctx, id, true)
}

func (s *scheduledTaskService) Get(ctx context.Context, param *model.GetScheduledTaskParam) ([]model.ScheduledGroupTask, error) {
	return s.schedRepo.Get(ctx, param)
}

func (s *scheduledTaskService) FindByID(ctx context.Context, id uint) (*model.ScheduledGroupTask, error) {
	return s.schedRepo.FindByID(ctx, id)
}

func (s *scheduledTaskService) History(ctx context.Context, scheduledTaskID uint, limit int) ([]model.ScheduledTaskExecution, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.schedRepo.GetExecutionHistory(ctx, scheduledTaskID, limit)
}

// LastSuccess returns the newest execution that actually generated a task,
// nil when the task has never fired.
func (s *scheduledTaskService) LastSuccess(ctx context.Context, scheduledTaskID uint) (*model.ScheduledTaskExecution, error) {
	return s.schedRepo.GetLastSuccessfulExecution(ctx, scheduledTaskID)
}

// NextOccurrence is a display helper: the next firing strictly after "after",
// nil when the task is paused, out of window, or never fires again.
func (s *scheduledTaskService) NextOccurrence(task *model.ScheduledGroupTask, after time.Time) *time.Time {
	if !task.IsActive {
		return nil
	}
	rules, err := task.Rules()
	if err != nil {
		return nil
	}

	from := after
	if start := task.StartDate; from.Before(start) {
		from = start.Add(-time.Minute)
	}
	next, ok := s.calc.NextOccurrence(rules, from, 0)
	if !ok {
		return nil
	}
	if !schedule.InWindow(task.StartDate, task.EndDate, next) {
		return nil
	}
	return &next
}

func (s *scheduledTaskService) prepare(task *model.ScheduledGroupTask, rules []schedule.RecurrenceRule, tags []string) error {
	if err := task.SetRules(rules); err != nil {
		return fmt.Errorf("invalid recurrence rules: %w", err)
	}
	if err := task.SetTags(tags); err != nil {
		return fmt.Errorf("invalid tags: %w", err)
	}
	if task.AssignmentType == "" {
		task.AssignmentType = model.AssignmentNone
	}
	if task.AssignmentType == model.AssignmentFixed && task.AssignedUserID == nil {
		return fmt.Errorf("fixed assignment requires a user id")
	}
	if task.AssignmentType != model.AssignmentFixed {
		// Fixed and auto assignment are mutually exclusive; a stray user id
		// on an auto/none template is dropped here.
		task.AssignedUserID = nil
	}
	if task.Reward < 0 {
		return fmt.Errorf("reward must be non-negative")
	}
	if task.EndDate != nil && task.EndDate.Before(task.StartDate) {
		return fmt.Errorf("end date must not precede start date")
	}
	return nil
}
