package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"grouptasks/config"
	"grouptasks/internal/model"
	"grouptasks/internal/repository"
	"grouptasks/internal/schedule"
	"grouptasks/pkg/logger"
	"grouptasks/pkg/utils"
)

// errOccurrenceClaimed forces the transaction to roll back when the ledger
// already holds a row for the occurrence.
var errOccurrenceClaimed = errors.New("occurrence already recorded")

// Notifier delivers best-effort notices about generated tasks. Failures are
// logged and never affect the execution record.
type Notifier interface {
	Send(ctx context.Context, message string, opts ...interface{}) error
}

// ExecutionEngine evaluates one tick for one scheduled task. Safe for
// concurrent calls across different tasks; concurrent ticks for the same
// occurrence are collapsed by the ledger and task-instance uniqueness keys.
type ExecutionEngine interface {
	EvaluateTick(ctx context.Context, task *model.ScheduledGroupTask, now time.Time) (*model.ScheduledTaskExecution, error)
}

type executionEngine struct {
	cfg       *config.Config
	log       *logger.Logger
	calc      *schedule.Calculator
	policy    *schedule.CalendarPolicy
	schedRepo repository.ScheduledTaskRepository
	taskRepo  repository.TaskRepository
	groupRepo repository.GroupRepository
	uow       repository.UnitOfWork
	notifier  Notifier

	randMu sync.Mutex
	rnd    *rand.Rand
}

// NewExecutionEngine wires the engine. rnd may be nil outside tests.
func NewExecutionEngine(
	cfg *config.Config,
	log *logger.Logger,
	schedRepo repository.ScheduledTaskRepository,
	taskRepo repository.TaskRepository,
	groupRepo repository.GroupRepository,
	uow repository.UnitOfWork,
	holidays schedule.HolidayCalendar,
	notifier Notifier,
	rnd *rand.Rand,
) ExecutionEngine {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &executionEngine{
		cfg:       cfg,
		log:       log,
		calc:      schedule.NewCalculator(cfg.Scheduler.TickTolerance),
		policy:    schedule.NewCalendarPolicy(holidays, cfg.Scheduler.HolidayAdvanceCap),
		schedRepo: schedRepo,
		taskRepo:  taskRepo,
		groupRepo: groupRepo,
		uow:       uow,
		notifier:  notifier,
		rnd:       rnd,
	}
}

// EvaluateTick runs the ordered evaluation algorithm for one task at "now".
// It returns the execution record written for this occurrence, or nil when
// the tick produced no action (paused, out of window, no rule match, or an
// occurrence already claimed by a concurrent tick).
func (e *executionEngine) EvaluateTick(ctx context.Context, task *model.ScheduledGroupTask, now time.Time) (*model.ScheduledTaskExecution, error) {
	if !task.IsActive {
		// Paused tasks are silent, no record.
		return nil, nil
	}
	if !schedule.InWindow(task.StartDate, task.EndDate, now) {
		return nil, nil
	}

	rules, err := task.Rules()
	if err != nil {
		// Rules are validated at the boundary; a malformed persisted set is
		// an operator-visible failure, not a silent skip.
		return e.record(ctx, failedExecution(task.ID, utils.TruncateToMinute(now), err))
	}

	occurrence, ok := e.calc.Match(rules, now)
	if !ok {
		return nil, nil
	}

	resolution, err := e.policy.Resolve(ctx, utils.DateOnly(occurrence), task.SkipHolidays, task.MoveToNextBusinessDay)
	if err != nil {
		return e.record(ctx, failedExecution(task.ID, occurrence, err))
	}
	if resolution.Skipped {
		return e.record(ctx, &model.ScheduledTaskExecution{
			ScheduledTaskID: task.ID,
			ExecutedAt:      occurrence,
			Status:          model.ExecutionSkipped,
			SkipReason:      sql.NullString{String: resolution.SkipReason, Valid: true},
		})
	}

	// Effective creation time keeps the rule's clock time on the resolved
	// (possibly advanced) date.
	effective := utils.AtTimeOfDay(resolution.Date, occurrence.Hour(), occurrence.Minute())

	deletedTaskID, notes := e.removePreviousIncomplete(ctx, task, occurrence)

	assigneeID := e.resolveAssignee(ctx, task)

	instance := &model.GroupTask{
		GroupID:          task.GroupID,
		ScheduledTaskID:  &task.ID,
		OccurrenceAt:     &occurrence,
		Title:            task.Title,
		Description:      task.Description,
		Reward:           task.Reward,
		RequiresImage:    task.RequiresImage,
		RequiresApproval: task.RequiresApproval,
		AssignedUserID:   assigneeID,
		AssignedByUserID: task.CreatedBy,
		Tags:             task.Tags,
		DueDate:          task.DueDateFrom(effective),
		CreatedAt:        effective,
	}

	// Instance and ledger row land in one transaction: either this tick owns
	// the occurrence with both rows, or neither exists.
	var execution *model.ScheduledTaskExecution
	err = e.uow.Run(func(opts ...utils.DBOption) error {
		if err := e.taskRepo.CreateInstance(ctx, instance, opts...); err != nil {
			return fmt.Errorf("create task instance: %w", err)
		}

		execution = &model.ScheduledTaskExecution{
			ScheduledTaskID: task.ID,
			ExecutedAt:      occurrence,
			Status:          model.ExecutionSuccess,
			CreatedTaskID:   &instance.ID,
			DeletedTaskID:   deletedTaskID,
			AssignedUserID:  assigneeID,
		}
		if len(notes) > 0 {
			execution.ErrorMessage = sql.NullString{String: strings.Join(notes, "; "), Valid: true}
		}

		inserted, err := e.schedRepo.RecordExecution(ctx, execution, opts...)
		if err != nil {
			return fmt.Errorf("record execution: %w", err)
		}
		if !inserted {
			return errOccurrenceClaimed
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateInstance) || errors.Is(err, errOccurrenceClaimed) {
			// Another tick already generated this occurrence.
			e.log.DebugContext(ctx, "Occurrence already generated",
				logger.IntField("scheduled_task_id", int(task.ID)),
			)
			return nil, nil
		}
		notes = append(notes, err.Error())
		return e.record(ctx, failedExecutionNotes(task.ID, occurrence, notes))
	}

	e.notifyCreated(ctx, task, instance)
	return execution, nil
}

// removePreviousIncomplete deletes the latest incomplete instance when the
// template asks for it. Any failure here is noted on the eventual record but
// never aborts creation: a duplicate task beats losing today's task.
func (e *executionEngine) removePreviousIncomplete(ctx context.Context, task *model.ScheduledGroupTask, occurrence time.Time) (*uint, []string) {
	if !task.DeleteIncompletePrevious {
		return nil, nil
	}

	previous, err := e.taskRepo.FindLatestIncomplete(ctx, task.ID)
	if err != nil {
		e.log.WarnContext(ctx, "Failed to look up previous incomplete task",
			logger.ErrorField(err),
			logger.IntField("scheduled_task_id", int(task.ID)),
		)
		return nil, []string{fmt.Sprintf("lookup previous incomplete: %v", err)}
	}
	if previous == nil {
		return nil, nil
	}
	// The latest incomplete may be this occurrence's own instance when the
	// tick is replayed. Only genuinely earlier occurrences are removed.
	if previous.OccurrenceAt != nil && previous.OccurrenceAt.Equal(occurrence) {
		return nil, nil
	}

	deleted, err := e.taskRepo.SoftDeleteIfIncomplete(ctx, previous.ID)
	if err != nil {
		e.log.WarnContext(ctx, "Failed to delete previous incomplete task",
			logger.ErrorField(err),
			logger.IntField("task_id", int(previous.ID)),
		)
		return nil, []string{fmt.Sprintf("delete previous incomplete: %v", err)}
	}
	if !deleted {
		return nil, nil
	}

	e.log.InfoContext(ctx, "Previous incomplete task deleted",
		logger.IntField("task_id", int(previous.ID)),
		logger.IntField("scheduled_task_id", int(task.ID)),
	)
	return &previous.ID, nil
}

// resolveAssignee decides who the generated instance belongs to. All failure
// modes degrade to unassigned, never to a skip or failure.
func (e *executionEngine) resolveAssignee(ctx context.Context, task *model.ScheduledGroupTask) *uint {
	switch task.AssignmentType {
	case model.AssignmentFixed:
		if task.AssignedUserID == nil {
			return nil
		}
		member, err := e.groupRepo.IsMember(ctx, task.GroupID, *task.AssignedUserID)
		if err != nil {
			e.log.WarnContext(ctx, "Membership check failed, leaving task unassigned",
				logger.ErrorField(err),
				logger.IntField("scheduled_task_id", int(task.ID)),
			)
			return nil
		}
		if !member {
			e.log.InfoContext(ctx, "Fixed assignee left the group, leaving task unassigned",
				logger.IntField("scheduled_task_id", int(task.ID)),
				logger.IntField("user_id", int(*task.AssignedUserID)),
			)
			return nil
		}
		return task.AssignedUserID

	case model.AssignmentAuto:
		members, err := e.groupRepo.MembersOf(ctx, task.GroupID)
		if err != nil {
			e.log.WarnContext(ctx, "Member listing failed, leaving task unassigned",
				logger.ErrorField(err),
				logger.IntField("scheduled_task_id", int(task.ID)),
			)
			return nil
		}
		if len(members) == 0 {
			return nil
		}
		e.randMu.Lock()
		picked := members[e.rnd.Intn(len(members))]
		e.randMu.Unlock()
		return &picked
	}

	return nil
}

// record writes the ledger row. Returns nil without error when a concurrent
// tick already claimed the occurrence.
func (e *executionEngine) record(ctx context.Context, execution *model.ScheduledTaskExecution) (*model.ScheduledTaskExecution, error) {
	inserted, err := e.schedRepo.RecordExecution(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("record execution: %w", err)
	}
	if !inserted {
		e.log.DebugContext(ctx, "Occurrence already recorded",
			logger.IntField("scheduled_task_id", int(execution.ScheduledTaskID)),
		)
		return nil, nil
	}
	return execution, nil
}

func (e *executionEngine) notifyCreated(ctx context.Context, task *model.ScheduledGroupTask, instance *model.GroupTask) {
	if e.notifier == nil {
		return
	}
	message := fmt.Sprintf("📝 New group task created: %s", instance.Title)
	if err := e.notifier.Send(ctx, message); err != nil {
		e.log.WarnContext(ctx, "Failed to send task creation notice",
			logger.ErrorField(err),
			logger.IntField("task_id", int(instance.ID)),
		)
	}
}

func failedExecution(scheduledTaskID uint, occurrence time.Time, err error) *model.ScheduledTaskExecution {
	return &model.ScheduledTaskExecution{
		ScheduledTaskID: scheduledTaskID,
		ExecutedAt:      occurrence,
		Status:          model.ExecutionFailed,
		ErrorMessage:    sql.NullString{String: err.Error(), Valid: true},
	}
}

func failedExecutionNotes(scheduledTaskID uint, occurrence time.Time, notes []string) *model.ScheduledTaskExecution {
	return &model.ScheduledTaskExecution{
		ScheduledTaskID: scheduledTaskID,
		ExecutedAt:      occurrence,
		Status:          model.ExecutionFailed,
		ErrorMessage:    sql.NullString{String: strings.Join(notes, "; "), Valid: true},
	}
}
