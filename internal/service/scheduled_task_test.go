package service

import (
	"context"
	"testing"
	"time"

	"grouptasks/config"
	"grouptasks/internal/model"
	"grouptasks/internal/schedule"
	"grouptasks/pkg/logger"
	"grouptasks/pkg/utils"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTaskServiceFixture() (*fakeScheduledTaskRepo, ScheduledTaskService) {
	repo := &fakeScheduledTaskRepo{}
	cfg := &config.Config{
		Scheduler: config.Scheduler{TickTolerance: time.Minute},
	}
	log := &logger.Logger{Logger: zap.NewNop()}
	return repo, NewScheduledTaskService(cfg, log, repo)
}

func TestScheduledTaskService_Create(t *testing.T) {
	dailyNine := []schedule.RecurrenceRule{{Type: schedule.RuleDaily, Time: "09:00"}}
	userID := uint(7)

	tests := []struct {
		name    string
		task    model.ScheduledGroupTask
		rules   []schedule.RecurrenceRule
		tags    []string
		wantErr string
	}{
		{
			name:  "valid",
			task:  model.ScheduledGroupTask{GroupID: 1, Title: "Water the plants", CreatedBy: 1},
			rules: dailyNine,
			tags:  []string{"chores"},
		},
		{
			name:    "no rules",
			task:    model.ScheduledGroupTask{GroupID: 1, Title: "x", CreatedBy: 1},
			wantErr: "invalid recurrence rules",
		},
		{
			name:    "invalid rule",
			task:    model.ScheduledGroupTask{GroupID: 1, Title: "x", CreatedBy: 1},
			rules:   []schedule.RecurrenceRule{{Type: schedule.RuleWeekly, Time: "09:00"}},
			wantErr: "invalid recurrence rules",
		},
		{
			name: "fixed assignment without user",
			task: model.ScheduledGroupTask{
				GroupID: 1, Title: "x", CreatedBy: 1,
				AssignmentType: model.AssignmentFixed,
			},
			rules:   dailyNine,
			wantErr: "fixed assignment requires a user id",
		},
		{
			name: "negative reward",
			task: model.ScheduledGroupTask{
				GroupID: 1, Title: "x", CreatedBy: 1, Reward: -5,
			},
			rules:   dailyNine,
			wantErr: "reward must be non-negative",
		},
		{
			name: "end before start",
			task: model.ScheduledGroupTask{
				GroupID: 1, Title: "x", CreatedBy: 1,
				StartDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
				EndDate:   utils.ToPointer(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
			},
			rules:   dailyNine,
			wantErr: "end date must not precede start date",
		},
		{
			name: "auto assignment drops stray user id",
			task: model.ScheduledGroupTask{
				GroupID: 1, Title: "x", CreatedBy: 1,
				AssignmentType: model.AssignmentAuto,
				AssignedUserID: &userID,
			},
			rules: dailyNine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, svc := newTaskServiceFixture()
			task := tt.task
			err := svc.Create(context.Background(), &task, tt.rules, tt.tags)
			if tt.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Empty(t, repo.tasks)
				return
			}
			assert.NoError(t, err)
			assert.Len(t, repo.tasks, 1)
			assert.NotZero(t, task.ID)
			assert.Nil(t, repo.tasks[0].AssignedUserID)
			if task.AssignmentType == "" {
				assert.Equal(t, model.AssignmentNone, repo.tasks[0].AssignmentType)
			}
		})
	}
}

func TestScheduledTaskService_NextOccurrence(t *testing.T) {
	_, svc := newTaskServiceFixture()

	task := dailyTask()
	after := tickAt("2026-03-02T10:00:00Z")

	next := svc.NextOccurrence(task, after)
	assert.NotNil(t, next)
	assert.Equal(t, tickAt("2026-03-03T09:00:00Z"), *next)

	t.Run("before the window opens", func(t *testing.T) {
		next := svc.NextOccurrence(task, tickAt("2026-02-01T00:00:00Z"))
		assert.NotNil(t, next)
		assert.Equal(t, tickAt("2026-03-01T09:00:00Z"), *next)
	})

	t.Run("paused", func(t *testing.T) {
		paused := dailyTask()
		paused.IsActive = false
		assert.Nil(t, svc.NextOccurrence(paused, after))
	})

	t.Run("window closed", func(t *testing.T) {
		ended := dailyTask()
		ended.EndDate = utils.ToPointer(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
		assert.Nil(t, svc.NextOccurrence(ended, tickAt("2026-03-10T10:00:00Z")))
	})
}

func TestScheduledTaskService_History_DefaultLimit(t *testing.T) {
	repo, svc := newTaskServiceFixture()
	for i := 0; i < 60; i++ {
		repo.executions = append(repo.executions, &model.ScheduledTaskExecution{
			ID:              uint(i + 1),
			ScheduledTaskID: 1,
			ExecutedAt:      tickAt("2026-03-02T09:00:00Z").AddDate(0, 0, i),
			Status:          model.ExecutionSuccess,
		})
	}

	history, err := svc.History(context.Background(), 1, 0)
	assert.NoError(t, err)
	assert.Len(t, history, 50)
}

func TestScheduledTaskService_LastSuccess(t *testing.T) {
	repo, svc := newTaskServiceFixture()

	last, err := svc.LastSuccess(context.Background(), 1)
	assert.NoError(t, err)
	assert.Nil(t, last)

	createdTaskID := uint(11)
	repo.executions = []*model.ScheduledTaskExecution{
		{ID: 1, ScheduledTaskID: 1, Status: model.ExecutionSuccess, CreatedTaskID: &createdTaskID},
		{ID: 2, ScheduledTaskID: 1, Status: model.ExecutionSkipped},
	}

	last, err = svc.LastSuccess(context.Background(), 1)
	assert.NoError(t, err)
	assert.NotNil(t, last)
	assert.Equal(t, uint(1), last.ID)
}
