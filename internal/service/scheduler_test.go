package service

import (
	"context"
	"testing"
	"time"

	"grouptasks/config"
	"grouptasks/internal/model"
	"grouptasks/internal/schedule"
	"grouptasks/pkg/logger"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newSchedulerFixture() (*engineFixture, SchedulerService) {
	f := newEngineFixture()
	cfg := &config.Config{
		Scheduler: config.Scheduler{
			MaxConcurrency:    4,
			TimeoutDuration:   5 * time.Second,
			TickTolerance:     time.Minute,
			HolidayAdvanceCap: 14,
		},
	}
	log := &logger.Logger{Logger: zap.NewNop()}
	return f, NewSchedulerService(cfg, log, f.schedRepo, f.engine)
}

func TestSchedulerService_Execute(t *testing.T) {
	f, scheduler := newSchedulerFixture()
	f.calendar.holidays["2026-03-02"] = true

	fires := dailyTask() // fires at 09:00
	fires.ID = 1

	eveningOnly := dailyTask() // candidate, but its clock is 18:00
	eveningOnly.ID = 2
	if err := eveningOnly.SetRules([]schedule.RecurrenceRule{{Type: schedule.RuleDaily, Time: "18:00"}}); err != nil {
		t.Fatal(err)
	}

	skips := dailyTask()
	skips.ID = 3
	skips.SkipHolidays = true

	broken := dailyTask()
	broken.ID = 4
	broken.Schedules = []byte(`not json`)

	paused := dailyTask()
	paused.ID = 5
	paused.IsActive = false

	f.schedRepo.tasks = []model.ScheduledGroupTask{*fires, *eveningOnly, *skips, *broken, *paused}

	summary, err := scheduler.Execute(context.Background(), tickAt("2026-03-02T09:00:00Z"))
	assert.NoError(t, err)
	assert.NotNil(t, summary)

	// The paused task is not a candidate at all.
	assert.Equal(t, 4, summary.Evaluated)
	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 1, summary.NoAction)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)

	assert.Len(t, f.taskRepo.instances, 1)
	assert.Len(t, f.schedRepo.executions, 3)
}

func TestSchedulerService_Execute_Empty(t *testing.T) {
	_, scheduler := newSchedulerFixture()

	summary, err := scheduler.Execute(context.Background(), tickAt("2026-03-02T09:00:00Z"))
	assert.NoError(t, err)
	assert.Equal(t, &TickSummary{}, summary)
}

func TestSchedulerService_Execute_ReplayedTickIsNoop(t *testing.T) {
	f, scheduler := newSchedulerFixture()
	f.schedRepo.tasks = []model.ScheduledGroupTask{*dailyTask()}

	now := tickAt("2026-03-02T09:00:00Z")
	first, err := scheduler.Execute(context.Background(), now)
	assert.NoError(t, err)
	assert.Equal(t, 1, first.Success)

	second, err := scheduler.Execute(context.Background(), now.Add(20*time.Second))
	assert.NoError(t, err)
	assert.Equal(t, 0, second.Success)
	assert.Equal(t, 1, second.NoAction)

	assert.Len(t, f.schedRepo.executions, 1)
	assert.Len(t, f.taskRepo.instances, 1)
}

func TestSchedulerService_RunScheduledTask(t *testing.T) {
	f, scheduler := newSchedulerFixture()
	f.schedRepo.tasks = []model.ScheduledGroupTask{*dailyTask()}

	execution, err := scheduler.RunScheduledTask(context.Background(), 1, tickAt("2026-03-02T09:00:00Z"))
	assert.NoError(t, err)
	assert.NotNil(t, execution)
	assert.Equal(t, model.ExecutionSuccess, execution.Status)

	_, err = scheduler.RunScheduledTask(context.Background(), 99, tickAt("2026-03-02T09:00:00Z"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
