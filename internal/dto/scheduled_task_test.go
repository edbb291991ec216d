package dto

import (
	"testing"
	"time"

	"grouptasks/internal/model"
	"grouptasks/internal/schedule"
	"grouptasks/pkg/utils"

	"github.com/stretchr/testify/assert"
)

func TestCreateScheduledTaskRequest_ToModel(t *testing.T) {
	endDate := "2026-06-30"
	req := &CreateScheduledTaskRequest{
		GroupID:    1,
		Title:      "Weekly cleanup",
		Assignment: "auto",
		Schedules:  []schedule.RecurrenceRule{{Type: schedule.RuleWeekly, Time: "09:00", Days: []int{6}}},
		StartDate:  "2026-03-01",
		EndDate:    &endDate,
		CreatedBy:  1,
	}

	task, err := req.ToModel()
	assert.NoError(t, err)
	assert.Equal(t, model.AssignmentAuto, task.AssignmentType)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), task.StartDate)
	assert.Equal(t, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), *task.EndDate)
	assert.True(t, task.IsActive)

	req.StartDate = "03/01/2026"
	_, err = req.ToModel()
	assert.Error(t, err)

	req.StartDate = "2026-03-01"
	bad := "soon"
	req.EndDate = &bad
	_, err = req.ToModel()
	assert.Error(t, err)
}

func TestNewScheduledTaskResponse(t *testing.T) {
	task := &model.ScheduledGroupTask{
		ID:             3,
		GroupID:        1,
		Title:          "Weekly cleanup",
		AssignmentType: model.AssignmentNone,
		StartDate:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        utils.ToPointer(time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)),
		IsActive:       true,
	}
	assert.NoError(t, task.SetRules([]schedule.RecurrenceRule{{Type: schedule.RuleDaily, Time: "09:00"}}))
	assert.NoError(t, task.SetTags([]string{"chores"}))

	next := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	resp := NewScheduledTaskResponse(task, &next)
	assert.Equal(t, "2026-03-01", resp.StartDate)
	assert.Equal(t, "2026-06-30", *resp.EndDate)
	assert.Equal(t, []string{"chores"}, resp.Tags)
	assert.Len(t, resp.Schedules, 1)
	assert.Equal(t, &next, resp.NextOccurrence)
}
