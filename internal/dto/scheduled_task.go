package dto

import (
	"time"

	"grouptasks/internal/model"
	"grouptasks/internal/schedule"
)

const DateLayout = "2006-01-02"

type CreateScheduledTaskRequest struct {
	GroupID                  uint                      `json:"group_id" validate:"required"`
	Title                    string                    `json:"title" validate:"required,max=255"`
	Description              string                    `json:"description"`
	Reward                   int                       `json:"reward" validate:"gte=0"`
	RequiresImage            bool                      `json:"requires_image"`
	RequiresApproval         bool                      `json:"requires_approval"`
	Assignment               string                    `json:"assignment" validate:"omitempty,oneof=fixed auto none"`
	AssignedUserID           *uint                     `json:"assigned_user_id"`
	Schedules                []schedule.RecurrenceRule `json:"schedules" validate:"required,min=1"`
	Tags                     []string                  `json:"tags"`
	DueDurationDays          *int                      `json:"due_duration_days" validate:"omitempty,gte=0"`
	DueDurationHours         *int                      `json:"due_duration_hours" validate:"omitempty,gte=0"`
	StartDate                string                    `json:"start_date" validate:"required"`
	EndDate                  *string                   `json:"end_date"`
	SkipHolidays             bool                      `json:"skip_holidays"`
	MoveToNextBusinessDay    bool                      `json:"move_to_next_business_day"`
	DeleteIncompletePrevious bool                      `json:"delete_incomplete_previous"`
	CreatedBy                uint                      `json:"created_by" validate:"required"`
}

// ToModel maps the request onto a model, parsing the window dates.
func (r *CreateScheduledTaskRequest) ToModel() (*model.ScheduledGroupTask, error) {
	startDate, err := time.Parse(DateLayout, r.StartDate)
	if err != nil {
		return nil, err
	}

	task := &model.ScheduledGroupTask{
		GroupID:                  r.GroupID,
		Title:                    r.Title,
		Description:              r.Description,
		Reward:                   r.Reward,
		RequiresImage:            r.RequiresImage,
		RequiresApproval:         r.RequiresApproval,
		AssignmentType:           model.AssignmentType(r.Assignment),
		AssignedUserID:           r.AssignedUserID,
		DueDurationDays:          r.DueDurationDays,
		DueDurationHours:         r.DueDurationHours,
		StartDate:                startDate,
		IsActive:                 true,
		SkipHolidays:             r.SkipHolidays,
		MoveToNextBusinessDay:    r.MoveToNextBusinessDay,
		DeleteIncompletePrevious: r.DeleteIncompletePrevious,
		CreatedBy:                r.CreatedBy,
	}

	if r.EndDate != nil {
		endDate, err := time.Parse(DateLayout, *r.EndDate)
		if err != nil {
			return nil, err
		}
		task.EndDate = &endDate
	}

	return task, nil
}

type UpdateScheduledTaskRequest struct {
	CreateScheduledTaskRequest
	IsActive *bool `json:"is_active"`
}

type RunTickRequest struct {
	// Now overrides the evaluation instant, RFC3339. Empty means wall clock.
	Now string `json:"now" validate:"omitempty"`
}

type ScheduledTaskResponse struct {
	ID                       uint                      `json:"id"`
	GroupID                  uint                      `json:"group_id"`
	Title                    string                    `json:"title"`
	Description              string                    `json:"description,omitempty"`
	Reward                   int                       `json:"reward"`
	RequiresImage            bool                      `json:"requires_image"`
	RequiresApproval         bool                      `json:"requires_approval"`
	Assignment               string                    `json:"assignment"`
	AssignedUserID           *uint                     `json:"assigned_user_id,omitempty"`
	Schedules                []schedule.RecurrenceRule `json:"schedules"`
	Tags                     []string                  `json:"tags,omitempty"`
	DueDurationDays          *int                      `json:"due_duration_days,omitempty"`
	DueDurationHours         *int                      `json:"due_duration_hours,omitempty"`
	StartDate                string                    `json:"start_date"`
	EndDate                  *string                   `json:"end_date,omitempty"`
	IsActive                 bool                      `json:"is_active"`
	SkipHolidays             bool                      `json:"skip_holidays"`
	MoveToNextBusinessDay    bool                      `json:"move_to_next_business_day"`
	DeleteIncompletePrevious bool                      `json:"delete_incomplete_previous"`
	NextOccurrence           *time.Time                `json:"next_occurrence,omitempty"`
	CreatedAt                time.Time                 `json:"created_at"`
}

func NewScheduledTaskResponse(task *model.ScheduledGroupTask, next *time.Time) *ScheduledTaskResponse {
	rules, _ := task.Rules()

	resp := &ScheduledTaskResponse{
		ID:                       task.ID,
		GroupID:                  task.GroupID,
		Title:                    task.Title,
		Description:              task.Description,
		Reward:                   task.Reward,
		RequiresImage:            task.RequiresImage,
		RequiresApproval:         task.RequiresApproval,
		Assignment:               string(task.AssignmentType),
		AssignedUserID:           task.AssignedUserID,
		Schedules:                rules,
		Tags:                     task.TagNames(),
		DueDurationDays:          task.DueDurationDays,
		DueDurationHours:         task.DueDurationHours,
		StartDate:                task.StartDate.Format(DateLayout),
		IsActive:                 task.IsActive,
		SkipHolidays:             task.SkipHolidays,
		MoveToNextBusinessDay:    task.MoveToNextBusinessDay,
		DeleteIncompletePrevious: task.DeleteIncompletePrevious,
		NextOccurrence:           next,
		CreatedAt:                task.CreatedAt,
	}
	if task.EndDate != nil {
		end := task.EndDate.Format(DateLayout)
		resp.EndDate = &end
	}
	return resp
}

// ScheduledTaskDetailResponse augments the list shape with the newest
// execution that generated a task.
type ScheduledTaskDetailResponse struct {
	ScheduledTaskResponse
	LastSuccess *ExecutionResponse `json:"last_success,omitempty"`
}

func NewScheduledTaskDetailResponse(task *model.ScheduledGroupTask, next *time.Time, lastSuccess *model.ScheduledTaskExecution) *ScheduledTaskDetailResponse {
	resp := &ScheduledTaskDetailResponse{
		ScheduledTaskResponse: *NewScheduledTaskResponse(task, next),
	}
	if lastSuccess != nil {
		resp.LastSuccess = NewExecutionResponse(lastSuccess)
	}
	return resp
}

type ExecutionResponse struct {
	ID             uint      `json:"id"`
	ExecutedAt     time.Time `json:"executed_at"`
	Status         string    `json:"status"`
	CreatedTaskID  *uint     `json:"created_task_id,omitempty"`
	DeletedTaskID  *uint     `json:"deleted_task_id,omitempty"`
	AssignedUserID *uint     `json:"assigned_user_id,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	SkipReason     string    `json:"skip_reason,omitempty"`
}

func NewExecutionResponse(execution *model.ScheduledTaskExecution) *ExecutionResponse {
	resp := &ExecutionResponse{
		ID:             execution.ID,
		ExecutedAt:     execution.ExecutedAt,
		Status:         string(execution.Status),
		CreatedTaskID:  execution.CreatedTaskID,
		DeletedTaskID:  execution.DeletedTaskID,
		AssignedUserID: execution.AssignedUserID,
	}
	if execution.ErrorMessage.Valid {
		resp.ErrorMessage = execution.ErrorMessage.String
	}
	if execution.SkipReason.Valid {
		resp.SkipReason = execution.SkipReason.String
	}
	return resp
}
