package model

import (
	"encoding/json"
	"time"

	"grouptasks/internal/schedule"

	"gorm.io/datatypes"
)

type AssignmentType string

const (
	// AssignmentFixed pins every generated instance to one user.
	AssignmentFixed AssignmentType = "fixed"
	// AssignmentAuto picks a random group member per occurrence.
	AssignmentAuto AssignmentType = "auto"
	// AssignmentNone leaves generated instances unassigned.
	AssignmentNone AssignmentType = "none"
)

// ScheduledGroupTask is a recurring template that generates concrete group
// tasks. Schedules and Tags are stored as jsonb.
type ScheduledGroupTask struct {
	ID                       uint           `gorm:"primaryKey"`
	GroupID                  uint           `gorm:"not null"`
	Title                    string         `gorm:"type:varchar(255);not null"`
	Description              string         `gorm:"type:text"`
	Reward                   int            `gorm:"default:0"`
	RequiresImage            bool           `gorm:"default:false"`
	RequiresApproval         bool           `gorm:"default:false"`
	AssignmentType           AssignmentType `gorm:"type:varchar(20);not null;default:'none'"`
	AssignedUserID           *uint
	Schedules                datatypes.JSON `gorm:"type:jsonb;not null"`
	Tags                     datatypes.JSON `gorm:"type:jsonb"`
	DueDurationDays          *int
	DueDurationHours         *int
	StartDate                time.Time  `gorm:"type:date;not null"`
	EndDate                  *time.Time `gorm:"type:date"`
	IsActive                 bool       `gorm:"default:true"`
	SkipHolidays             bool       `gorm:"default:false"`
	MoveToNextBusinessDay    bool       `gorm:"default:false"`
	DeleteIncompletePrevious bool       `gorm:"default:false"`
	CreatedBy                uint       `gorm:"not null"`
	CreatedAt                time.Time  `gorm:"autoCreateTime"`
	UpdatedAt                time.Time  `gorm:"autoUpdateTime"`

	Executions []ScheduledTaskExecution `gorm:"foreignKey:ScheduledTaskID"`
}

func (ScheduledGroupTask) TableName() string {
	return "scheduled_group_tasks"
}

// Rules decodes and validates the persisted recurrence rules.
func (t *ScheduledGroupTask) Rules() ([]schedule.RecurrenceRule, error) {
	return schedule.ParseRules(t.Schedules)
}

// SetRules validates and stores the recurrence rules.
func (t *ScheduledGroupTask) SetRules(rules []schedule.RecurrenceRule) error {
	if err := schedule.ValidateRules(rules); err != nil {
		return err
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return err
	}
	t.Schedules = datatypes.JSON(raw)
	return nil
}

// TagNames decodes the stored tag list, empty on malformed data.
func (t *ScheduledGroupTask) TagNames() []string {
	if len(t.Tags) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(t.Tags, &tags); err != nil {
		return nil
	}
	return tags
}

// SetTags stores the tag list.
func (t *ScheduledGroupTask) SetTags(tags []string) error {
	if len(tags) == 0 {
		t.Tags = nil
		return nil
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	t.Tags = datatypes.JSON(raw)
	return nil
}

// HasDueDuration reports whether generated instances carry a deadline.
func (t *ScheduledGroupTask) HasDueDuration() bool {
	return (t.DueDurationDays != nil && *t.DueDurationDays > 0) ||
		(t.DueDurationHours != nil && *t.DueDurationHours > 0)
}

// DueDateFrom computes the instance deadline from its creation reference time.
func (t *ScheduledGroupTask) DueDateFrom(ref time.Time) *time.Time {
	if !t.HasDueDuration() {
		return nil
	}
	due := ref
	if t.DueDurationDays != nil {
		due = due.AddDate(0, 0, *t.DueDurationDays)
	}
	if t.DueDurationHours != nil {
		due = due.Add(time.Duration(*t.DueDurationHours) * time.Hour)
	}
	return &due
}

type GetScheduledTaskParam struct {
	IDs            []uint             `json:"ids"`
	GroupID        *uint              `json:"group_id"`
	IsActive       *bool              `json:"is_active"`
	Limit          *int               `json:"limit"`
	WithExecutions *GetExecutionParam `json:"with_executions"`
}

type GetExecutionParam struct {
	Limit *int `json:"limit"`
}
