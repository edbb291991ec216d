package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GroupTask is a concrete, assignable task instance. Once generated it lives
// independently of the scheduled template that produced it; ScheduledTaskID
// and OccurrenceAt only record provenance and deduplicate generation.
type GroupTask struct {
	ID               uint       `gorm:"primaryKey"`
	GroupID          uint       `gorm:"not null"`
	ScheduledTaskID  *uint      `gorm:"uniqueIndex:idx_task_occurrence"`
	OccurrenceAt     *time.Time `gorm:"uniqueIndex:idx_task_occurrence"`
	Title            string     `gorm:"type:varchar(255);not null"`
	Description      string     `gorm:"type:text"`
	Reward           int        `gorm:"default:0"`
	RequiresImage    bool       `gorm:"default:false"`
	RequiresApproval bool       `gorm:"default:false"`
	AssignedUserID   *uint
	AssignedByUserID uint           `gorm:"not null"`
	Tags             datatypes.JSON `gorm:"type:jsonb"`
	DueDate          *time.Time
	IsCompleted      bool `gorm:"default:false"`
	CompletedAt      *time.Time
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime"`
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (GroupTask) TableName() string {
	return "group_tasks"
}
