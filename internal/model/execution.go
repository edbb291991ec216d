package model

import (
	"database/sql"
	"time"
)

type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
	ExecutionSkipped ExecutionStatus = "skipped"
)

// ScheduledTaskExecution is the write-once audit entry for one evaluated
// occurrence. The (scheduled_task_id, executed_at) unique index is the
// at-most-once-per-occurrence guard.
type ScheduledTaskExecution struct {
	ID              uint            `gorm:"primaryKey"`
	ScheduledTaskID uint            `gorm:"not null;uniqueIndex:idx_execution_occurrence"`
	ExecutedAt      time.Time       `gorm:"not null;uniqueIndex:idx_execution_occurrence"`
	Status          ExecutionStatus `gorm:"type:varchar(20);not null"`
	CreatedTaskID   *uint
	DeletedTaskID   *uint
	AssignedUserID  *uint
	ErrorMessage    sql.NullString `gorm:"type:text"`
	SkipReason      sql.NullString `gorm:"type:varchar(100)"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
}

func (ScheduledTaskExecution) TableName() string {
	return "scheduled_task_executions"
}
