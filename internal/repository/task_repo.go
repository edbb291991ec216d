package repository

import (
	"context"
	"errors"

	"grouptasks/internal/model"
	"grouptasks/pkg/utils"

	"gorm.io/gorm"
)

// ErrDuplicateInstance reports a task instance already generated for the same
// occurrence, the caller treats the tick as a no-op.
var ErrDuplicateInstance = errors.New("task instance already exists for this occurrence")

type TaskRepository interface {
	CreateInstance(ctx context.Context, task *model.GroupTask, opts ...utils.DBOption) error
	FindLatestIncomplete(ctx context.Context, scheduledTaskID uint) (*model.GroupTask, error)
	SoftDeleteIfIncomplete(ctx context.Context, taskID uint, opts ...utils.DBOption) (bool, error)
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// CreateInstance creates a concrete task. The (scheduled_task_id, occurrence_at)
// unique index makes generation idempotent per occurrence.
func (r *taskRepository) CreateInstance(ctx context.Context, task *model.GroupTask, opts ...utils.DBOption) error {
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateInstance
		}
		return err
	}
	return nil
}

// FindLatestIncomplete returns the most recent live, uncompleted instance
// generated by the given scheduled task, or nil when there is none.
func (r *taskRepository) FindLatestIncomplete(ctx context.Context, scheduledTaskID uint) (*model.GroupTask, error) {
	var task model.GroupTask
	err := r.db.WithContext(ctx).
		Where("scheduled_task_id = ? AND is_completed = ?", scheduledTaskID, false).
		Order("created_at DESC").
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// SoftDeleteIfIncomplete soft deletes the task only while it is still
// incomplete. Returns whether a row was deleted.
func (r *taskRepository) SoftDeleteIfIncomplete(ctx context.Context, taskID uint, opts ...utils.DBOption) (bool, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("id = ? AND is_completed = ?", taskID, false).
		Delete(&model.GroupTask{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
