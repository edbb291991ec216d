package repository

import (
	"context"
	"errors"
	"time"

	"grouptasks/internal/model"
	"grouptasks/pkg/utils"

	"gorm.io/gorm"
)

type ScheduledTaskRepository interface {
	FindCandidates(ctx context.Context, now time.Time, opts ...utils.DBOption) ([]model.ScheduledGroupTask, error)
	FindByID(ctx context.Context, id uint) (*model.ScheduledGroupTask, error)
	Get(ctx context.Context, param *model.GetScheduledTaskParam, opts ...utils.DBOption) ([]model.ScheduledGroupTask, error)
	Create(ctx context.Context, task *model.ScheduledGroupTask, opts ...utils.DBOption) error
	Update(ctx context.Context, task *model.ScheduledGroupTask, opts ...utils.DBOption) error
	Delete(ctx context.Context, id uint, opts ...utils.DBOption) error
	SetActive(ctx context.Context, id uint, active bool, opts ...utils.DBOption) error
	RecordExecution(ctx context.Context, execution *model.ScheduledTaskExecution, opts ...utils.DBOption) (bool, error)
	GetExecutionHistory(ctx context.Context, scheduledTaskID uint, limit int) ([]model.ScheduledTaskExecution, error)
	GetLastSuccessfulExecution(ctx context.Context, scheduledTaskID uint) (*model.ScheduledTaskExecution, error)
	DeleteExecutionsOlderThan(ctx context.Context, before time.Time, opts ...utils.DBOption) (int64, error)
}

type scheduledTaskRepository struct {
	db *gorm.DB
}

func NewScheduledTaskRepository(db *gorm.DB) ScheduledTaskRepository {
	return &scheduledTaskRepository{db: db}
}

// FindCandidates finds active scheduled tasks whose activity window contains now.
// Rule matching happens later in the engine; this only narrows the set.
func (r *scheduledTaskRepository) FindCandidates(ctx context.Context, now time.Time, opts ...utils.DBOption) ([]model.ScheduledGroupTask, error) {
	var tasks []model.ScheduledGroupTask
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("is_active = ? AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)",
			true, now, utils.DateOnly(now)).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *scheduledTaskRepository) FindByID(ctx context.Context, id uint) (*model.ScheduledGroupTask, error) {
	var task model.ScheduledGroupTask
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *scheduledTaskRepository) Get(ctx context.Context, param *model.GetScheduledTaskParam, opts ...utils.DBOption) ([]model.ScheduledGroupTask, error) {
	var tasks []model.ScheduledGroupTask
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Model(&model.ScheduledGroupTask{})
	if len(param.IDs) > 0 {
		db = db.Where("id IN ?", param.IDs)
	}
	if param.GroupID != nil {
		db = db.Where("group_id = ?", *param.GroupID)
	}
	if param.IsActive != nil {
		db = db.Where("is_active = ?", *param.IsActive)
	}
	if param.Limit != nil {
		db = db.Limit(*param.Limit)
	}
	if param.WithExecutions != nil {
		db = db.Preload("Executions", func(db *gorm.DB) *gorm.DB {
			db = db.Order("executed_at DESC")
			if param.WithExecutions.Limit != nil {
				db = db.Limit(*param.WithExecutions.Limit)
			}
			return db
		})
	}
	result := db.Order("created_at DESC").Find(&tasks)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return tasks, nil
}

func (r *scheduledTaskRepository) Create(ctx context.Context, task *model.ScheduledGroupTask, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(task).Error
}

func (r *scheduledTaskRepository) Update(ctx context.Context, task *model.ScheduledGroupTask, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.ScheduledGroupTask{ID: task.ID}).
		Select("*").Omit("id", "created_at").
		Updates(task).Error
}

// Delete removes the template and its rules. Generated task instances and
// execution records are kept, a generated task is independent once created
// and the ledger stays for audit.
func (r *scheduledTaskRepository) Delete(ctx context.Context, id uint, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Delete(&model.ScheduledGroupTask{}, id).Error
}

func (r *scheduledTaskRepository) SetActive(ctx context.Context, id uint, active bool, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.ScheduledGroupTask{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

// RecordExecution inserts one ledger row. It returns false without error when
// the (scheduled_task_id, executed_at) key already exists, meaning another
// tick already evaluated this occurrence.
func (r *scheduledTaskRepository) RecordExecution(ctx context.Context, execution *model.ScheduledTaskExecution, opts ...utils.DBOption) (bool, error) {
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(execution).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *scheduledTaskRepository) GetExecutionHistory(ctx context.Context, scheduledTaskID uint, limit int) ([]model.ScheduledTaskExecution, error) {
	var executions []model.ScheduledTaskExecution
	err := utils.ApplyOptions(r.db.WithContext(ctx),
		utils.WithWhere("scheduled_task_id = ?", scheduledTaskID),
		utils.WithLimit(limit),
	).Order("executed_at DESC").Find(&executions).Error
	if err != nil {
		return nil, err
	}
	return executions, nil
}

func (r *scheduledTaskRepository) GetLastSuccessfulExecution(ctx context.Context, scheduledTaskID uint) (*model.ScheduledTaskExecution, error) {
	var execution model.ScheduledTaskExecution
	err := r.db.WithContext(ctx).
		Where("scheduled_task_id = ? AND status = ? AND created_task_id IS NOT NULL",
			scheduledTaskID, model.ExecutionSuccess).
		Order("executed_at DESC").
		First(&execution).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &execution, nil
}

func (r *scheduledTaskRepository) DeleteExecutionsOlderThan(ctx context.Context, before time.Time, opts ...utils.DBOption) (int64, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("created_at < ?", before).
		Delete(&model.ScheduledTaskExecution{})
	return result.RowsAffected, result.Error
}
