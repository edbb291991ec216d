package repository

import (
	"grouptasks/config"
	"grouptasks/pkg/cache"
	"grouptasks/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	ScheduledTaskRepo ScheduledTaskRepository
	TaskRepo          TaskRepository
	GroupRepo         GroupRepository
	HolidayRepo       HolidayRepository
	UnitOfWork        UnitOfWork
}

func NewRepository(cfg *config.Config, inmemoryCache cache.Cache, db *gorm.DB, log *logger.Logger) *Repository {
	return &Repository{
		ScheduledTaskRepo: NewScheduledTaskRepository(db),
		TaskRepo:          NewTaskRepository(db),
		GroupRepo:         NewGroupRepository(db),
		HolidayRepo:       NewHolidayRepository(cfg, log, inmemoryCache),
		UnitOfWork:        NewUnitOfWork(db),
	}
}
