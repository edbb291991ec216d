package service

import (
	"math/rand"

	"grouptasks/config"
	"grouptasks/internal/repository"
	"grouptasks/pkg/logger"
)

type Service struct {
	ScheduledTaskService ScheduledTaskService
	SchedulerService     SchedulerService
	ExecutionEngine      ExecutionEngine
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	notifier Notifier,
	rnd *rand.Rand,
) *Service {
	engine := NewExecutionEngine(
		cfg,
		log,
		repo.ScheduledTaskRepo,
		repo.TaskRepo,
		repo.GroupRepo,
		repo.UnitOfWork,
		repo.HolidayRepo,
		notifier,
		rnd,
	)

	return &Service{
		ScheduledTaskService: NewScheduledTaskService(cfg, log, repo.ScheduledTaskRepo),
		SchedulerService:     NewSchedulerService(cfg, log, repo.ScheduledTaskRepo, engine),
		ExecutionEngine:      engine,
	}
}
