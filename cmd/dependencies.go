package cmd

import (
	"context"

	"grouptasks/config"
	"grouptasks/pkg/cache"
	"grouptasks/pkg/logger"
	"grouptasks/pkg/postgres"
	"grouptasks/pkg/telegram"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type AppDependency struct {
	db        *postgres.DB
	cfg       *config.Config
	log       *logger.Logger
	validator *goValidator.Validate
	echo      *echo.Echo
	cache     cache.Cache
	notifier  *telegram.Notifier
}

func NewAppDependency(ctx context.Context) (*AppDependency, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}

	if cfg.Telegram.Enabled {
		alertCfg := logger.AlertConfig{BotToken: cfg.Telegram.BotToken, ChatID: cfg.Telegram.ChatID}
		log = &logger.Logger{Logger: log.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return logger.NewAlertCore(alertCfg, core, zapcore.ErrorLevel)
		}))}
	}

	db, err := postgres.NewDB(cfg.DB, log)
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return nil, err
	}

	notifier, err := telegram.NewNotifier(&cfg.Telegram, log)
	if err != nil {
		log.Error("Failed to create telegram notifier", zap.Error(err))
		return nil, err
	}

	return &AppDependency{
		cfg:       cfg,
		log:       log,
		validator: goValidator.New(),
		db:        db,
		echo:      echo.New(),
		cache:     cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
		notifier:  notifier,
	}, nil
}

func (d *AppDependency) Close() error {
	d.log.Info("Closing app dependency")
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
