package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Log       Logger         `mapstructure:"logger"`
	DB        Database       `mapstructure:"database"`
	API       API            `mapstructure:"api"`
	Scheduler Scheduler      `mapstructure:"scheduler"`
	Holiday   Holiday        `mapstructure:"holiday"`
	Cache     Cache          `mapstructure:"cache"`
	Telegram  TelegramConfig `mapstructure:"telegram"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type Scheduler struct {
	// TickCron drives the evaluation loop, normally every minute.
	TickCron             string        `mapstructure:"tick_cron"`
	MaxConcurrency       int           `mapstructure:"max_concurrency"`
	TimeoutDuration      time.Duration `mapstructure:"timeout_duration"`
	TickTolerance        time.Duration `mapstructure:"tick_tolerance"`
	HolidayAdvanceCap    int           `mapstructure:"holiday_advance_cap"`
	RetentionCron        string        `mapstructure:"retention_cron"`
	HistoryRetentionDays int           `mapstructure:"history_retention_days"`
}

type Holiday struct {
	BaseURL          string        `mapstructure:"base_url"`
	CountryCode      string        `mapstructure:"country_code"`
	BaseTimeout      time.Duration `mapstructure:"base_timeout"`
	MaxRequestPerMin int           `mapstructure:"max_request_per_min"`
}

type API struct {
	Port                int `mapstructure:"port"`
	MaxRequestPerSecond int `mapstructure:"max_request_per_second"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type TelegramConfig struct {
	Enabled                   bool          `mapstructure:"enabled"`
	BotToken                  string        `mapstructure:"bot_token"`
	ChatID                    string        `mapstructure:"chat_id"`
	TimeoutDuration           time.Duration `mapstructure:"timeout_duration"`
	MaxGlobalRequestPerSecond int           `mapstructure:"max_global_request_per_second"`
}

func Load() (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigName("config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "json")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.max_request_per_second", 20)
	viper.SetDefault("scheduler.tick_cron", "* * * * *")
	viper.SetDefault("scheduler.max_concurrency", 10)
	viper.SetDefault("scheduler.timeout_duration", 30*time.Second)
	viper.SetDefault("scheduler.tick_tolerance", time.Minute)
	viper.SetDefault("scheduler.holiday_advance_cap", 14)
	viper.SetDefault("scheduler.retention_cron", "0 3 * * *")
	viper.SetDefault("scheduler.history_retention_days", 180)
	viper.SetDefault("holiday.base_url", "https://date.nager.at/api/v3")
	viper.SetDefault("holiday.country_code", "JP")
	viper.SetDefault("holiday.base_timeout", 10*time.Second)
	viper.SetDefault("holiday.max_request_per_min", 30)
	viper.SetDefault("cache.default_expiration", 12*time.Hour)
	viper.SetDefault("cache.cleanup_interval", time.Hour)
}
