package repository

import (
	"context"
	"fmt"
	"time"

	"grouptasks/config"
	"grouptasks/pkg/cache"
	"grouptasks/pkg/common"
	"grouptasks/pkg/httpclient"
	"grouptasks/pkg/logger"
	"grouptasks/pkg/ratelimit"
)

// HolidayRepository is the default schedule.HolidayCalendar backed by a
// public-holiday HTTP API. Whole country-years are fetched once and cached,
// the engine then classifies dates without further network calls.
type HolidayRepository interface {
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}

type publicHolidayDTO struct {
	Date      string `json:"date"`
	LocalName string `json:"localName"`
	Name      string `json:"name"`
}

type holidayRepository struct {
	cfg     *config.Config
	log     *logger.Logger
	client  httpclient.HTTPClient
	cache   cache.Cache
	limiter *ratelimit.TokenLimiter
}

func NewHolidayRepository(cfg *config.Config, log *logger.Logger, inmemoryCache cache.Cache) HolidayRepository {
	return &holidayRepository{
		cfg:     cfg,
		log:     log,
		client:  httpclient.New(cfg.Holiday.BaseURL, cfg.Holiday.BaseTimeout),
		cache:   inmemoryCache,
		limiter: ratelimit.NewTokenLimiter(cfg.Holiday.MaxRequestPerMin),
	}
}

func (r *holidayRepository) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	holidays, err := r.holidaysForYear(ctx, date.Year())
	if err != nil {
		return false, err
	}
	_, ok := holidays[date.Format("2006-01-02")]
	return ok, nil
}

func (r *holidayRepository) holidaysForYear(ctx context.Context, year int) (map[string]struct{}, error) {
	key := fmt.Sprintf(common.KEY_HOLIDAYS_YEAR, r.cfg.Holiday.CountryCode, year)
	if cached, found := cache.GetFromCache[map[string]struct{}](r.cache, key); found {
		return cached, nil
	}

	if err := r.limiter.Wait(ctx, 1); err != nil {
		return nil, fmt.Errorf("holiday api rate limit: %w", err)
	}

	var dtos []publicHolidayDTO
	endpoint := fmt.Sprintf("/PublicHolidays/%d/%s", year, r.cfg.Holiday.CountryCode)
	resp, err := r.client.Get(ctx, endpoint, nil, nil, &dtos)
	if err != nil {
		return nil, fmt.Errorf("fetch public holidays %d: %w", year, err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("fetch public holidays %d: unexpected status %d", year, resp.StatusCode)
	}

	holidays := make(map[string]struct{}, len(dtos))
	for _, dto := range dtos {
		holidays[dto.Date] = struct{}{}
	}

	r.cache.Set(key, holidays, r.cfg.Cache.DefaultExpiration)
	r.log.DebugContext(ctx, "Loaded holiday calendar",
		logger.StringField("country", r.cfg.Holiday.CountryCode),
		logger.IntField("year", year),
		logger.IntField("holidays", len(holidays)),
	)

	return holidays, nil
}
