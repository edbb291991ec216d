package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"grouptasks/config"
	"grouptasks/pkg/logger"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type mapCache struct {
	values map[string]interface{}
}

func newMapCache() *mapCache {
	return &mapCache{values: map[string]interface{}{}}
}

func (c *mapCache) Set(key string, value interface{}, _ time.Duration) { c.values[key] = value }
func (c *mapCache) Get(key string) (interface{}, bool) {
	v, ok := c.values[key]
	return v, ok
}
func (c *mapCache) Delete(key string) { delete(c.values, key) }
func (c *mapCache) Flush()            { c.values = map[string]interface{}{} }

func TestHolidayRepository_IsHoliday(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/PublicHolidays/2026/JP", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"date":"2026-01-01","localName":"元日","name":"New Year's Day"},
			{"date":"2026-05-05","localName":"こどもの日","name":"Children's Day"}
		]`))
	}))
	defer server.Close()

	cfg := &config.Config{
		Holiday: config.Holiday{
			BaseURL:          server.URL,
			CountryCode:      "JP",
			BaseTimeout:      5 * time.Second,
			MaxRequestPerMin: 30,
		},
		Cache: config.Cache{DefaultExpiration: time.Hour},
	}
	repo := NewHolidayRepository(cfg, &logger.Logger{Logger: zap.NewNop()}, newMapCache())

	holiday, err := repo.IsHoliday(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.True(t, holiday)

	holiday, err = repo.IsHoliday(context.Background(), time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.False(t, holiday)

	holiday, err = repo.IsHoliday(context.Background(), time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.True(t, holiday)

	// The whole country-year is fetched once and served from cache after.
	assert.Equal(t, 1, requests)
}

func TestHolidayRepository_IsHoliday_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := &config.Config{
		Holiday: config.Holiday{
			BaseURL:          server.URL,
			CountryCode:      "JP",
			BaseTimeout:      5 * time.Second,
			MaxRequestPerMin: 30,
		},
	}
	repo := NewHolidayRepository(cfg, &logger.Logger{Logger: zap.NewNop()}, newMapCache())

	_, err := repo.IsHoliday(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
}
