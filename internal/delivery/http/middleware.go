package http

import (
	"net/http"

	"grouptasks/internal/dto"
	"grouptasks/pkg/ratelimit"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimit throttles requests per client IP.
func RateLimit(requestsPerSecond int) echo.MiddlewareFunc {
	store := ratelimit.NewLimiterStore(rate.Limit(requestsPerSecond), requestsPerSecond*2)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !store.GetLimiter(c.RealIP()).Allow() {
				return c.JSON(http.StatusTooManyRequests, dto.NewBaseResponse(http.StatusTooManyRequests, "too many requests", nil))
			}
			return next(c)
		}
	}
}
