package utils

import (
	"context"
	"log"
	"runtime"
	"strings"

	"grouptasks/pkg/logger"
)

// ContainsInt checks if a slice of ints contains a specific value.
func ContainsInt(slice []int, v int) bool {
	for _, item := range slice {
		if item == v {
			return true
		}
	}
	return false
}

// ContainsUint checks if a slice of uints contains a specific value.
func ContainsUint(slice []uint, v uint) bool {
	for _, item := range slice {
		if item == v {
			return true
		}
	}
	return false
}

// GoSafe runs the given function in a new goroutine and recovers from any panic.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Panic Recovered] %v", r)
			}
		}()
		fn()
	}()
}

func ToPointer[T any](value T) *T {
	return &value
}

// ShouldContinue reports whether the context is still alive, logging the caller on cancellation.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		pc, _, _, ok := runtime.Caller(1)
		funcName := "unknown"
		if ok {
			fn := runtime.FuncForPC(pc)
			if fn != nil {
				parts := strings.Split(fn.Name(), "/")
				funcName = parts[len(parts)-1]
			}
		}

		log.Warn("Context cancelled",
			logger.StringField("caller", funcName),
		)
		return false
	default:
		return true
	}
}

// Truncate shortens s to max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
