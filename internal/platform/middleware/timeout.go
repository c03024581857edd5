package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// TimeoutConfig bounds portal requests. Requests whose path ends in one of
// LongSuffixes (exports, backups, restores, imports) get Long; everything else
// gets Default. Websocket upgrades under /ws are never bounded.
type TimeoutConfig struct {
	Default      time.Duration
	Long         time.Duration
	LongSuffixes []string
}

// DefaultLongSuffixes are the portal routes that call the backend with the
// export timeout.
var DefaultLongSuffixes = []string{"/export", "/backup", "/restore", "/import-students"}

func (cfg TimeoutConfig) deadline(path string) time.Duration {
	for _, s := range cfg.LongSuffixes {
		if strings.HasSuffix(path, s) {
			return cfg.Long
		}
	}
	return cfg.Default
}

// RequestTimeout answers 504 with a retry hint when a handler outlives its
// deadline. A handler that already started writing keeps its response.
func RequestTimeout(cfg TimeoutConfig) echo.MiddlewareFunc {
	if cfg.Long < cfg.Default {
		cfg.Long = cfg.Default
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if path == "/ws" || strings.HasPrefix(path, "/ws/") {
				return next(c)
			}
			d := cfg.deadline(path)
			if d <= 0 {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), d)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			done := make(chan error, 1)
			go func() { done <- next(c) }()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return ctx.Err()
				}
				if c.Response().Committed {
					return nil
				}
				return c.JSON(http.StatusGatewayTimeout, map[string]interface{}{
					"message": "The request took too long. Please try again.",
					"kind":    "network",
					"retry":   true,
				})
			}
		}
	}
}
