package middleware

import (
	"time"

	applogger "SerialScope/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLog writes one structured line per request. 5xx responses log
// at error level so the log collector can aggregate them.
func RequestLog(logger *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			fields := []applogger.Field{
				applogger.String("method", c.Request().Method),
				applogger.String("path", c.Path()),
				applogger.Int("status", c.Response().Status),
				applogger.Duration("took", time.Since(start)),
			}
			if c.Response().Status >= 500 {
				logger.Error("http request", fields...)
			} else {
				logger.Debug("http request", fields...)
			}
			return err
		}
	}
}
