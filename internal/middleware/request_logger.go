package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// RequestLogger пишет строку access-лога на каждый запрос
func RequestLogger(log *zap.Logger) fiber.Handler {
	log = log.Named("http")
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if id := IdentityFrom(c); id != nil {
			fields = append(fields, zap.Stringer("user_id", id.UserID))
		}
		if err != nil {
			log.Warn("request failed", append(fields, zap.Error(err))...)
			return err
		}
		log.Info("request", fields...)
		return nil
	}
}
