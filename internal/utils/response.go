package utils

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ErrorJSON отправляет {"error": msg} с заданным статусом
func ErrorJSON(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// InternalError пишет ошибку в лог и отвечает 500 с её текстом
func InternalError(c fiber.Ctx, log *zap.Logger, err error) error {
	log.Error("Ошибка обработки запроса",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))
	return ErrorJSON(c, fiber.StatusInternalServerError, err.Error())
}
