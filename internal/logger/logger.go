package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New создаёт zap-логгер с заданным уровнем и форматом (json | console)
func New(level, format string) *zap.Logger {
	var zapConfig zap.Config
	if strings.EqualFold(level, "debug") {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if err := zapConfig.Level.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️ неверный LOG_LEVEL %q, используем info\n", level)
		zapConfig.Level.SetLevel(zapcore.InfoLevel)
	}

	if strings.EqualFold(format, "console") || strings.EqualFold(format, "text") {
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig.Encoding = "json"
	}

	logger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ ошибка инициализации логгера: %v\n", err)
		logger, _ = zap.NewProduction()
	}
	return logger
}
