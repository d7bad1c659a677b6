package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/rajivgeraev/puzzleswap-api/internal/config"
	"github.com/rajivgeraev/puzzleswap-api/internal/db"
	"github.com/rajivgeraev/puzzleswap-api/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		_, _ = os.Stderr.WriteString("❌ Ошибка конфигурации: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	conn, err := db.OpenSQL(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Ошибка подключения к базе данных", zap.Error(err))
	}
	defer conn.Close()

	if err := db.RunMigrations(conn, cfg.MigrationsDir, log); err != nil {
		log.Fatal("Ошибка при применении миграций", zap.Error(err))
	}
	log.Info("✅ Миграции применены", zap.String("dir", cfg.MigrationsDir))
}
