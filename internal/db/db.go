package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/rajivgeraev/puzzleswap-api/internal/config"
)

// Connect создаёт пул соединений с базой данных и проверяет его
func Connect(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pgxpool.Pool, error) {
	log.Info("Подключение к базе данных",
		zap.String("host", cfg.DatabaseConfig.Host),
		zap.String("database", cfg.DatabaseConfig.Name))

	// Создаем контекст с таймаутом для подключения
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка при разборе URL базы данных: %w", err)
	}

	poolConfig.MaxConns = cfg.DatabaseConfig.MaxConns
	poolConfig.MinConns = cfg.DatabaseConfig.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании пула соединений: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка при проверке соединения: %w", err)
	}

	log.Info("✅ Успешное подключение к базе данных")
	return pool, nil
}

// QueryTimeout ограничивает обработку запроса, который обращается только к базе
const QueryTimeout = 5 * time.Second

// GetContext возвращает контекст с таймаутом для запросов к базе данных
func GetContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, QueryTimeout)
}
