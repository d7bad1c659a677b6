package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/rajivgeraev/puzzleswap-api/internal/config"
	"github.com/rajivgeraev/puzzleswap-api/internal/db"
	"github.com/rajivgeraev/puzzleswap-api/internal/events"
	"github.com/rajivgeraev/puzzleswap-api/internal/logger"
	"github.com/rajivgeraev/puzzleswap-api/internal/metrics"
	"github.com/rajivgeraev/puzzleswap-api/internal/server"
	"github.com/rajivgeraev/puzzleswap-api/internal/session"
	"github.com/rajivgeraev/puzzleswap-api/internal/storage"
	"github.com/rajivgeraev/puzzleswap-api/internal/utils"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.LoadConfig()
	if err != nil {
		_, _ = os.Stderr.WriteString("❌ Ошибка конфигурации: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Инициализируем базу данных
	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatal("Ошибка при инициализации базы данных", zap.Error(err))
	}
	defer pool.Close()

	objects, err := storage.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Ошибка при инициализации хранилища", zap.Error(err))
	}

	var revoker session.Revoker = session.NewMemoryRevoker()
	if cfg.RedisConfig.Addr != "" {
		rdb, err := session.NewRedisClient(ctx, cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB)
		if err != nil {
			log.Fatal("Ошибка при подключении к Redis", zap.Error(err))
		}
		defer rdb.Close()
		revoker = session.NewRedisRevoker(rdb)
	} else {
		log.Warn("REDIS_ADDR не задан, отозванные токены хранятся в памяти процесса")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSConfig.URL != "" {
		np, err := events.NewNATSPublisher(cfg.NATSConfig.URL, cfg.NATSConfig.Subject, log)
		if err != nil {
			log.Fatal("Ошибка при подключении к NATS", zap.Error(err))
		}
		publisher = np
	}
	defer publisher.Close()

	m := metrics.New()
	metricsServer := m.NewServer(cfg.MetricsPort, log)
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Сервер метрик остановлен", zap.Error(err))
		}
	}()

	app := server.New(server.Deps{
		Store:            db.NewPgStore(pool),
		Objects:          objects,
		Revoker:          revoker,
		Events:           publisher,
		Metrics:          m,
		JWT:              utils.NewJWTService(cfg.JWTSecret, cfg.JWTTTL),
		TelegramBotToken: cfg.TelegramBotToken,
		Log:              log,
	})

	go func() {
		<-ctx.Done()
		log.Info("Останавливаем сервер")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("Ошибка при остановке HTTP-сервера", zap.Error(err))
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Ошибка при остановке сервера метрик", zap.Error(err))
		}
	}()

	// Запускаем сервер
	log.Info("✅ PuzzleSwap API запущен", zap.String("port", cfg.HTTPPort))
	if err := app.Listen(":"+cfg.HTTPPort, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Error("HTTP-сервер завершился с ошибкой", zap.Error(err))
	}
}
