package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config структура конфигурации
type Config struct {
	AppEnv           string
	HTTPPort         string
	JWTSecret        string
	JWTTTL           time.Duration
	TelegramBotToken string
	DatabaseURL      string
	MigrationsDir    string
	DatabaseConfig   DatabaseConfig
	StorageConfig    StorageConfig
	CloudinaryConfig CloudinaryConfig
	MinioConfig      MinioConfig
	RedisConfig      RedisConfig
	NATSConfig       NATSConfig
	MetricsPort      string
	LogLevel         string
	LogFormat        string
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// StorageConfig выбирает драйвер объектного хранилища для фотографий
type StorageConfig struct {
	Driver string // cloudinary | minio
	Bucket string
}

// CloudinaryConfig содержит конфигурацию для Cloudinary
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
}

// MinioConfig содержит конфигурацию S3-совместимого хранилища
type MinioConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	PublicBaseURL string
}

// RedisConfig - хранилище отозванных сессий. Пустой Addr отключает Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NATSConfig - брокер событий смены сессии. Пустой URL отключает публикацию.
type NATSConfig struct {
	URL     string
	Subject string
}

// LoadConfig загружает переменные из .env и окружения
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env файл не найден, используем переменные окружения")
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "puzzleswap"),
		Password: getEnv("PGPASSWORD", "puzzleswap"),
		Name:     getEnv("PGDATABASE", "puzzleswap"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
		MaxConns: int32(getEnvInt("PG_MAX_CONNS", 10)),
		MinConns: int32(getEnvInt("PG_MIN_CONNS", 2)),
	}

	// Формируем строку подключения к базе данных, если она не задана целиком
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		dbURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)
	}

	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "production"),
		HTTPPort:         getEnv("PORT", "8080"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTTTL:           getEnvDuration("JWT_TTL", 24*time.Hour),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		DatabaseURL:      dbURL,
		MigrationsDir:    getEnv("MIGRATIONS_DIR", "migrations"),
		DatabaseConfig:   dbConfig,
		StorageConfig: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", "cloudinary"),
			Bucket: getEnv("STORAGE_BUCKET", "puzzle-photos"),
		},
		CloudinaryConfig: CloudinaryConfig{
			CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
			UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", ""),
		},
		MinioConfig: MinioConfig{
			Endpoint:      getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:     getEnv("MINIO_SECRET_KEY", ""),
			UseSSL:        getEnvBool("MINIO_USE_SSL", false),
			PublicBaseURL: getEnv("MINIO_PUBLIC_BASE_URL", ""),
		},
		RedisConfig: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		NATSConfig: NATSConfig{
			URL:     getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_SESSION_SUBJECT", "puzzleswap.session"),
		},
		MetricsPort: getEnv("METRICS_PORT", "9090"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment сообщает, запущено ли приложение локально
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StorageConfig.Driver {
	case "cloudinary", "minio":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageConfig.Driver)
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}

// getEnv получает переменную окружения или использует дефолтное значение
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("⚠️ %s=%q не является числом, используем %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("⚠️ %s=%q не является длительностью, используем %s", key, value, defaultValue)
	}
	return defaultValue
}
