package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// OpenSQL открывает соединение database/sql через драйвер lib/pq
func OpenSQL(databaseURL string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка при открытии соединения: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ошибка при проверке соединения: %w", err)
	}
	return conn, nil
}

// RunMigrations применяет *.sql из каталога в лексикографическом порядке.
// Применённые файлы запоминаются в schema_migrations и повторно не выполняются.
func RunMigrations(conn *sql.DB, migrationsDir string, log *zap.Logger) error {
	if migrationsDir == "" {
		return fmt.Errorf("не указан каталог миграций")
	}

	files, err := migrationFiles(migrationsDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Info("Файлы миграций не найдены", zap.String("dir", migrationsDir))
		return nil
	}

	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("ошибка при создании schema_migrations: %w", err)
	}

	for _, name := range files {
		var applied bool
		err := conn.QueryRow(`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name).Scan(&applied)
		if err != nil {
			return fmt.Errorf("ошибка при проверке миграции %s: %w", name, err)
		}
		if applied {
			log.Debug("Миграция уже применена", zap.String("file", name))
			continue
		}

		content, err := os.ReadFile(filepath.Join(migrationsDir, name))
		if err != nil {
			return fmt.Errorf("ошибка при чтении миграции %s: %w", name, err)
		}

		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("ошибка при начале транзакции: %w", err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("ошибка при выполнении миграции %s: %w", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
			tx.Rollback()
			return fmt.Errorf("ошибка при записи миграции %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("ошибка при фиксации миграции %s: %w", name, err)
		}
		log.Info("Миграция применена", zap.String("file", name))
	}
	return nil
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении каталога миграций: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
