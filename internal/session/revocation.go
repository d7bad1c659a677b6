// Package session хранит отозванные токены до истечения их срока.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker - список отозванных jti
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const keyPrefix = "revoked_jti:"

// RedisRevoker хранит отозванные jti в Redis с TTL до истечения токена
type RedisRevoker struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisClient подключается к Redis и проверяет соединение
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ошибка подключения к Redis %s: %w", addr, err)
	}
	return client, nil
}

// NewRedisRevoker создаёт хранилище отзывов поверх клиента
func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client, now: time.Now}
}

// Revoke помечает токен отозванным; уже истёкший токен не записывается
func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, keyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи отзыва токена: %w", err)
	}
	return nil
}

// IsRevoked проверяет наличие jti в списке
func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("ошибка проверки отзыва токена: %w", err)
	}
	return n > 0, nil
}

// MemoryRevoker - отзывы в памяти процесса, когда Redis не настроен
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevoker создаёт пустой список
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: map[string]time.Time{}, now: time.Now}
}

func (m *MemoryRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, id)
		}
	}
	if until.After(now) {
		m.revoked[tokenID] = until
	}
	return nil
}

func (m *MemoryRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.revoked[tokenID]
	return ok && exp.After(m.now()), nil
}
