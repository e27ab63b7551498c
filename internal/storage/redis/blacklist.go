// redis — чёрный список access-токенов в Redis.
//
// Каждый jti хранится отдельным ключем с TTL до естественного истечения
// токена, поэтому записи вытесняются самим Redis и периодическая очистка
// не требуется.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pribylovaa/go-shop-auth/internal/storage"
)

const defaultPrefix = "shop-auth:"

// Blacklist — реализация storage.BlacklistStorage поверх go-redis.
type Blacklist struct {
	rdb    *redis.Client
	prefix string
}

// New создаёт клиент Redis из URL (например, redis://:pass@host:6379/0)
// и проверяет соединение. Пустой prefix заменяется на "shop-auth:".
func New(ctx context.Context, redisURL, prefix string) (*Blacklist, error) {
	const op = "storage.redis.New"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithClient(rdb, prefix), nil
}

// NewWithClient оборачивает готовый клиент.
func NewWithClient(rdb *redis.Client, prefix string) *Blacklist {
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &Blacklist{rdb: rdb, prefix: prefix}
}

// Client отдаёт клиент Redis для других компонентов (rate limiter).
func (b *Blacklist) Client() *redis.Client { return b.rdb }

func (b *Blacklist) key(jti string) string { return b.prefix + "bl:" + jti }

// BlacklistToken кладёт jti с TTL до expiresAt. Уже истёкший токен
// не записывается: проверка подписи отклонит его и так.
func (b *Blacklist) BlacklistToken(ctx context.Context, jti string, expiresAt time.Time) error {
	const op = "storage.redis.BlacklistToken"

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := b.rdb.Set(ctx, b.key(jti), expiresAt.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// IsBlacklisted проверяет наличие ключа jti.
func (b *Blacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	const op = "storage.redis.IsBlacklisted"

	n, err := b.rdb.Exists(ctx, b.key(jti)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

// DeleteExpiredBlacklist — no-op: ключи истекают по TTL.
func (b *Blacklist) DeleteExpiredBlacklist(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// Ping проверяет доступность Redis (readiness).
func (b *Blacklist) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

// Close закрывает клиент Redis.
func (b *Blacklist) Close() error { return b.rdb.Close() }

var _ storage.BlacklistStorage = (*Blacklist)(nil)
