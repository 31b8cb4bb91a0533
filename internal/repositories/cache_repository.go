package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss: ключа нет в кеше.
var ErrCacheMiss = errors.New("cache miss")

// CacheRepositoryInterface порт кеша: настройки и счётчики входа.
type CacheRepositoryInterface interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key ...string) error
	// Incr увеличивает счётчик; TTL выставляется при первом инкременте.
	Incr(ctx context.Context, key string, expiration time.Duration) (int64, error)
}

// Пространства ключей в redis.
func SettingCacheKey(key string) string { return "setting:" + key }

func LoginAttemptsKey(userID uint64) string { return fmt.Sprintf("login_attempts:%d", userID) }

func LockoutKey(userID uint64) string { return fmt.Sprintf("lockout:%d", userID) }
