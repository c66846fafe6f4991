// Package idempotency records client-supplied request keys so a retried
// mutating call is applied at most once.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"procurement_flow_go/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultTTL is how long a consumed key blocks replays
const DefaultTTL = 24 * time.Hour

// ErrEmptyKey is returned when the client key is blank
var ErrEmptyKey = errors.New("idempotency key is empty")

// Store consumes keys atomically. Consume reports true the first time a key is
// seen inside its TTL and false for every repeat.
type Store interface {
	Consume(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Key builds the composite "{action}:{caseId}:{clientKey}"
func Key(action, caseID, clientKey string) (string, error) {
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		return "", ErrEmptyKey
	}
	return fmt.Sprintf("%s:%s:%s", action, caseID, clientKey), nil
}

// GormStore keeps keys in the idempotency_keys table
type GormStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewGormStore creates a database-backed store
func NewGormStore(db *gorm.DB, ttl time.Duration) *GormStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &GormStore{db: db, ttl: ttl, now: time.Now}
}

// Consume implements Store
func (s *GormStore) Consume(ctx context.Context, key string) (bool, error) {
	now := s.now()
	db := s.db.WithContext(ctx)

	// An expired row no longer blocks the key
	if err := db.Where("composite_key = ? AND expires_at <= ?", key, now).
		Delete(&models.IdempotencyKey{}).Error; err != nil {
		return false, fmt.Errorf("failed to reclaim idempotency key: %w", err)
	}

	row := models.IdempotencyKey{Key: key, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		return false, fmt.Errorf("failed to store idempotency key: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Release forgets a key so the request can be retried after a failure
func (s *GormStore) Release(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("composite_key = ?", key).Delete(&models.IdempotencyKey{}).Error
}

// Purge removes expired keys and returns how many were deleted
func (s *GormStore) Purge(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.IdempotencyKey{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("[IDEMPOTENCY] Purged %d expired keys", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// RedisStore keeps keys in Redis with SET NX and a TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(key string) string {
	return "idem:" + key
}

// Consume implements Store
func (s *RedisStore) Consume(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, redisKey(key), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to store idempotency key: %w", err)
	}
	return ok, nil
}

// Release implements Store
func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKey(key)).Err()
}
