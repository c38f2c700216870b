package state

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladimiradmaev/mediplus/internal/logger"
)

// DefaultTTL expires idle conversations
const DefaultTTL = 24 * time.Hour

// RedisManager manages user states using Redis
type RedisManager struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisManager creates a Redis-based state manager on an existing client
func NewRedisManager(client *redis.Client, prefix string, ttl time.Duration) *RedisManager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisManager{client: client, prefix: prefix, ttl: ttl, timeout: 3 * time.Second}
}

func (m *RedisManager) stateKey(userID int64) string {
	return fmt.Sprintf("%suser:%d:state", m.prefix, userID)
}

func (m *RedisManager) tempKey(userID int64) string {
	return fmt.Sprintf("%suser:%d:temp", m.prefix, userID)
}

func (m *RedisManager) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}

// SetUserState sets the state for a user with TTL
func (m *RedisManager) SetUserState(userID int64, state string) {
	ctx, cancel := m.ctx()
	defer cancel()
	if err := m.client.Set(ctx, m.stateKey(userID), state, m.ttl).Err(); err != nil {
		logger.Warn("Failed to store bot state", "user_id", userID, "error", err)
	}
}

// GetUserState gets the state for a user
func (m *RedisManager) GetUserState(userID int64) string {
	ctx, cancel := m.ctx()
	defer cancel()
	val, err := m.client.Get(ctx, m.stateKey(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Failed to load bot state", "user_id", userID, "error", err)
		}
		return None
	}
	return val
}

// ClearUserState clears the state for a user
func (m *RedisManager) ClearUserState(userID int64) {
	ctx, cancel := m.ctx()
	defer cancel()
	m.client.Del(ctx, m.stateKey(userID))
}

// SetTempData sets temporary data for a user
func (m *RedisManager) SetTempData(userID int64, key, value string) {
	ctx, cancel := m.ctx()
	defer cancel()
	k := m.tempKey(userID)
	pipe := m.client.TxPipeline()
	pipe.HSet(ctx, k, key, value)
	pipe.Expire(ctx, k, m.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("Failed to store bot temp data", "user_id", userID, "key", key, "error", err)
	}
}

// GetTempData gets temporary data for a user
func (m *RedisManager) GetTempData(userID int64, key string) (string, bool) {
	ctx, cancel := m.ctx()
	defer cancel()
	val, err := m.client.HGet(ctx, m.tempKey(userID), key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// ClearTempData removes the given keys, or all temp data when none are given
func (m *RedisManager) ClearTempData(userID int64, keys ...string) {
	ctx, cancel := m.ctx()
	defer cancel()
	if len(keys) == 0 {
		m.client.Del(ctx, m.tempKey(userID))
		return
	}
	m.client.HDel(ctx, m.tempKey(userID), keys...)
}
