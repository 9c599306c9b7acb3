package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
)

const settingsCacheKey = "projectpay:settings"

// RedisSettingsCache stores the settings snapshot as one JSON value.
type RedisSettingsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSettingsCache(rdb *redis.Client, ttl time.Duration) *RedisSettingsCache {
	return &RedisSettingsCache{rdb: rdb, ttl: ttl}
}

func (c *RedisSettingsCache) Get(ctx context.Context) (models.SettingsSnapshot, bool) {
	raw, err := c.rdb.Get(ctx, settingsCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Settings cache read failed: %v", err)
		}
		return nil, false
	}

	var snap models.SettingsSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		log.Printf("Settings cache holds invalid data: %v", err)
		return nil, false
	}
	return snap, true
}

func (c *RedisSettingsCache) Set(ctx context.Context, snapshot models.SettingsSnapshot) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, settingsCacheKey, raw, c.ttl).Err(); err != nil {
		log.Printf("Settings cache write failed: %v", err)
	}
}

func (c *RedisSettingsCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, settingsCacheKey).Err(); err != nil {
		log.Printf("Settings cache invalidation failed: %v", err)
	}
}
