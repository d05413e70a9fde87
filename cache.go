package taskflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bohemiyan/taskflow/zapLogger"
	"github.com/redis/go-redis/v9"
)

// cacheKey builds a namespaced redis key.
func (s *Service) cacheKey(parts ...any) string {
	key := s.cachePrefix
	for _, p := range parts {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}

// getCached decodes a cached JSON value into dst. It reports false on a miss
// or when redis is not configured.
func (s *Service) getCached(ctx context.Context, key string, dst any) bool {
	if s.redis == nil {
		return false
	}
	raw, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zapLogger.Log.Warnw("cache read failed", "key", key, "error", err)
		}
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// setCached stores v as JSON under key.
func (s *Service) setCached(ctx context.Context, key string, v any) error {
	if s.redis == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, raw, s.cacheTTL).Err()
}

// invalidateCache deletes every key under the given sub-namespace.
func (s *Service) invalidateCache(ctx context.Context, namespace string) error {
	if s.redis == nil {
		return nil
	}
	keys, err := s.redis.Keys(ctx, s.cacheKey(namespace, "*")).Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return s.redis.Del(ctx, keys...).Err()
	}
	return nil
}

// GetCacheStats returns cache statistics
func (s *Service) GetCacheStats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{
		"prefix":        s.cachePrefix,
		"redis_enabled": s.redis != nil,
		"ttl_minutes":   s.cacheTTL.Minutes(),
	}
	if s.redis != nil {
		keys, err := s.redis.Keys(ctx, s.cachePrefix+":*").Result()
		if err == nil {
			stats["cache_keys_count"] = len(keys)
		}
	}
	return stats
}

// ClearAllCache clears all cache entries
func (s *Service) ClearAllCache(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	keys, err := s.redis.Keys(ctx, s.cachePrefix+":*").Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return s.redis.Del(ctx, keys...).Err()
	}
	return nil
}

// WarmCache preloads roles into the cache
func (s *Service) WarmCache(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	var roles []Role
	if err := s.db.WithContext(ctx).Find(&roles).Error; err != nil {
		return err
	}

	pipe := s.redis.Pipeline()
	for _, role := range roles {
		raw, err := json.Marshal(role)
		if err != nil {
			return err
		}
		pipe.Set(ctx, s.cacheKey("role", role.Name), raw, s.cacheTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}
