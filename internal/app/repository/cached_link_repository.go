package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sifan077/ShortKey/internal/app/model"
	"github.com/sifan077/ShortKey/internal/infra/metrics"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "link:key:"

// CachedLinkRepository is a read-through Redis cache for GetByKey on top of
// another LinkRepository. Only active links are cached; entries are dropped
// whenever activation changes. Redis failures fall back to the inner store.
type CachedLinkRepository struct {
	LinkRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// cachedLink carries the fields needed to redirect and to count a click.
type cachedLink struct {
	ID        uint   `json:"id"`
	TargetURL string `json:"target_url"`
	Key       string `json:"key"`
	SecretKey string `json:"secret_key"`
}

// NewCachedLinkRepository wraps inner with a Redis cache.
func NewCachedLinkRepository(inner LinkRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedLinkRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedLinkRepository{
		LinkRepository: inner,
		client:         client,
		ttl:            ttl,
		logger:         logger,
	}
}

func (r *CachedLinkRepository) GetByKey(ctx context.Context, key string) (*model.Link, error) {
	data, err := r.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	switch {
	case err == nil:
		var cached cachedLink
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
			metrics.CacheHitsTotal.Inc()
			return &model.Link{
				ID:        cached.ID,
				TargetURL: cached.TargetURL,
				Key:       cached.Key,
				SecretKey: cached.SecretKey,
				IsActive:  true,
			}, nil
		}
		r.logger.Warn("dropping undecodable cache entry", zap.String("key", key))
		r.evict(ctx, key)
	case errors.Is(err, redis.Nil):
	default:
		r.logger.Warn("link cache get failed", zap.String("key", key), zap.Error(err))
	}
	metrics.CacheMissesTotal.Inc()

	link, err := r.LinkRepository.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cachedLink{
		ID:        link.ID,
		TargetURL: link.TargetURL,
		Key:       link.Key,
		SecretKey: link.SecretKey,
	})
	if err == nil {
		if err := r.client.Set(ctx, cacheKeyPrefix+key, payload, r.ttl).Err(); err != nil {
			r.logger.Warn("link cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return link, nil
}

// IncrementClicks evicts the entry when the store no longer sees the link as
// active, so a stale cache hit cannot keep resolving.
func (r *CachedLinkRepository) IncrementClicks(ctx context.Context, link *model.Link) error {
	err := r.LinkRepository.IncrementClicks(ctx, link)
	if errors.Is(err, ErrLinkNotFound) {
		r.evict(ctx, link.Key)
	}
	return err
}

func (r *CachedLinkRepository) SetActive(ctx context.Context, link *model.Link, active bool) error {
	if err := r.LinkRepository.SetActive(ctx, link, active); err != nil {
		return err
	}
	r.evict(ctx, link.Key)
	return nil
}

func (r *CachedLinkRepository) evict(ctx context.Context, key string) {
	if err := r.client.Del(ctx, cacheKeyPrefix+key).Err(); err != nil {
		r.logger.Warn("link cache delete failed", zap.String("key", key), zap.Error(err))
	}
}
