package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const sceneImageKeyPrefix = "rsweb:scene:image:"

// CachedStore is a Store whose scene images are read through redis.
//
// Redis failures are logged and the call falls through to the wrapped store.
type CachedStore struct {
	Store

	redis  *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewCachedStore(store Store, client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *CachedStore {
	return &CachedStore{
		Store:  store,
		redis:  client,
		ttl:    ttl,
		logger: logger,
	}
}

func sceneImageKey(ts int64) string {
	return sceneImageKeyPrefix + strconv.FormatInt(ts, 10)
}

// SceneImage returns the cached image, loading and caching it on a miss.
func (s *CachedStore) SceneImage(ctx context.Context, ts int64) ([]byte, error) {
	key := sceneImageKey(ts)

	img, err := s.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return img, nil
	case errors.Is(err, redis.Nil):
	default:
		s.logger.Warn().Err(err).Int64("timestamp", ts).Msg("scene image cache read failed")
	}

	img, err = s.Store.SceneImage(ctx, ts)
	if err != nil {
		return nil, err
	}

	if err := s.redis.Set(ctx, key, img, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Int64("timestamp", ts).Msg("scene image cache write failed")
	}
	return img, nil
}

// Warm loads the images of the given scenes into the cache, skipping those
// already cached. It returns how many images were fetched from the store.
func (s *CachedStore) Warm(ctx context.Context, timestamps []int64) (int, error) {
	fetched := 0
	for _, ts := range timestamps {
		if err := ctx.Err(); err != nil {
			return fetched, err
		}

		n, err := s.redis.Exists(ctx, sceneImageKey(ts)).Result()
		if err == nil && n > 0 {
			continue
		}

		if _, err := s.SceneImage(ctx, ts); err != nil {
			return fetched, err
		}
		fetched++
	}
	return fetched, nil
}
