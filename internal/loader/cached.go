package loader

import (
	"context"
	"time"

	"github.com/muratoffalex/linkreader/internal/cache"
	"github.com/muratoffalex/linkreader/internal/logger"
)

const cacheKeyPrefix = "content:"

// CachedLoader serves repeated loads of the same normalized URL from cache.
// Only successful results are stored; cache errors never fail a load.
type CachedLoader struct {
	next      ContentLoader
	cache     cache.Cache
	normalize func(string) string
	ttl       time.Duration
	logger    logger.Logger
}

func NewCachedLoader(next ContentLoader, c cache.Cache, aliases *AliasTable, ttl time.Duration, l logger.Logger) *CachedLoader {
	return &CachedLoader{
		next:      next,
		cache:     c,
		normalize: aliases.Normalize,
		ttl:       ttl,
		logger:    l,
	}
}

func (c *CachedLoader) Load(ctx context.Context, url string) (string, error) {
	key := cacheKeyPrefix + c.normalize(url)

	if data, found := c.cache.Get(key); found {
		c.logger.WithField("url", url).Debug("Content served from cache")
		return string(data), nil
	}

	content, err := c.next.Load(ctx, url)
	if err != nil {
		return "", err
	}

	if err := c.cache.Set(key, []byte(content), c.ttl); err != nil {
		c.logger.WithError(err).WithField("url", url).Warn("Failed to cache content")
	}

	return content, nil
}
