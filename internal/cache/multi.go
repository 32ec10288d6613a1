package cache

import (
	"time"

	"github.com/muratoffalex/linkreader/internal/logger"
)

// MultiLevelCache reads through memory to the persistent level and writes
// to both. Entries found only in the persistent level are copied to memory
// for memoryTTL.
type MultiLevelCache struct {
	memory    Cache
	db        Cache
	memoryTTL time.Duration
	logger    logger.Logger
}

func NewMultiLevelCache(memory, db Cache, memoryTTL time.Duration, logger logger.Logger) *MultiLevelCache {
	return &MultiLevelCache{
		memory:    memory,
		db:        db,
		memoryTTL: memoryTTL,
		logger:    logger,
	}
}

func (c *MultiLevelCache) Get(key string) ([]byte, bool) {
	if data, found := c.memory.Get(key); found {
		return data, true
	}

	if data, found := c.db.Get(key); found {
		if err := c.memory.Set(key, data, c.memoryTTL); err != nil {
			c.logger.WithError(err).Warn("Failed to refill memory cache")
		}
		return data, true
	}

	return nil, false
}

func (c *MultiLevelCache) Set(key string, data []byte, ttl time.Duration) error {
	if err := c.db.Set(key, data, ttl); err != nil {
		return err
	}
	_ = c.memory.Set(key, data, min(ttl, c.memoryTTL))
	return nil
}

func (c *MultiLevelCache) Delete(key string) error {
	if err := c.memory.Delete(key); err != nil {
		c.logger.WithError(err).Error("Failed to delete from memory cache")
	}

	if err := c.db.Delete(key); err != nil {
		c.logger.WithError(err).Error("Failed to delete from db cache")
		return err
	}

	return nil
}

func (c *MultiLevelCache) Clear() error {
	if err := c.memory.Clear(); err != nil {
		c.logger.WithError(err).Error("Failed to clear memory cache")
	}

	if err := c.db.Clear(); err != nil {
		c.logger.WithError(err).Error("Failed to clear db cache")
		return err
	}

	return nil
}
