package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const templateCachePrefix = "template:current:"

// TemplateCache keeps current template records in redis. A nil cache is valid
// and does nothing.
type TemplateCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewTemplateCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *TemplateCache {
	if client == nil {
		return nil
	}
	return &TemplateCache{
		client: client,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "template_cache")),
	}
}

func (c *TemplateCache) Get(ctx context.Context, templateID string) (*models.Template, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, templateCachePrefix+templateID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("template cache read failed", zap.String("template_id", templateID), zap.Error(err))
		}
		return nil, false
	}

	var t models.Template
	if err := json.Unmarshal(raw, &t); err != nil {
		c.logger.Warn("template cache entry corrupt", zap.String("template_id", templateID), zap.Error(err))
		return nil, false
	}
	return &t, true
}

func (c *TemplateCache) Set(ctx context.Context, t *models.Template) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, templateCachePrefix+t.TemplateID, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("template cache write failed", zap.String("template_id", t.TemplateID), zap.Error(err))
	}
}

func (c *TemplateCache) Invalidate(ctx context.Context, templateID string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, templateCachePrefix+templateID).Err(); err != nil {
		c.logger.Warn("template cache invalidate failed", zap.String("template_id", templateID), zap.Error(err))
	}
}
