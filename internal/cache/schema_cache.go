// Package cache keeps the read-through redis cache in front of call schemas.
// Forms are read on every submission but change rarely, so cached schemas cut
// the hottest query; any field mutation invalidates the call's entry.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/utils"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when the key is absent; callers fall through to
// the repository.
var ErrCacheMiss = errors.New("cache miss")

const schemaTTL = 5 * time.Minute

// SchemaCache stores call schemas (call plus ordered fields).
type SchemaCache interface {
	GetCall(ctx context.Context, callID uint) (*models.Call, error)
	SetCall(ctx context.Context, call *models.Call) error
	InvalidateCall(ctx context.Context, callID uint) error
}

type redisSchemaCache struct {
	client *redis.Client
	logger utils.Logger
}

func NewRedisSchemaCache(client *redis.Client, logger utils.Logger) SchemaCache {
	return &redisSchemaCache{client: client, logger: logger}
}

func schemaKey(callID uint) string {
	return fmt.Sprintf("edital:schema:%d", callID)
}

func (c *redisSchemaCache) GetCall(ctx context.Context, callID uint) (*models.Call, error) {
	data, err := c.client.Get(ctx, schemaKey(callID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("schema cache get: %w", err)
	}

	var call models.Call
	if err := json.Unmarshal(data, &call); err != nil {
		// A corrupt entry behaves like a miss; it will be overwritten.
		c.logger.Warn("Dropping undecodable schema cache entry", "call_id", callID, "error", err)
		return nil, ErrCacheMiss
	}
	return &call, nil
}

func (c *redisSchemaCache) SetCall(ctx context.Context, call *models.Call) error {
	data, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("schema cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, schemaKey(call.ID), data, schemaTTL).Err(); err != nil {
		return fmt.Errorf("schema cache set: %w", err)
	}
	return nil
}

func (c *redisSchemaCache) InvalidateCall(ctx context.Context, callID uint) error {
	if err := c.client.Del(ctx, schemaKey(callID)).Err(); err != nil {
		return fmt.Errorf("schema cache invalidate: %w", err)
	}
	return nil
}

// NoopSchemaCache is used when redis is not configured; every lookup misses.
type NoopSchemaCache struct{}

func (NoopSchemaCache) GetCall(context.Context, uint) (*models.Call, error) { return nil, ErrCacheMiss }
func (NoopSchemaCache) SetCall(context.Context, *models.Call) error         { return nil }
func (NoopSchemaCache) InvalidateCall(context.Context, uint) error          { return nil }
