package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jvasquez2828/robot-runt-web/internal/application"
	"github.com/jvasquez2828/robot-runt-web/internal/domain"
	"github.com/jvasquez2828/robot-runt-web/pkg/logger"
)

// ResultCache stores settled successful outcomes keyed by (plate, document
// number) so re-running a batch does not hammer the portal for vehicles it
// already answered recently. Failures are never cached.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewResultCache(ctx context.Context, addr, password string, db int, ttl time.Duration, log logger.Logger) (*ResultCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Infof(ctx, "[Redis] connected to %s (DB: %d)", addr, db)
	return &ResultCache{client: client, ttl: ttl, logger: log}, nil
}

type cachedOutcome struct {
	SoatStatus  string `json:"soat_status"`
	Limitations string `json:"limitations"`
}

func cacheKey(req domain.LookupRequest) string {
	return fmt.Sprintf("runt:outcome:%s:%s", req.Plate, req.DocumentNumber)
}

func (c *ResultCache) GetOutcome(ctx context.Context, req domain.LookupRequest) (domain.Outcome, bool, error) {
	value, err := c.client.Get(ctx, cacheKey(req)).Result()
	if err == redis.Nil {
		return domain.Outcome{}, false, nil
	}
	if err != nil {
		return domain.Outcome{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var cached cachedOutcome
	if err := json.Unmarshal([]byte(value), &cached); err != nil {
		return domain.Outcome{}, false, fmt.Errorf("decode cached outcome failed: %w", err)
	}
	return domain.SuccessOutcome(domain.SoatStatus(cached.SoatStatus), cached.Limitations), true, nil
}

func (c *ResultCache) SetOutcome(ctx context.Context, req domain.LookupRequest, outcome domain.Outcome) error {
	if !outcome.Success {
		return nil
	}
	payload, err := json.Marshal(cachedOutcome{
		SoatStatus:  string(outcome.SoatStatus),
		Limitations: outcome.Limitations,
	})
	if err != nil {
		return fmt.Errorf("encode outcome failed: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(req), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *ResultCache) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("redis close failed: %w", err)
	}
	return nil
}

var _ application.ResultCache = (*ResultCache)(nil)
