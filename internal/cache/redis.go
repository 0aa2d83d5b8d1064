// Package cache keeps flight search results in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/michels-travel/internal/model"
)

type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "flights"
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) GetOffers(ctx context.Context, key string) ([]model.Offer, bool, error) {
	var offers []model.Offer
	ok, err := c.get(ctx, c.searchKey(key), &offers)
	return offers, ok, err
}

func (c *RedisCache) SetOffers(ctx context.Context, key string, offers []model.Offer, ttl time.Duration) error {
	return c.set(ctx, c.searchKey(key), offers, ttl)
}

func (c *RedisCache) GetOffer(ctx context.Context, id string) (model.Offer, bool, error) {
	var offer model.Offer
	ok, err := c.get(ctx, c.offerKey(id), &offer)
	return offer, ok, err
}

// SetOffer never keeps an offer past its own expiry.
func (c *RedisCache) SetOffer(ctx context.Context, offer model.Offer, ttl time.Duration) error {
	if !offer.ExpiresAt.IsZero() {
		left := time.Until(offer.ExpiresAt)
		if left <= 0 {
			return nil
		}
		if left < ttl {
			ttl = left
		}
	}
	return c.set(ctx, c.offerKey(offer.ID), offer, ttl)
}

func (c *RedisCache) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisCache) searchKey(key string) string { return c.prefix + ":search:" + key }

func (c *RedisCache) offerKey(id string) string { return c.prefix + ":offer:" + id }
