// Package redis stores login sessions. A session id maps to the user id and
// the role captured at login.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"asdm/internal/app/apperr"
	"asdm/internal/app/config"
	"asdm/internal/app/ds"
)

const sessionPrefix = "session:"

type Client struct {
	cfg    config.RedisConfig
	client *redis.Client
	ttl    time.Duration
}

func New(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Username:    cfg.User,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.ReadTimeout,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("cant ping redis: %w", err)
	}

	return NewWithClient(client, cfg, ttl), nil
}

// NewWithClient wraps an existing go-redis client.
func NewWithClient(client *redis.Client, cfg config.RedisConfig, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Client{cfg: cfg, client: client, ttl: ttl}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func sessionKey(id string) string {
	return sessionPrefix + id
}

// CreateSession opens a session for user and returns it with a fresh id.
func (c *Client) CreateSession(ctx context.Context, user *ds.User) (*ds.Session, error) {
	s := &ds.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, sessionKey(s.ID), payload, c.ttl).Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// GetSession returns apperr.ErrUnauthenticated for unknown or expired ids.
func (c *Client) GetSession(ctx context.Context, id string) (*ds.Session, error) {
	if id == "" {
		return nil, apperr.ErrUnauthenticated
	}
	payload, err := c.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperr.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}

	var s ds.Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", id, err)
	}
	s.ID = id
	return &s, nil
}

// DeleteSession is a no-op for unknown ids.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return c.client.Del(ctx, sessionKey(id)).Err()
}
