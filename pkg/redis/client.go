package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/chatstore-backend/pkg/config"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

// namespace prefixes every key the service writes so multiple deployments can
// share one redis instance.
const namespace = "cs"

// Client wraps the go-redis client with the key conventions used by the bot:
// session state, webhook update dedupe, and admin-action idempotency marks.
type Client struct {
	rdb *goredis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Addr == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "redis addr is required")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "redis ping failed")
	}

	return &Client{rdb: rdb}, nil
}

// NewFromClient wraps an existing go-redis client without pinging it.
func NewFromClient(rdb *goredis.Client) *Client {
	return &Client{rdb: rdb}
}

// NewFromAppConfig builds a client from the application redis settings,
// preferring the explicit address over the URL form.
func NewFromAppConfig(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.Address != "" {
		return New(ctx, Config{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB})
	}
	if cfg.URL == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "redis url or addr is required")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "parsing redis url")
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	rdb := goredis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "redis ping failed")
	}
	return &Client{rdb: rdb}, nil
}

// SessionKey addresses the dialogue state for one platform user.
func SessionKey(platformID int64) string {
	return fmt.Sprintf("%s:session:%d", namespace, platformID)
}

// UpdateDedupeKey marks a webhook update id as already handled.
func UpdateDedupeKey(updateID int64) string {
	return fmt.Sprintf("%s:update:%d", namespace, updateID)
}

// Get returns the value at key, or ("", false, nil) when the key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.Wrap(apperrors.CodeDependency, err, "redis get failed")
	}
	return val, true, nil
}

func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "redis set failed")
	}
	return nil
}

// SetNX sets key only when absent. Returns true when this call won the write.
func (c *Client) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeDependency, err, "redis setnx failed")
	}
	return ok, nil
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "redis del failed")
	}
	return nil
}

// Expire refreshes the TTL on an existing key (session sliding timeout).
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.rdb.Expire(ctx, key, ttl).Err(); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "redis expire failed")
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "redis ping failed")
	}
	return nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
