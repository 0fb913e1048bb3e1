// Package redis 封装 go-redis 客户端的创建与 Lua 脚本执行。
package redis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// Config 单机或集群地址。
type Config struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
}

// Client 持有 UniversalClient 以及预加载的脚本。
type Client struct {
	rdb goredis.UniversalClient
}

// NewClient 创建客户端并 PING 一次。
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:        cfg.Addrs,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "ping redis %v", cfg.Addrs)
	}
	return &Client{rdb: rdb}, nil
}

// Wrap 包装一个已有的客户端，测试中配合 miniredis 使用。
func Wrap(rdb goredis.UniversalClient) *Client {
	return &Client{rdb: rdb}
}

func (c *Client) GetClient() goredis.UniversalClient {
	return c.rdb
}

// RunScript 以 EVALSHA 执行脚本，未缓存时自动回退到 EVAL。
func (c *Client) RunScript(ctx context.Context, script *goredis.Script, keys []string, args ...interface{}) (interface{}, error) {
	res, err := script.Run(ctx, c.rdb, keys, args...).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, errors.Wrap(err, "run lua script")
	}
	return res, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
