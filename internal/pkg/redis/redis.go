// internal/pkg/redis/redis.go
package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Client 是对 go-redis 的一层薄封装，业务方不直接依赖第三方类型。
type Client struct {
	rdb *goredis.Client
}

// NewClient 创建 Redis 客户端。
func NewClient(addr string) *Client {
	return &Client{
		rdb: goredis.NewClient(&goredis.Options{Addr: addr}),
	}
}

// GetClient 暴露底层客户端，供需要 pipeline 等高级能力的调用方使用。
func (c *Client) GetClient() *goredis.Client {
	return c.rdb
}

// AcquireOnce 以 SETNX 语义占用一个幂等键。
// 返回 true 表示本次请求是第一次出现，可以继续处理；
// 返回 false 表示相同的键在 ttl 内已被占用，应拒绝重复提交。
func (c *Client) AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, 1, ttl).Result()
}

// Release 释放幂等键，用于请求失败后允许客户端重试。
func (c *Client) Release(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// Close 关闭底层连接。
func (c *Client) Close() error {
	return c.rdb.Close()
}
