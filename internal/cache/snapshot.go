package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jiancai-next/internal/config"
	"github.com/jiancai-next/internal/models"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "cart:snapshot"

var (
	redisClient  *redis.Client
	redisPrefix  string
	redisEnabled bool
	snapshotTTL  time.Duration
)

// InitRedis 初始化快照缓存（可选，默认关闭）
//
// 代理进程重启后、首次整车拉取完成前，门面可以用缓存里
// 最后一次权威快照先行渲染，拉取完成后被全量替换
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		redisEnabled = false
		return nil
	}
	redisPrefix = strings.TrimSpace(cfg.Prefix)
	if redisPrefix == "" {
		redisPrefix = "jc"
	}
	snapshotTTL = time.Duration(cfg.SnapshotTTLSeconds) * time.Second
	if snapshotTTL <= 0 {
		snapshotTTL = 24 * time.Hour
	}

	redisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	redisEnabled = true
	return nil
}

// Enabled 判断缓存是否启用
func Enabled() bool {
	return redisEnabled && redisClient != nil
}

// SetCartSnapshot 写入最后一次权威购物车快照
func SetCartSnapshot(ctx context.Context, subject string, cart models.Cart) error {
	if !Enabled() {
		return nil
	}
	payload, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return redisClient.Set(ctx, buildKey(subject), payload, snapshotTTL).Err()
}

// GetCartSnapshot 读取最后一次权威购物车快照，未命中返回 (nil, nil)
func GetCartSnapshot(ctx context.Context, subject string) (*models.Cart, error) {
	if !Enabled() {
		return nil, nil
	}
	raw, err := redisClient.Get(ctx, buildKey(subject)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cart models.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// DeleteCartSnapshot 删除快照（登出时调用）
func DeleteCartSnapshot(ctx context.Context, subject string) error {
	if !Enabled() {
		return nil
	}
	return redisClient.Del(ctx, buildKey(subject)).Err()
}

func buildKey(subject string) string {
	if subject == "" {
		subject = "anonymous"
	}
	return redisPrefix + ":" + snapshotKey + ":" + subject
}
