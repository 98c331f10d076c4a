package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"resume-match-go/internal/config"
	"resume-match-go/internal/constants"
	"resume-match-go/internal/types"
)

// ErrNotFound is returned when a key is not found in Redis.
// It wraps the underlying redis.Nil error for abstraction.
var ErrNotFound = redis.Nil

// Redis wraps the Redis client
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter creates a new Redis client connection
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子，记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		config: cfg,
	}, nil
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// GetMD5ExpireDuration 返回配置的MD5去重记录过期时间
func (r *Redis) GetMD5ExpireDuration() time.Duration {
	days := r.config.MD5RecordExpireDays
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

// AddRawTextMD5 添加简历文本MD5到去重集合并设置过期时间
func (r *Redis) AddRawTextMD5(ctx context.Context, md5Hex string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	pipe := r.Client.Pipeline()
	pipe.SAdd(ctx, constants.KeyResumeTextMD5Set, md5Hex)
	// ExpireNX: 仅在集合尚无过期时间时设置
	pipe.ExpireNX(ctx, constants.KeyResumeTextMD5Set, r.GetMD5ExpireDuration())
	_, err := pipe.Exec(ctx)
	return err
}

// CheckRawTextMD5Exists 检查简历文本MD5是否已在去重集合中
func (r *Redis) CheckRawTextMD5Exists(ctx context.Context, md5Hex string) (bool, error) {
	if r.Client == nil {
		return false, fmt.Errorf("redis client is not initialized")
	}
	return r.Client.SIsMember(ctx, constants.KeyResumeTextMD5Set, md5Hex).Result()
}

// SetJobDescriptionText 缓存岗位描述文本
func (r *Redis) SetJobDescriptionText(ctx context.Context, jobID string, text string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	key := fmt.Sprintf(constants.KeyJobDescriptionText, jobID)
	return r.Client.Set(ctx, key, text, constants.JDCacheDuration).Err()
}

// GetJobDescriptionText 读取岗位描述文本缓存，未命中返回 ErrNotFound
func (r *Redis) GetJobDescriptionText(ctx context.Context, jobID string) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis client is not initialized")
	}
	key := fmt.Sprintf(constants.KeyJobDescriptionText, jobID)
	return r.Client.Get(ctx, key).Result()
}

// SetMatchScore 缓存一对简历与岗位的匹配得分（JSON值）
func (r *Redis) SetMatchScore(ctx context.Context, resumeID, jobID string, score *types.MatchScore) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	data, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("序列化匹配得分失败: %w", err)
	}
	key := fmt.Sprintf(constants.KeyMatchScore, resumeID, jobID)
	return r.Client.Set(ctx, key, data, constants.MatchCacheDuration).Err()
}

// GetMatchScore 读取匹配得分缓存，未命中返回 ErrNotFound
func (r *Redis) GetMatchScore(ctx context.Context, resumeID, jobID string) (*types.MatchScore, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("redis client is not initialized")
	}
	key := fmt.Sprintf(constants.KeyMatchScore, resumeID, jobID)
	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var score types.MatchScore
	if err := json.Unmarshal(data, &score); err != nil {
		return nil, fmt.Errorf("反序列化匹配得分失败: %w", err)
	}
	return &score, nil
}

// InvalidateMatchScore 删除匹配得分缓存（岗位更新后调用）
func (r *Redis) InvalidateMatchScore(ctx context.Context, resumeID, jobID string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	key := fmt.Sprintf(constants.KeyMatchScore, resumeID, jobID)
	return r.Client.Del(ctx, key).Err()
}
