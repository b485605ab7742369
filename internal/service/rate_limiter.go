package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled       bool          `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"false"`
	Rate          float64       `yaml:"rate" env:"RATE_LIMIT_RPS" env-default:"20"`
	Burst         int           `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"40"`
	Window        time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"1m"`
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
}

// Limiter 限流器
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// NewRateLimiter 配置了Redis时使用分布式固定窗口，否则使用进程内令牌桶
func NewRateLimiter(cfg RateLimitConfig, cache *CacheService, log *zap.Logger) Limiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(math.Ceil(cfg.Rate))
	}
	if cfg.Window < time.Millisecond {
		cfg.Window = time.Minute
	}

	if cache != nil {
		limit := int64(math.Ceil(cfg.Rate * cfg.Window.Seconds()))
		if limit < int64(cfg.Burst) {
			limit = int64(cfg.Burst)
		}
		log.Info("rate limiter uses redis", zap.Int64("limit", limit), zap.Duration("window", cfg.Window))
		return &windowLimiter{cache: cache, limit: limit, window: cfg.Window}
	}
	return NewTokenBucketLimiter(rate.Limit(cfg.Rate), cfg.Burst, 10*cfg.Window)
}

// TokenBucketLimiter 进程内按key的令牌桶
type TokenBucketLimiter struct {
	rate    rate.Limit
	burst   int
	idle    time.Duration
	mu      sync.Mutex
	buckets map[string]*bucket
	sweep   time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewTokenBucketLimiter 创建令牌桶限流器，空闲超过idle的key会被回收
func NewTokenBucketLimiter(r rate.Limit, burst int, idle time.Duration) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		rate:    r,
		burst:   burst,
		idle:    idle,
		buckets: make(map[string]*bucket),
		sweep:   time.Now(),
	}
}

// Allow 检查是否允许请求
func (l *TokenBucketLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	if now.Sub(l.sweep) > l.idle {
		for k, v := range l.buckets {
			if now.Sub(v.lastSeen) > l.idle {
				delete(l.buckets, k)
			}
		}
		l.sweep = now
	}

	return b.limiter.AllowN(now, 1), nil
}

// windowLimiter 基于Redis计数的固定窗口
type windowLimiter struct {
	cache  *CacheService
	limit  int64
	window time.Duration
}

func (l *windowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := time.Now().UnixMilli() / l.window.Milliseconds()
	n, err := l.cache.IncrWindow(ctx, fmt.Sprintf("familytree:ratelimit:%s:%d", key, slot), l.window)
	if err != nil {
		return true, err
	}
	return n <= l.limit, nil
}
