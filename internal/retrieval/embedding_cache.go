package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedEmbeddingProvider 带缓存的向量化提供者
// L1 为进程内 sync.Map，L2 为 Redis；两级都未命中时回源
type CachedEmbeddingProvider struct {
	inner  EmbeddingProvider
	redis  *redis.Client // 可为 nil，此时仅用本地缓存
	local  sync.Map
	prefix string
	ttl    time.Duration
}

// cachedEmbedding 缓存条目
type cachedEmbedding struct {
	Vector    []float32 `json:"vector"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCachedEmbeddingProvider 包装一个向量化提供者并附加缓存
func NewCachedEmbeddingProvider(inner EmbeddingProvider, redisClient *redis.Client, ttl time.Duration) *CachedEmbeddingProvider {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &CachedEmbeddingProvider{
		inner:  inner,
		redis:  redisClient,
		prefix: "emb:",
		ttl:    ttl,
	}
}

// Embed 先查缓存，未命中时回源并写缓存
func (c *CachedEmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.makeKey(text)

	if val, ok := c.local.Load(key); ok {
		return val.(*cachedEmbedding).Vector, nil
	}

	if c.redis != nil {
		if data, err := c.redis.Get(ctx, key).Bytes(); err == nil {
			var cached cachedEmbedding
			if json.Unmarshal(data, &cached) == nil {
				c.local.Store(key, &cached)
				return cached.Vector, nil
			}
		}
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil || vec == nil {
		// 退化结果不进缓存
		return vec, err
	}

	cached := &cachedEmbedding{Vector: vec, Model: c.inner.Model(), CreatedAt: time.Now()}
	c.local.Store(key, cached)
	if c.redis != nil {
		if data, err := json.Marshal(cached); err == nil {
			c.redis.Set(ctx, key, data, c.ttl)
		}
	}

	return vec, nil
}

// EmbedBatch 批量向量化不走缓存，直接回源
func (c *CachedEmbeddingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return c.inner.EmbedBatch(ctx, texts)
}

// Model 返回底层模型名
func (c *CachedEmbeddingProvider) Model() string {
	return c.inner.Model()
}

// Dimension 返回底层向量维度
func (c *CachedEmbeddingProvider) Dimension() int {
	return c.inner.Dimension()
}

// makeKey 生成缓存键：前缀 + SHA256(模型名 + 文本)
func (c *CachedEmbeddingProvider) makeKey(text string) string {
	h := sha256.Sum256([]byte(c.inner.Model() + "\x00" + text))
	return c.prefix + hex.EncodeToString(h[:])
}
