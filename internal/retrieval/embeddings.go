package retrieval

import "context"

// EmbeddingProvider 定义向量化接口，便于替换不同提供方或注入测试桩
//
// Embed 在服务未配置（无 API Key）时返回 (nil, nil)，
// 表示"无向量可用"的退化路径而非错误
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
	Dimension() int
}
