package retrieval

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bob/internal/config"

	"github.com/sashabaranov/go-openai"
)

// modelDimensions 各嵌入模型的向量维度
var modelDimensions = map[string]int{
	string(openai.SmallEmbedding3): 1536,
	string(openai.LargeEmbedding3): 3072,
	string(openai.AdaEmbeddingV2):  1536,
}

// OpenAIEmbeddingProvider OpenAI 向量化服务提供者
type OpenAIEmbeddingProvider struct {
	client    *openai.Client // 未配置 API Key 时为 nil
	model     string
	dimension int
}

// NewOpenAIEmbeddingProvider 创建 OpenAI 向量化提供者
// 未配置 API Key 时返回的实例进入"无向量"退化模式
func NewOpenAIEmbeddingProvider(cfg config.OpenAIConfig) *OpenAIEmbeddingProvider {
	model := cfg.EmbeddingModel
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	// 维度优先取显式配置，否则按模型名推导
	dimension := cfg.EmbeddingDimension
	if dimension == 0 {
		if d, ok := modelDimensions[model]; ok {
			dimension = d
		} else {
			dimension = 1536
		}
	}

	var client *openai.Client
	if cfg.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		clientCfg.HTTPClient = &http.Client{Timeout: timeout}
		client = openai.NewClientWithConfig(clientCfg)
	}

	return &OpenAIEmbeddingProvider{
		client:    client,
		model:     model,
		dimension: dimension,
	}
}

// Embed 将文本转换为向量
// 未配置时返回 (nil, nil)，调用方据此走退化路径
func (p *OpenAIEmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.client == nil {
		return nil, nil
	}
	if text == "" {
		return nil, fmt.Errorf("文本不能为空")
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, fmt.Errorf("调用向量化服务失败: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("向量化服务返回空结果")
	}

	return resp.Data[0].Embedding, nil
}

// EmbedBatch 批量向量化（用于文档入库）
// 与 Embed 不同，入库流程必须有向量，未配置视为错误
func (p *OpenAIEmbeddingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if p.client == nil {
		return nil, fmt.Errorf("未配置向量化服务")
	}
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, fmt.Errorf("调用向量化服务失败: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("向量化结果数量不符: 期望 %d，实际 %d", len(texts), len(resp.Data))
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}

// Model 返回嵌入模型名
func (p *OpenAIEmbeddingProvider) Model() string {
	return p.model
}

// Dimension 返回向量维度
func (p *OpenAIEmbeddingProvider) Dimension() int {
	return p.dimension
}
