package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bob/internal/metrics"

	"go.uber.org/zap"
)

// ErrProjectRequired 缺少项目 ID：无租户范围的调用属于编程错误，立即失败
var ErrProjectRequired = errors.New("项目 ID 不能为空")

// maxLoggedQueryLen 日志中查询文本的截断长度，控制日志体积
const maxLoggedQueryLen = 200

// Engine 上下文检索引擎
//
// 组合向量化、排序检索与来源解析为一条串行流水线。
// 无共享可变状态，单实例可被并发调用。
type Engine struct {
	embedder    EmbeddingProvider
	retriever   ChunkRetriever
	resolver    SourceResolver
	defaultTopK int
	logger      *zap.Logger
}

// NewEngine 创建检索引擎，依赖全部显式注入
// defaultTopK 为调用方未指定 TopK 时的默认值，非正值取 DefaultTopK；
// 越界的配置值在使用时仍会被收敛到 [MinTopK, MaxTopK]
func NewEngine(embedder EmbeddingProvider, retriever ChunkRetriever, resolver SourceResolver, defaultTopK int, logger *zap.Logger) *Engine {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &Engine{
		embedder:    embedder,
		retriever:   retriever,
		resolver:    resolver,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
}

// Retrieve 执行一次上下文检索
//
// 空白查询直接返回空结果（常见合法输入，不触发向量化与查询）。
// 向量化不可用（未配置、调用失败、维度不符）时退化为空结果并记录
// 警告，绝不向调用方抛错；数据库错误则原样向上传播。
func (e *Engine) Retrieve(ctx context.Context, projectID, query string, filters *Filters, opts *Options) (*Result, error) {
	if projectID == "" {
		return nil, ErrProjectRequired
	}

	query = strings.TrimSpace(query)
	if query == "" {
		metrics.RetrievalsTotal.WithLabelValues("empty_query").Inc()
		return emptyResult(), nil
	}

	start := time.Now()

	requested := 0
	if opts != nil {
		requested = opts.TopK
	}
	if requested <= 0 {
		requested = e.defaultTopK
	}
	topK := ClampTopK(requested)

	// 向量化查询文本
	embedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.logger.Warn("查询向量化失败，检索退化为空结果",
			zap.String("project_id", projectID),
			zap.Error(err),
		)
		metrics.RetrievalsTotal.WithLabelValues("no_embedding").Inc()
		return emptyResult(), nil
	}
	if len(embedding) == 0 {
		e.logger.Warn("向量化服务未配置，检索退化为空结果",
			zap.String("project_id", projectID),
		)
		metrics.RetrievalsTotal.WithLabelValues("no_embedding").Inc()
		return emptyResult(), nil
	}
	// 独立校验维度，提供方返回错误模型的向量不能悄悄污染结果
	if len(embedding) != e.embedder.Dimension() {
		e.logger.Warn("向量维度不符，检索退化为空结果",
			zap.String("project_id", projectID),
			zap.Int("expected", e.embedder.Dimension()),
			zap.Int("actual", len(embedding)),
		)
		metrics.RetrievalsTotal.WithLabelValues("no_embedding").Inc()
		return emptyResult(), nil
	}

	// 排序检索
	chunks, err := e.retriever.SearchChunks(ctx, projectID, embedding, filters, topK)
	if err != nil {
		metrics.RetrievalsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("排序检索失败: %w", err)
	}

	chunkIDs := make([]string, 0, len(chunks))
	docOrder := make([]string, 0, len(chunks))
	seenDocs := make(map[string]struct{}, len(chunks))
	for _, chunk := range chunks {
		chunkIDs = append(chunkIDs, chunk.ChunkID)
		if _, ok := seenDocs[chunk.DocumentID]; !ok {
			seenDocs[chunk.DocumentID] = struct{}{}
			docOrder = append(docOrder, chunk.DocumentID)
		}
	}

	// 来源解析：无命中片段时跳过查询
	sources := make([]*Citation, 0, len(docOrder))
	if len(chunks) > 0 {
		resolved, err := e.resolver.ResolveSources(ctx, projectID, docOrder)
		if err != nil {
			metrics.RetrievalsTotal.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("来源解析失败: %w", err)
		}
		// 按片段中文档首次出现的顺序排列引用
		byDoc := make(map[string]*Citation, len(resolved))
		for _, c := range resolved {
			byDoc[c.DocumentID] = c
		}
		for _, docID := range docOrder {
			if c, ok := byDoc[docID]; ok {
				sources = append(sources, c)
			}
		}
	}

	// 可观测性：记录本次检索命中了哪些片段，支持下游审计
	e.logger.Info("上下文检索完成",
		zap.String("project_id", projectID),
		zap.String("query", truncateQuery(query)),
		zap.Int("top_k", topK),
		zap.Strings("chunk_ids", chunkIDs),
	)

	metrics.RetrievalsTotal.WithLabelValues("success").Inc()
	metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	metrics.RetrievalResultCount.Observe(float64(len(chunks)))

	return &Result{
		Chunks:            chunks,
		Sources:           sources,
		RetrievedChunkIDs: chunkIDs,
	}, nil
}

// ClampTopK 将请求的 TopK 收敛到 [MinTopK, MaxTopK]
// 0 或负值取 DefaultTopK
func ClampTopK(requested int) int {
	if requested <= 0 {
		requested = DefaultTopK
	}
	if requested < MinTopK {
		return MinTopK
	}
	if requested > MaxTopK {
		return MaxTopK
	}
	return requested
}

// emptyResult 构造空检索结果（各切片保持非 nil，JSON 序列化为空数组）
func emptyResult() *Result {
	return &Result{
		Chunks:            []*RetrievedChunk{},
		Sources:           []*Citation{},
		RetrievedChunkIDs: []string{},
	}
}

// truncateQuery 截断查询文本用于日志（按字符数，避免截断多字节字符）
func truncateQuery(query string) string {
	runes := []rune(query)
	if len(runes) <= maxLoggedQueryLen {
		return query
	}
	return string(runes[:maxLoggedQueryLen])
}
