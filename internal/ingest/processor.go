package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"bob/internal/document"
	"bob/internal/ifc"
	"bob/internal/metrics"
	"bob/internal/retrieval"
)

const maxSnippetRunes = 200

// Processor 文档入库处理器：解析 → 分块 → 向量化 → 落库
type Processor struct {
	docs     *document.Service
	elements *ifc.Service
	embedder retrieval.EmbeddingProvider
	parsers  *ParserRegistry
	chunker  *Chunker
	logger   *zap.Logger
}

// NewProcessor 创建入库处理器
func NewProcessor(
	docs *document.Service,
	elements *ifc.Service,
	embedder retrieval.EmbeddingProvider,
	chunker *Chunker,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		docs:     docs,
		elements: elements,
		embedder: embedder,
		parsers:  NewParserRegistry(),
		chunker:  chunker,
		logger:   logger,
	}
}

// HandleProcessDocument asynq 任务入口
func (p *Processor) HandleProcessDocument(ctx context.Context, task *asynq.Task) error {
	var payload ProcessDocumentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("解析任务载荷失败: %w", err)
	}
	return p.ProcessDocument(ctx, payload.ProjectID, payload.DocumentID)
}

// ProcessDocument 对单个文档执行完整入库流程
func (p *Processor) ProcessDocument(ctx context.Context, projectID, documentID string) error {
	start := time.Now()

	doc, err := p.docs.GetDocument(ctx, projectID, documentID)
	if err != nil {
		// 文档已被删除时不重试
		p.logger.Warn("入库任务跳过，文档不可用",
			zap.String("document_id", documentID),
			zap.Error(err),
		)
		return nil
	}

	if err := p.docs.UpdateStatus(ctx, doc.ID, document.StatusProcessing, ""); err != nil {
		return err
	}

	pages, err := p.parse(ctx, doc)
	if err != nil {
		return p.fail(ctx, doc.ID, fmt.Errorf("解析文档失败: %w", err))
	}

	chunks := p.chunker.ChunkPages(pages)
	if len(chunks) == 0 {
		return p.fail(ctx, doc.ID, fmt.Errorf("文档没有可索引内容"))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	embeddings, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return p.fail(ctx, doc.ID, fmt.Errorf("生成向量失败: %w", err))
	}
	if len(embeddings) != len(chunks) {
		return p.fail(ctx, doc.ID, fmt.Errorf("向量数量不匹配: %d != %d", len(embeddings), len(chunks)))
	}

	rows := make([]document.DocumentChunk, len(chunks))
	for i, c := range chunks {
		rows[i] = document.DocumentChunk{
			ID:             uuid.New().String(),
			DocumentID:     doc.ID,
			ProjectID:      doc.ProjectID,
			ChunkIndex:     c.Index,
			Content:        c.Content,
			TokenCount:     c.TokenCount,
			Page:           c.Page,
			Section:        c.Section,
			Embedding:      pgvector.NewVector(embeddings[i]),
			EmbeddingModel: p.embedder.Model(),
		}
	}

	if err := p.docs.ReplaceChunks(ctx, doc, rows, truncateSnippet(chunks[0].Content)); err != nil {
		return p.fail(ctx, doc.ID, err)
	}

	if err := p.docs.UpdateStatus(ctx, doc.ID, document.StatusIndexed, ""); err != nil {
		return err
	}

	metrics.DocumentsIndexedTotal.WithLabelValues("success").Inc()
	metrics.ChunksStoredTotal.Add(float64(len(rows)))
	p.logger.Info("文档入库完成",
		zap.String("document_id", doc.ID),
		zap.String("project_id", doc.ProjectID),
		zap.Int("chunks", len(rows)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// parse 按来源类型解析文档，IFC 模型同时提取构件
func (p *Processor) parse(ctx context.Context, doc *document.Document) ([]Page, error) {
	if doc.SourceType == document.SourceTypeIFC {
		result, err := ParseIFC([]byte(doc.Content))
		if err != nil {
			return nil, err
		}
		if p.elements != nil {
			if err := p.elements.ReplaceElements(ctx, doc.ProjectID, doc.ID, result.Elements); err != nil {
				return nil, err
			}
		}
		return []Page{{Text: result.Text}}, nil
	}
	return p.parsers.Parse(doc.ContentType, []byte(doc.Content))
}

func (p *Processor) fail(ctx context.Context, documentID string, cause error) error {
	metrics.DocumentsIndexedTotal.WithLabelValues("failed").Inc()
	if err := p.docs.UpdateStatus(ctx, documentID, document.StatusFailed, cause.Error()); err != nil {
		p.logger.Error("更新失败状态出错", zap.String("document_id", documentID), zap.Error(err))
	}
	return cause
}

func truncateSnippet(content string) string {
	runes := []rune(content)
	if len(runes) <= maxSnippetRunes {
		return content
	}
	return string(runes[:maxSnippetRunes])
}
