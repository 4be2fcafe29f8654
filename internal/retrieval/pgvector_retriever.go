package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// ChunkRetriever 定义排序检索接口，便于替换存储实现或注入测试桩
type ChunkRetriever interface {
	SearchChunks(ctx context.Context, projectID string, embedding []float32, filters *Filters, topK int) ([]*RetrievedChunk, error)
}

// PGVectorRetriever 基于 PostgreSQL pgvector 扩展的排序检索实现
//
// 两段式排序：先按文档分区取每文档距离最近的前 PerDocumentCap 条，
// 再全局按距离排序截取 topK。单文档不会挤占全部结果，
// 代价是结果并非严格的全局 top-K，这是有意为之。
type PGVectorRetriever struct {
	db *gorm.DB
}

// NewPGVectorRetriever 创建 pgvector 检索实例
func NewPGVectorRetriever(db *gorm.DB) *PGVectorRetriever {
	return &PGVectorRetriever{db: db}
}

// chunkRow 检索结果行
type chunkRow struct {
	ID         string  `gorm:"column:id"`
	DocumentID string  `gorm:"column:document_id"`
	ProjectID  string  `gorm:"column:project_id"`
	Content    string  `gorm:"column:content"`
	Page       *int    `gorm:"column:page"`
	Section    string  `gorm:"column:section"`
	Distance   float64 `gorm:"column:distance"`
}

// SearchChunks 执行向量相似度检索
// embedding 必须已通过维度校验；topK 必须已收敛
func (r *PGVectorRetriever) SearchChunks(ctx context.Context, projectID string, embedding []float32, filters *Filters, topK int) ([]*RetrievedChunk, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("查询向量不能为空")
	}

	query, params := r.buildSearchQuery(projectID, embedding, filters, topK)

	var rows []chunkRow
	if err := r.db.WithContext(ctx).Raw(query, params...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("向量检索失败: %w", err)
	}

	chunks := make([]*RetrievedChunk, 0, len(rows))
	for _, row := range rows {
		chunks = append(chunks, &RetrievedChunk{
			ChunkID:    row.ID,
			DocumentID: row.DocumentID,
			ProjectID:  row.ProjectID,
			Content:    row.Content,
			// 对外暴露相似度分数而非原始距离
			Score: 1 - row.Distance,
			SourceRef: SourceRef{
				Page:    row.Page,
				Section: row.Section,
			},
		})
	}

	return chunks, nil
}

// buildSearchQuery 构建检索 SQL 与绑定参数
//
// $1 为查询向量，$2 为项目 ID（固定租户谓词），过滤谓词从 $3 起，
// 最后两个参数为单文档上限与 LIMIT。
// <=> 是 pgvector 的余弦距离操作符（越小越相似）。
func (r *PGVectorRetriever) buildSearchQuery(projectID string, embedding []float32, filters *Filters, topK int) (string, []any) {
	params := []any{pgvector.NewVector(embedding), projectID}

	fragments, filterParams, next := CompileFilters(filters, 3)
	params = append(params, filterParams...)

	var where strings.Builder
	where.WriteString("c.project_id = $2 AND c.deleted_at IS NULL AND d.deleted_at IS NULL")
	for _, f := range fragments {
		where.WriteString(" AND ")
		where.WriteString(f)
	}

	capIdx := next
	limitIdx := next + 1
	params = append(params, PerDocumentCap, topK)

	query := fmt.Sprintf(`
		WITH ranked AS (
			SELECT
				c.id,
				c.document_id,
				c.project_id,
				c.content,
				c.page,
				c.section,
				c.embedding <=> $1 AS distance,
				ROW_NUMBER() OVER (
					PARTITION BY c.document_id
					ORDER BY c.embedding <=> $1
				) AS doc_rank
			FROM document_chunks c
			JOIN documents d ON d.id = c.document_id
			WHERE %s
		)
		SELECT id, document_id, project_id, content, page, section, distance
		FROM ranked
		WHERE doc_rank <= $%d
		ORDER BY distance
		LIMIT $%d
	`, where.String(), capIdx, limitIdx)

	return query, params
}
