package retrieval

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// SourceResolver 定义来源引用解析接口
type SourceResolver interface {
	ResolveSources(ctx context.Context, projectID string, documentIDs []string) ([]*Citation, error)
}

// PGSourceResolver 基于关系表 sources 的引用解析实现
type PGSourceResolver struct {
	db *gorm.DB
}

// NewPGSourceResolver 创建来源解析实例
func NewPGSourceResolver(db *gorm.DB) *PGSourceResolver {
	return &PGSourceResolver{db: db}
}

// sourceRow 引用查询结果行
type sourceRow struct {
	DocumentID  string `gorm:"column:document_id"`
	Title       string `gorm:"column:title"`
	Page        *int   `gorm:"column:page"`
	Snippet     string `gorm:"column:snippet"`
	StoragePath string `gorm:"column:storage_path"`
}

// ResolveSources 为每个被引用的文档解析一条引用记录
//
// 同一文档存在多条引用时取创建时间最新的一条；
// created_at 相同时按 id 降序决出，保证结果确定。
// 没有引用记录的文档被静默跳过，片段仍可引用它。
func (r *PGSourceResolver) ResolveSources(ctx context.Context, projectID string, documentIDs []string) ([]*Citation, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT DISTINCT ON (document_id)
			document_id, title, page, snippet, storage_path
		FROM sources
		WHERE project_id = $1 AND document_id = ANY($2::uuid[])
		ORDER BY document_id, created_at DESC, id DESC
	`

	var rows []sourceRow
	if err := r.db.WithContext(ctx).Raw(query, projectID, documentIDs).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("来源引用查询失败: %w", err)
	}

	citations := make([]*Citation, 0, len(rows))
	for _, row := range rows {
		title := row.Title
		if title == "" {
			title = DefaultSourceTitle
		}
		citations = append(citations, &Citation{
			DocumentID:  row.DocumentID,
			Title:       title,
			Page:        row.Page,
			Snippet:     row.Snippet,
			StoragePath: row.StoragePath,
		})
	}

	return citations, nil
}
