package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bob/internal/logger"
)

// 文档状态
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusIndexed    = "indexed"
	StatusFailed     = "failed"
)

// 来源类型
const (
	SourceTypeIFC      = "ifc"
	SourceTypeDocument = "document"
	SourceTypePlan     = "plan"
	SourceTypeReport   = "report"
)

// IndexEnqueuer 把文档丢进后台索引队列
type IndexEnqueuer interface {
	EnqueueProcessDocument(ctx context.Context, documentID, projectID string) error
}

// Service 文档管理服务
type Service struct {
	db       *gorm.DB
	enqueuer IndexEnqueuer
}

// NewService 创建文档服务
func NewService(db *gorm.DB, enqueuer IndexEnqueuer) *Service {
	return &Service{db: db, enqueuer: enqueuer}
}

// CreateDocumentInput 上传文档入参
type CreateDocumentInput struct {
	Title       string
	FileName    string
	SourceType  string
	ContentType string
	StoragePath string
	FileSize    int64
	Content     string
	UploadedBy  string
}

// CreateDocument 登记上传的文档并入队索引
func (s *Service) CreateDocument(ctx context.Context, projectID string, input *CreateDocumentInput) (*Document, error) {
	if strings.TrimSpace(input.Title) == "" {
		input.Title = input.FileName
	}
	if !isValidSourceType(input.SourceType) {
		return nil, fmt.Errorf("不支持的来源类型: %s", input.SourceType)
	}

	doc := &Document{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		Title:       input.Title,
		FileName:    input.FileName,
		SourceType:  input.SourceType,
		ContentType: input.ContentType,
		StoragePath: input.StoragePath,
		FileSize:    input.FileSize,
		Content:     input.Content,
		Status:      StatusPending,
		UploadedBy:  input.UploadedBy,
	}

	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, fmt.Errorf("创建文档失败: %w", err)
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueProcessDocument(ctx, doc.ID, doc.ProjectID); err != nil {
			// 入队失败不回滚文档，留在 pending 等待补偿
			logger.Warn(fmt.Sprintf("文档索引任务入队失败: %v", err))
		}
	}

	return doc, nil
}

// GetDocument 获取文档（租户内）
func (s *Service) GetDocument(ctx context.Context, projectID, documentID string) (*Document, error) {
	var doc Document
	err := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ? AND deleted_at IS NULL", documentID, projectID).
		First(&doc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("文档不存在")
		}
		return nil, fmt.Errorf("查询文档失败: %w", err)
	}
	return &doc, nil
}

// ListDocuments 列出项目文档，可按来源类型与状态过滤
func (s *Service) ListDocuments(ctx context.Context, projectID, sourceType, status string, page, pageSize int) ([]Document, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&Document{}).
		Where("project_id = ? AND deleted_at IS NULL", projectID)
	if sourceType != "" {
		query = query.Where("source_type = ?", sourceType)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计文档失败: %w", err)
	}

	var docs []Document
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&docs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询文档列表失败: %w", err)
	}
	return docs, total, nil
}

// DeleteDocument 软删除文档及其派生片段，引用记录保留
func (s *Service) DeleteDocument(ctx context.Context, projectID, documentID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&Document{}).
			Where("id = ? AND project_id = ? AND deleted_at IS NULL", documentID, projectID).
			Update("deleted_at", now)
		if result.Error != nil {
			return fmt.Errorf("删除文档失败: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("文档不存在")
		}
		err := tx.Model(&DocumentChunk{}).
			Where("document_id = ? AND deleted_at IS NULL", documentID).
			Update("deleted_at", now).Error
		if err != nil {
			return fmt.Errorf("删除文档片段失败: %w", err)
		}
		return nil
	})
}

// UpdateStatus 更新文档索引状态
func (s *Service) UpdateStatus(ctx context.Context, documentID, status, errorMessage string) error {
	updates := map[string]any{"status": status, "error_message": errorMessage}
	err := s.db.WithContext(ctx).Model(&Document{}).
		Where("id = ?", documentID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("更新文档状态失败: %w", err)
	}
	return nil
}

// ReplaceChunks 原子替换文档的全部片段并写入最新引用记录
func (s *Service) ReplaceChunks(ctx context.Context, doc *Document, chunks []DocumentChunk, snippet string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		err := tx.Model(&DocumentChunk{}).
			Where("document_id = ? AND deleted_at IS NULL", doc.ID).
			Update("deleted_at", now).Error
		if err != nil {
			return fmt.Errorf("清理旧片段失败: %w", err)
		}

		if len(chunks) > 0 {
			if err := tx.CreateInBatches(chunks, 100).Error; err != nil {
				return fmt.Errorf("写入片段失败: %w", err)
			}
		}

		source := &Source{
			ID:          uuid.New().String(),
			DocumentID:  doc.ID,
			ProjectID:   doc.ProjectID,
			Title:       doc.Title,
			Snippet:     snippet,
			StoragePath: doc.StoragePath,
		}
		if len(chunks) > 0 && chunks[0].Page != nil {
			source.Page = chunks[0].Page
		}
		if err := tx.Create(source).Error; err != nil {
			return fmt.Errorf("写入引用记录失败: %w", err)
		}
		return nil
	})
}

func isValidSourceType(t string) bool {
	switch t {
	case SourceTypeIFC, SourceTypeDocument, SourceTypePlan, SourceTypeReport:
		return true
	}
	return false
}
