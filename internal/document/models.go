package document

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// Document 项目内的逻辑源文件（IFC 模型、图纸、报告等）
type Document struct {
	ID        string `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID string `json:"projectId" gorm:"type:uuid;not null;index"`

	Title    string `json:"title" gorm:"size:500"`
	FileName string `json:"fileName" gorm:"size:500"`

	// 来源信息
	SourceType  string `json:"sourceType" gorm:"size:50;not null;index"` // ifc, document, plan, report
	ContentType string `json:"contentType" gorm:"size:100"`
	StoragePath string `json:"storagePath" gorm:"type:text"`
	FileSize    int64  `json:"fileSize"`
	Content     string `json:"-" gorm:"type:text"` // 解析出的纯文本，供入库分块

	// 状态
	Status       string `json:"status" gorm:"size:50;not null;default:pending"` // pending, processing, indexed, failed
	ErrorMessage string `json:"errorMessage,omitempty" gorm:"type:text"`

	UploadedBy string `json:"uploadedBy" gorm:"size:100"`

	// 时间戳
	CreatedAt time.Time  `json:"createdAt" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time  `json:"updatedAt" gorm:"not null;autoUpdateTime"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" gorm:"index"`
}

// DocumentChunk 文档派生的检索片段，检索引擎对其只读
type DocumentChunk struct {
	ID         string `json:"id" gorm:"primaryKey;type:uuid"`
	DocumentID string `json:"documentId" gorm:"type:uuid;not null;index"`
	ProjectID  string `json:"projectId" gorm:"type:uuid;not null;index"`

	ChunkIndex int    `json:"chunkIndex" gorm:"not null"`
	Content    string `json:"content" gorm:"type:text;not null"`
	TokenCount int    `json:"tokenCount" gorm:"default:0"`

	// 定位信息
	Page    *int   `json:"page,omitempty"`
	Section string `json:"section,omitempty" gorm:"size:255"`

	// 向量（PostgreSQL pgvector 类型）
	Embedding      pgvector.Vector   `json:"-" gorm:"type:vector(1536)"`
	EmbeddingModel string            `json:"embeddingModel" gorm:"size:100"`
	Metadata       datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time  `json:"createdAt" gorm:"not null;autoCreateTime"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" gorm:"index"`
}

// Source 展示给用户的引用记录，同一文档可有多条，最新者优先
type Source struct {
	ID         string `json:"id" gorm:"primaryKey;type:uuid"`
	DocumentID string `json:"documentId" gorm:"type:uuid;not null;index"`
	ProjectID  string `json:"projectId" gorm:"type:uuid;not null;index"`

	Title       string `json:"title" gorm:"size:500"`
	Page        *int   `json:"page,omitempty"`
	Snippet     string `json:"snippet,omitempty" gorm:"type:text"`
	StoragePath string `json:"storagePath,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
}
