package retrieval

import "time"

// TopK 边界：请求值在使用前被收敛到 [MinTopK, MaxTopK]，
// 同时约束下游上下文体积与数据库工作量
const (
	DefaultTopK = 12
	MinTopK     = 8
	MaxTopK     = 15

	// PerDocumentCap 单文档片段上限，避免单个大文档挤占全部结果
	PerDocumentCap = 3

	// DefaultSourceTitle 引用记录缺少标题时的占位标题
	DefaultSourceTitle = "Unknown source"
)

// DateRange 文档创建时间范围（闭区间）
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Filters 可选检索过滤条件，字段缺省表示该维度不限制
type Filters struct {
	DocumentIDs []string   `json:"document_ids,omitempty"`
	SourceTypes []string   `json:"source_types,omitempty"`
	DateRange   *DateRange `json:"date_range,omitempty"`
}

// Options 检索选项
type Options struct {
	TopK int `json:"top_k"`
}

// SourceRef 片段在原文档中的定位信息
type SourceRef struct {
	Page    *int   `json:"page,omitempty"`
	Section string `json:"section,omitempty"`
}

// RetrievedChunk 检索命中的文档片段
// Score = 1 - 余弦距离，1.0 表示完全相同
type RetrievedChunk struct {
	ChunkID    string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	ProjectID  string    `json:"project_id"`
	Content    string    `json:"content"`
	Score      float64   `json:"score"`
	SourceRef  SourceRef `json:"source_ref"`
}

// Citation 展示给用户的来源引用，区别于原始片段
type Citation struct {
	DocumentID  string `json:"document_id"`
	Title       string `json:"title"`
	Page        *int   `json:"page,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
	StoragePath string `json:"storage_path,omitempty"`
}

// Result 检索结果：有序片段、按文档去重的引用、命中片段 ID 列表
type Result struct {
	Chunks            []*RetrievedChunk `json:"chunks"`
	Sources           []*Citation       `json:"sources"`
	RetrievedChunkIDs []string          `json:"retrieved_chunk_ids"`
}
