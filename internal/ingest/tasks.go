package ingest

// 任务类型
const (
	TypeProcessDocument = "ingest:process_document"
)

// ProcessDocumentPayload 文档入库任务载荷
type ProcessDocumentPayload struct {
	DocumentID string `json:"document_id"`
	ProjectID  string `json:"project_id"`
}
