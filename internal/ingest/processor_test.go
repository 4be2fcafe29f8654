package ingest

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bob/internal/document"
	"bob/internal/ifc"
)

type fakeEmbedder struct {
	dimension int
	calls     int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, f.dimension), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dimension)
	}
	return out, nil
}

func (f *fakeEmbedder) Model() string { return "text-embedding-3-small" }
func (f *fakeEmbedder) Dimension() int { return f.dimension }

func setupProcessor(t *testing.T) (*Processor, *document.Service, *ifc.Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&document.Document{}, &document.DocumentChunk{}, &document.Source{}, &ifc.IfcElement{},
	))

	docs := document.NewService(db, nil)
	elements := ifc.NewService(db)
	processor := NewProcessor(docs, elements, &fakeEmbedder{dimension: 4}, NewChunker(100, 10), zap.NewNop())
	return processor, docs, elements, db
}

func TestProcessDocument(t *testing.T) {
	processor, docs, _, db := setupProcessor(t)
	ctx := context.Background()

	doc, err := docs.CreateDocument(ctx, "proj-1", &document.CreateDocumentInput{
		FileName:    "说明.md",
		SourceType:  document.SourceTypeDocument,
		ContentType: "text/markdown",
		Content:     "# 结构说明\n主体为框架结构。基础采用桩基。",
	})
	require.NoError(t, err)

	require.NoError(t, processor.ProcessDocument(ctx, "proj-1", doc.ID))

	updated, err := docs.GetDocument(ctx, "proj-1", doc.ID)
	require.NoError(t, err)
	require.Equal(t, document.StatusIndexed, updated.Status)

	var chunkCount int64
	require.NoError(t, db.Model(&document.DocumentChunk{}).
		Where("document_id = ? AND deleted_at IS NULL", doc.ID).Count(&chunkCount).Error)
	require.Greater(t, chunkCount, int64(0))

	var sourceCount int64
	require.NoError(t, db.Model(&document.Source{}).
		Where("document_id = ?", doc.ID).Count(&sourceCount).Error)
	require.Equal(t, int64(1), sourceCount)
}

func TestProcessDocumentIFC(t *testing.T) {
	processor, docs, elements, _ := setupProcessor(t)
	ctx := context.Background()

	doc, err := docs.CreateDocument(ctx, "proj-1", &document.CreateDocumentInput{
		FileName:   "model.ifc",
		SourceType: document.SourceTypeIFC,
		Content:    sampleIFC,
	})
	require.NoError(t, err)

	require.NoError(t, processor.ProcessDocument(ctx, "proj-1", doc.ID))

	_, total, err := elements.SearchElements(ctx, "proj-1", "", "", "", 1, 50)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
}

func TestProcessDocumentFailure(t *testing.T) {
	processor, docs, _, _ := setupProcessor(t)
	ctx := context.Background()

	doc, err := docs.CreateDocument(ctx, "proj-1", &document.CreateDocumentInput{
		FileName:    "data.zip",
		SourceType:  document.SourceTypeDocument,
		ContentType: "application/zip",
		Content:     "binary",
	})
	require.NoError(t, err)

	require.Error(t, processor.ProcessDocument(ctx, "proj-1", doc.ID))

	updated, err := docs.GetDocument(ctx, "proj-1", doc.ID)
	require.NoError(t, err)
	require.Equal(t, document.StatusFailed, updated.Status)
	require.NotEmpty(t, updated.ErrorMessage)
}

func TestProcessDocumentMissing(t *testing.T) {
	processor, _, _, _ := setupProcessor(t)

	// 文档不存在时跳过而不重试
	require.NoError(t, processor.ProcessDocument(context.Background(), "proj-1", "missing"))
}
