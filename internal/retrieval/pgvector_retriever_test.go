package retrieval

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchQuery_TenantPredicate(t *testing.T) {
	r := NewPGVectorRetriever(nil)

	// 租户谓词必须始终存在，不依赖任何过滤条件
	query, params := r.buildSearchQuery("proj-1", []float32{0.1, 0.2}, nil, 8)

	require.Contains(t, query, "c.project_id = $2")
	require.Equal(t, pgvector.NewVector([]float32{0.1, 0.2}), params[0])
	require.Equal(t, "proj-1", params[1])
}

func TestBuildSearchQuery_Shape(t *testing.T) {
	r := NewPGVectorRetriever(nil)

	query, params := r.buildSearchQuery("proj-1", []float32{0.5}, nil, 12)

	// 按文档分区计算名次，限制单文档上限后再全局排序
	require.Contains(t, query, "ROW_NUMBER() OVER (")
	require.Contains(t, query, "PARTITION BY c.document_id")
	require.Contains(t, query, "c.embedding <=> $1 AS distance")
	require.Contains(t, query, "WHERE doc_rank <= $3")
	require.Contains(t, query, "ORDER BY distance")
	require.Contains(t, query, "LIMIT $4")

	// 无过滤条件时参数为：向量、项目 ID、单文档上限、TopK
	require.Len(t, params, 4)
	require.Equal(t, PerDocumentCap, params[2])
	require.Equal(t, 12, params[3])
}

func TestBuildSearchQuery_WithFilters(t *testing.T) {
	r := NewPGVectorRetriever(nil)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	query, params := r.buildSearchQuery("proj-1", []float32{0.5}, &Filters{
		DocumentIDs: []string{"d1", "d3"},
		SourceTypes: []string{"document"},
		DateRange:   &DateRange{From: &from},
	}, 8)

	// 过滤谓词紧随租户谓词之后，占位符从 $3 起连续编号
	require.Contains(t, query, "d.id = ANY($3::uuid[])")
	require.Contains(t, query, "d.source_type = ANY($4::text[])")
	require.Contains(t, query, "d.created_at >= $5")
	require.Contains(t, query, "WHERE doc_rank <= $6")
	require.Contains(t, query, "LIMIT $7")

	require.Len(t, params, 7)
	require.Equal(t, []string{"d1", "d3"}, params[2])
	require.Equal(t, []string{"document"}, params[3])
	require.Equal(t, from, params[4])
	require.Equal(t, PerDocumentCap, params[5])
	require.Equal(t, 8, params[6])
}

func TestBuildSearchQuery_SoftDeleteScoped(t *testing.T) {
	r := NewPGVectorRetriever(nil)

	query, _ := r.buildSearchQuery("proj-1", []float32{0.5}, nil, 8)

	require.Contains(t, query, "c.deleted_at IS NULL")
	require.Contains(t, query, "d.deleted_at IS NULL")
}

func TestSearchChunks_EmptyEmbedding(t *testing.T) {
	r := NewPGVectorRetriever(nil)

	_, err := r.SearchChunks(context.Background(), "proj-1", nil, nil, 8)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "查询向量不能为空"))
}
