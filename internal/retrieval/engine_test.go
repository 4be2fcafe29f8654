package retrieval

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEmbedder struct {
	vec   []float32
	err   error
	dim   int
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.vec, f.err
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeEmbedder) Model() string  { return "fake-model" }
func (f *fakeEmbedder) Dimension() int { return f.dim }

type fakeRetriever struct {
	chunks        []*RetrievedChunk
	err           error
	calls         int
	lastProjectID string
	lastTopK      int
	lastFilters   *Filters
}

func (f *fakeRetriever) SearchChunks(ctx context.Context, projectID string, embedding []float32, filters *Filters, topK int) ([]*RetrievedChunk, error) {
	f.calls++
	f.lastProjectID = projectID
	f.lastTopK = topK
	f.lastFilters = filters
	return f.chunks, f.err
}

type fakeResolver struct {
	citations  []*Citation
	err        error
	calls      int
	lastDocIDs []string
}

func (f *fakeResolver) ResolveSources(ctx context.Context, projectID string, documentIDs []string) ([]*Citation, error) {
	f.calls++
	f.lastDocIDs = documentIDs
	return f.citations, f.err
}

func newTestEngine(embedder *fakeEmbedder, retriever *fakeRetriever, resolver *fakeResolver) *Engine {
	return NewEngine(embedder, retriever, resolver, 0, zap.NewNop())
}

// threeChunks 对应典型场景：d1 两条片段，d2 一条
func threeChunks() []*RetrievedChunk {
	return []*RetrievedChunk{
		{ChunkID: "c1", DocumentID: "d1", ProjectID: "proj-1", Content: "A", Score: 0.95},
		{ChunkID: "c2", DocumentID: "d1", ProjectID: "proj-1", Content: "B", Score: 0.90},
		{ChunkID: "c3", DocumentID: "d2", ProjectID: "proj-1", Content: "C", Score: 0.85},
	}
}

func TestClampTopK(t *testing.T) {
	cases := []struct {
		requested int
		expected  int
	}{
		{0, 12},  // 未指定取默认值
		{-5, 12}, // 负值同未指定
		{1, 8},
		{4, 8},
		{8, 8},
		{10, 10},
		{12, 12},
		{15, 15},
		{16, 15},
		{20, 15},
		{100, 15},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, ClampTopK(c.requested), "requested=%d", c.requested)
	}
}

func TestRetrieve_ProjectRequired(t *testing.T) {
	engine := newTestEngine(&fakeEmbedder{dim: 3}, &fakeRetriever{}, &fakeResolver{})

	_, err := engine.Retrieve(context.Background(), "", "hello", nil, nil)
	require.ErrorIs(t, err, ErrProjectRequired)
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	embedder := &fakeEmbedder{dim: 3}
	retriever := &fakeRetriever{}
	resolver := &fakeResolver{}
	engine := newTestEngine(embedder, retriever, resolver)

	for _, query := range []string{"", "   ", "\t\n"} {
		result, err := engine.Retrieve(context.Background(), "proj-1", query, nil, nil)
		require.NoError(t, err)
		require.NotNil(t, result)
		require.Empty(t, result.Chunks)
		require.Empty(t, result.Sources)
		require.Empty(t, result.RetrievedChunkIDs)
	}

	// 短路路径不得触发向量化与数据库查询
	require.Zero(t, embedder.calls)
	require.Zero(t, retriever.calls)
	require.Zero(t, resolver.calls)
}

func TestRetrieve_NoEmbedding(t *testing.T) {
	t.Run("向量化服务未配置", func(t *testing.T) {
		embedder := &fakeEmbedder{vec: nil, dim: 3}
		retriever := &fakeRetriever{}
		engine := newTestEngine(embedder, retriever, &fakeResolver{})

		result, err := engine.Retrieve(context.Background(), "proj-1", "hello", nil, nil)
		require.NoError(t, err)
		require.Empty(t, result.Chunks)
		require.Empty(t, result.Sources)
		require.Empty(t, result.RetrievedChunkIDs)
		require.Equal(t, 1, embedder.calls)
		require.Zero(t, retriever.calls)
	})

	t.Run("向量化调用失败不向调用方抛错", func(t *testing.T) {
		embedder := &fakeEmbedder{err: fmt.Errorf("connection refused"), dim: 3}
		retriever := &fakeRetriever{}
		engine := newTestEngine(embedder, retriever, &fakeResolver{})

		result, err := engine.Retrieve(context.Background(), "proj-1", "hello", nil, nil)
		require.NoError(t, err)
		require.Empty(t, result.Chunks)
		require.Zero(t, retriever.calls)
	})

	t.Run("向量维度不符视为向量化失败", func(t *testing.T) {
		embedder := &fakeEmbedder{vec: []float32{0.1, 0.2}, dim: 3}
		retriever := &fakeRetriever{}
		engine := newTestEngine(embedder, retriever, &fakeResolver{})

		result, err := engine.Retrieve(context.Background(), "proj-1", "hello", nil, nil)
		require.NoError(t, err)
		require.Empty(t, result.Chunks)
		require.Zero(t, retriever.calls)
	})
}

func TestRetrieve_TopKClamped(t *testing.T) {
	cases := []struct {
		requested int
		effective int
	}{
		{4, 8},
		{12, 12},
		{20, 15},
		{0, 12},
	}
	for _, c := range cases {
		embedder := &fakeEmbedder{vec: []float32{0.1, 0.2, 0.3}, dim: 3}
		retriever := &fakeRetriever{}
		engine := newTestEngine(embedder, retriever, &fakeResolver{})

		_, err := engine.Retrieve(context.Background(), "proj-1", "hello", nil, &Options{TopK: c.requested})
		require.NoError(t, err)
		require.Equal(t, c.effective, retriever.lastTopK, "requested=%d", c.requested)
	}
}

func TestRetrieve_ConfiguredDefaultTopK(t *testing.T) {
	cases := []struct {
		configured int
		requested  int
		effective  int
	}{
		{9, 0, 9},   // 未指定时取配置默认值
		{9, 10, 10}, // 显式指定优先于配置
		{20, 0, 15}, // 越界配置仍被收敛
		{0, 0, 12},  // 未配置退回内置默认
	}
	for _, c := range cases {
		embedder := &fakeEmbedder{vec: []float32{0.1, 0.2, 0.3}, dim: 3}
		retriever := &fakeRetriever{}
		engine := NewEngine(embedder, retriever, &fakeResolver{}, c.configured, zap.NewNop())

		var opts *Options
		if c.requested > 0 {
			opts = &Options{TopK: c.requested}
		}
		_, err := engine.Retrieve(context.Background(), "proj-1", "hello", nil, opts)
		require.NoError(t, err)
		require.Equal(t, c.effective, retriever.lastTopK, "configured=%d requested=%d", c.configured, c.requested)
	}
}

func TestRetrieve_EndToEnd(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{0.1, 0.2, 0.3}, dim: 3}
	retriever := &fakeRetriever{chunks: threeChunks()}
	// 解析结果故意乱序返回，验证引用按片段中文档出现顺序排列
	resolver := &fakeResolver{citations: []*Citation{
		{DocumentID: "d2", Title: "Doc 2"},
		{DocumentID: "d1", Title: "Doc 1"},
	}}
	engine := newTestEngine(embedder, retriever, resolver)

	result, err := engine.Retrieve(context.Background(), "proj-1", "hello world", &Filters{}, &Options{TopK: 4})
	require.NoError(t, err)

	require.Len(t, result.Chunks, 3)
	require.Len(t, result.Sources, 2)
	require.Equal(t, []string{"c1", "c2", "c3"}, result.RetrievedChunkIDs)

	// 请求 4 被收敛为 8 后传入检索查询
	require.Equal(t, 8, retriever.lastTopK)
	require.Equal(t, "proj-1", retriever.lastProjectID)

	// 引用按文档首次出现顺序：d1 在前，d2 在后
	require.Equal(t, "d1", result.Sources[0].DocumentID)
	require.Equal(t, "d2", result.Sources[1].DocumentID)

	// 来源解析只收到去重后的文档 ID
	require.Equal(t, []string{"d1", "d2"}, resolver.lastDocIDs)

	// 各依赖恰好调用一次
	require.Equal(t, 1, embedder.calls)
	require.Equal(t, 1, retriever.calls)
	require.Equal(t, 1, resolver.calls)
}

func TestRetrieve_ScoreOrderPreserved(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{0.1, 0.2, 0.3}, dim: 3}
	retriever := &fakeRetriever{chunks: threeChunks()}
	engine := newTestEngine(embedder, retriever, &fakeResolver{})

	result, err := engine.Retrieve(context.Background(), "proj-1", "hello", nil, nil)
	require.NoError(t, err)

	for i := 1; i < len(result.Chunks); i++ {
		require.GreaterOrEqual(t, result.Chunks[i-1].Score, result.Chunks[i].Score)
	}
}

func TestRetrieve_NoChunksSkipsResolver(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{0.1, 0.2, 0.3}, dim: 3}
	retriever := &fakeRetriever{chunks: nil}
	resolver := &fakeResolver{}
	engine := newTestEngine(embedder, retriever, resolver)

	result, err := engine.Retrieve(context.Background(), "proj-1", "hello", nil, nil)
	require.NoError(t, err)
	require.Empty(t, result.Chunks)
	require.Empty(t, result.Sources)
	require.Empty(t, result.RetrievedChunkIDs)
	require.Zero(t, resolver.calls)
}

func TestRetrieve_DBErrorPropagates(t *testing.T) {
	t.Run("检索查询失败", func(t *testing.T) {
		embedder := &fakeEmbedder{vec: []float32{0.1, 0.2, 0.3}, dim: 3}
		retriever := &fakeRetriever{err: fmt.Errorf("connection reset")}
		engine := newTestEngine(embedder, retriever, &fakeResolver{})

		_, err := engine.Retrieve(context.Background(), "proj-1", "hello", nil, nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "排序检索失败")
	})

	t.Run("来源解析失败", func(t *testing.T) {
		embedder := &fakeEmbedder{vec: []float32{0.1, 0.2, 0.3}, dim: 3}
		retriever := &fakeRetriever{chunks: threeChunks()}
		resolver := &fakeResolver{err: fmt.Errorf("connection reset")}
		engine := newTestEngine(embedder, retriever, resolver)

		_, err := engine.Retrieve(context.Background(), "proj-1", "hello", nil, nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "来源解析失败")
	})
}

func TestRetrieve_Idempotent(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{0.1, 0.2, 0.3}, dim: 3}
	retriever := &fakeRetriever{chunks: threeChunks()}
	resolver := &fakeResolver{citations: []*Citation{
		{DocumentID: "d1", Title: "Doc 1"},
		{DocumentID: "d2", Title: "Doc 2"},
	}}
	engine := newTestEngine(embedder, retriever, resolver)

	first, err := engine.Retrieve(context.Background(), "proj-1", "hello", nil, &Options{TopK: 10})
	require.NoError(t, err)
	second, err := engine.Retrieve(context.Background(), "proj-1", "hello", nil, &Options{TopK: 10})
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestRetrieve_FiltersPassedThrough(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{0.1, 0.2, 0.3}, dim: 3}
	retriever := &fakeRetriever{}
	engine := newTestEngine(embedder, retriever, &fakeResolver{})

	filters := &Filters{DocumentIDs: []string{"d1", "d3"}, SourceTypes: []string{"document"}}
	_, err := engine.Retrieve(context.Background(), "proj-1", "hello", filters, nil)
	require.NoError(t, err)
	require.Equal(t, filters, retriever.lastFilters)
}
