package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCompileFilters_Empty(t *testing.T) {
	t.Run("nil 过滤条件不产生谓词", func(t *testing.T) {
		fragments, params, next := CompileFilters(nil, 3)
		require.Empty(t, fragments)
		require.Empty(t, params)
		require.Equal(t, 3, next)
	})

	t.Run("零值过滤条件不产生谓词", func(t *testing.T) {
		fragments, params, next := CompileFilters(&Filters{}, 3)
		require.Empty(t, fragments)
		require.Empty(t, params)
		require.Equal(t, 3, next)
	})
}

func TestCompileFilters_DocumentIDs(t *testing.T) {
	fragments, params, next := CompileFilters(&Filters{
		DocumentIDs: []string{"d1", "d3"},
	}, 3)

	require.Len(t, fragments, 1)
	require.Equal(t, "d.id = ANY($3::uuid[])", fragments[0])
	require.Equal(t, []any{[]string{"d1", "d3"}}, params)
	require.Equal(t, 4, next)
}

func TestCompileFilters_SourceTypes(t *testing.T) {
	fragments, params, next := CompileFilters(&Filters{
		SourceTypes: []string{"document"},
	}, 3)

	require.Len(t, fragments, 1)
	require.Equal(t, "d.source_type = ANY($3::text[])", fragments[0])
	require.Equal(t, []any{[]string{"document"}}, params)
	require.Equal(t, 4, next)
}

func TestCompileFilters_DateRange(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)

	t.Run("仅起始时间", func(t *testing.T) {
		fragments, params, next := CompileFilters(&Filters{
			DateRange: &DateRange{From: &from},
		}, 3)
		require.Equal(t, []string{"d.created_at >= $3"}, fragments)
		require.Equal(t, []any{from}, params)
		require.Equal(t, 4, next)
	})

	t.Run("仅结束时间", func(t *testing.T) {
		fragments, params, next := CompileFilters(&Filters{
			DateRange: &DateRange{To: &to},
		}, 3)
		require.Equal(t, []string{"d.created_at <= $3"}, fragments)
		require.Equal(t, []any{to}, params)
		require.Equal(t, 4, next)
	})
}

func TestCompileFilters_CombinedOrder(t *testing.T) {
	// 谓词顺序固定：文档 ID、来源类型、起始时间、结束时间
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	fragments, params, next := CompileFilters(&Filters{
		DocumentIDs: []string{"d1"},
		SourceTypes: []string{"ifc", "document"},
		DateRange:   &DateRange{From: &from, To: &to},
	}, 3)

	require.Equal(t, []string{
		"d.id = ANY($3::uuid[])",
		"d.source_type = ANY($4::text[])",
		"d.created_at >= $5",
		"d.created_at <= $6",
	}, fragments)
	require.Equal(t, []any{
		[]string{"d1"},
		[]string{"ifc", "document"},
		from,
		to,
	}, params)
	require.Equal(t, 7, next)
}

func TestCompileFilters_StartIndex(t *testing.T) {
	// 占位符序号从给定起点连续编号
	fragments, _, next := CompileFilters(&Filters{
		DocumentIDs: []string{"d1"},
		SourceTypes: []string{"plan"},
	}, 10)

	require.Equal(t, "d.id = ANY($10::uuid[])", fragments[0])
	require.Equal(t, "d.source_type = ANY($11::text[])", fragments[1])
	require.Equal(t, 12, next)
}
