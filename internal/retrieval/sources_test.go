package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveSources_EmptyInput(t *testing.T) {
	r := NewPGSourceResolver(nil)

	// 无被引用文档时不触发查询
	citations, err := r.ResolveSources(context.Background(), "proj-1", nil)
	require.NoError(t, err)
	require.Nil(t, citations)

	citations, err = r.ResolveSources(context.Background(), "proj-1", []string{})
	require.NoError(t, err)
	require.Nil(t, citations)
}
