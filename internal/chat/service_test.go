package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bob/internal/retrieval"
)

type fakeRetriever struct {
	result      *retrieval.Result
	err         error
	lastQuery   string
	lastProject string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, projectID, query string, filters *retrieval.Filters, opts *retrieval.Options) (*retrieval.Result, error) {
	f.lastProject = projectID
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeCompleter struct {
	answer     string
	lastPrompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.lastPrompt = user
	return f.answer, nil
}

func setupChat(t *testing.T, retriever ContextRetriever, completer Completer) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&ChatMessage{}))
	return NewService(db, retriever, completer, zap.NewNop())
}

func retrievedResult() *retrieval.Result {
	page := 3
	return &retrieval.Result{
		Chunks: []*retrieval.RetrievedChunk{
			{ChunkID: "c1", DocumentID: "d1", ProjectID: "proj-1", Content: "外墙保温采用岩棉板。", Score: 0.92},
		},
		Sources: []*retrieval.Citation{
			{DocumentID: "d1", Title: "节能专篇", Page: &page},
		},
		RetrievedChunkIDs: []string{"c1"},
	}
}

func TestAsk(t *testing.T) {
	retriever := &fakeRetriever{result: retrievedResult()}
	completer := &fakeCompleter{answer: "外墙保温为岩棉板 [1]。"}
	svc := setupChat(t, retriever, completer)
	ctx := context.Background()

	answer, err := svc.Ask(ctx, "proj-1", "user-1", &AskInput{Question: "外墙保温用什么材料？"})
	require.NoError(t, err)
	require.Equal(t, "外墙保温为岩棉板 [1]。", answer.Content)
	require.Len(t, answer.Sources, 1)
	require.Equal(t, "节能专篇", answer.Sources[0].Title)

	t.Run("提示词包含检索片段", func(t *testing.T) {
		require.Contains(t, completer.lastPrompt, "岩棉板")
		require.Contains(t, completer.lastPrompt, "[1] 节能专篇")
		require.True(t, strings.HasSuffix(completer.lastPrompt, "外墙保温用什么材料？"))
	})

	t.Run("对话被持久化", func(t *testing.T) {
		messages, err := svc.History(ctx, "proj-1", "user-1", 10)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		require.Equal(t, RoleUser, messages[0].Role)
		require.Equal(t, RoleAssistant, messages[1].Role)
		require.NotEmpty(t, messages[1].Citations)
	})
}

func TestAskWithoutContext(t *testing.T) {
	// 检索空结果时直接提问，回答不带引用
	retriever := &fakeRetriever{result: &retrieval.Result{
		Chunks:            []*retrieval.RetrievedChunk{},
		Sources:           []*retrieval.Citation{},
		RetrievedChunkIDs: []string{},
	}}
	completer := &fakeCompleter{answer: "项目资料中没有相关信息。"}
	svc := setupChat(t, retriever, completer)

	answer, err := svc.Ask(context.Background(), "proj-1", "user-1", &AskInput{Question: "有地下室吗？"})
	require.NoError(t, err)
	require.Empty(t, answer.Sources)
	require.Equal(t, "有地下室吗？", completer.lastPrompt)
}

func TestAskEmptyQuestion(t *testing.T) {
	svc := setupChat(t, &fakeRetriever{}, &fakeCompleter{})
	_, err := svc.Ask(context.Background(), "proj-1", "user-1", &AskInput{Question: "  "})
	require.Error(t, err)
}

func TestAskRetrievalError(t *testing.T) {
	retriever := &fakeRetriever{err: context.DeadlineExceeded}
	svc := setupChat(t, retriever, &fakeCompleter{})
	_, err := svc.Ask(context.Background(), "proj-1", "user-1", &AskInput{Question: "进度如何"})
	require.Error(t, err)
}
