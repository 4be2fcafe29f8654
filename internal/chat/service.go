package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bob/internal/retrieval"
)

const systemPrompt = `你是建筑工程项目的协作助手。根据提供的项目资料回答问题，` +
	`回答时标注引用的资料编号（如 [1]）。资料不足时如实说明，不要编造。`

// ContextRetriever 项目上下文检索入口
type ContextRetriever interface {
	Retrieve(ctx context.Context, projectID, query string, filters *retrieval.Filters, opts *retrieval.Options) (*retrieval.Result, error)
}

// Completer 大模型补全接口
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Service 项目问答服务
type Service struct {
	db        *gorm.DB
	retriever ContextRetriever
	completer Completer
	logger    *zap.Logger
}

// NewService 创建问答服务
func NewService(db *gorm.DB, retriever ContextRetriever, completer Completer, logger *zap.Logger) *Service {
	return &Service{db: db, retriever: retriever, completer: completer, logger: logger}
}

// AskInput 提问入参
type AskInput struct {
	Question string
	Filters  *retrieval.Filters
	TopK     int
}

// Answer 问答结果
type Answer struct {
	MessageID string                `json:"messageId"`
	Content   string                `json:"content"`
	Sources   []*retrieval.Citation `json:"sources"`
}

// Ask 基于项目资料回答问题并持久化对话
func (s *Service) Ask(ctx context.Context, projectID, userID string, input *AskInput) (*Answer, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, fmt.Errorf("问题不能为空")
	}

	result, err := s.retriever.Retrieve(ctx, projectID, question, input.Filters, &retrieval.Options{TopK: input.TopK})
	if err != nil {
		return nil, fmt.Errorf("检索项目上下文失败: %w", err)
	}

	prompt := buildPrompt(question, result)
	content, err := s.completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("生成回答失败: %w", err)
	}

	answer := &Answer{
		MessageID: uuid.New().String(),
		Content:   content,
		Sources:   result.Sources,
	}

	if err := s.saveExchange(ctx, projectID, userID, question, answer); err != nil {
		// 持久化失败不吞掉回答
		s.logger.Warn("保存对话失败",
			zap.String("project_id", projectID),
			zap.Error(err),
		)
	}
	return answer, nil
}

// History 按时间顺序返回用户在项目内的对话
func (s *Service) History(ctx context.Context, projectID, userID string, limit int) ([]ChatMessage, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var messages []ChatMessage
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("查询对话历史失败: %w", err)
	}
	// 倒序查询取最近 N 条，返回时恢复时间顺序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *Service) saveExchange(ctx context.Context, projectID, userID, question string, answer *Answer) error {
	var citations datatypes.JSON
	if len(answer.Sources) > 0 {
		data, err := json.Marshal(answer.Sources)
		if err != nil {
			return fmt.Errorf("序列化引用失败: %w", err)
		}
		citations = datatypes.JSON(data)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userMsg := &ChatMessage{
			ID:        uuid.New().String(),
			ProjectID: projectID,
			UserID:    userID,
			Role:      RoleUser,
			Content:   question,
		}
		if err := tx.Create(userMsg).Error; err != nil {
			return err
		}
		assistantMsg := &ChatMessage{
			ID:        answer.MessageID,
			ProjectID: projectID,
			UserID:    userID,
			Role:      RoleAssistant,
			Content:   answer.Content,
			Citations: citations,
		}
		return tx.Create(assistantMsg).Error
	})
}

// buildPrompt 把检索到的片段拼进提问，无片段时直接提问
func buildPrompt(question string, result *retrieval.Result) string {
	if result == nil || len(result.Chunks) == 0 {
		return question
	}

	var sb strings.Builder
	sb.WriteString("参考资料:\n")
	titles := make(map[string]string, len(result.Sources))
	for _, src := range result.Sources {
		titles[src.DocumentID] = src.Title
	}
	for i, chunk := range result.Chunks {
		title := titles[chunk.DocumentID]
		if title == "" {
			title = retrieval.DefaultSourceTitle
		}
		fmt.Fprintf(&sb, "[%d] %s\n%s\n\n", i+1, title, chunk.Content)
	}
	sb.WriteString("问题: ")
	sb.WriteString(question)
	return sb.String()
}
