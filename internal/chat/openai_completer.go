package chat

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"bob/internal/config"
)

// OpenAICompleter 基于 OpenAI Chat Completions 的补全实现
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter 创建补全客户端，未配置 API Key 时返回 nil client
func NewOpenAICompleter(cfg *config.OpenAIConfig) *OpenAICompleter {
	model := cfg.ChatModel
	if model == "" {
		model = openai.GPT4oMini
	}

	var client *openai.Client
	if cfg.APIKey != "" {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		clientConfig.HTTPClient = &http.Client{Timeout: timeout}
		client = openai.NewClientWithConfig(clientConfig)
	}

	return &OpenAICompleter{client: client, model: model}
}

// Complete 调用对话模型生成回答
func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("对话模型未配置")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("调用对话模型失败: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("对话模型没有返回内容")
	}
	return resp.Choices[0].Message.Content, nil
}
