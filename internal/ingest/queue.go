package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"bob/internal/config"
)

// QueueClient 任务队列客户端
type QueueClient struct {
	client *asynq.Client
}

// NewQueueClient 创建任务队列客户端
func NewQueueClient(cfg *config.RedisConfig) *QueueClient {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &QueueClient{client: client}
}

// EnqueueProcessDocument 把文档入库任务丢进队列
func (c *QueueClient) EnqueueProcessDocument(ctx context.Context, documentID, projectID string) error {
	payload, err := json.Marshal(ProcessDocumentPayload{
		DocumentID: documentID,
		ProjectID:  projectID,
	})
	if err != nil {
		return fmt.Errorf("序列化任务载荷失败: %w", err)
	}

	task := asynq.NewTask(TypeProcessDocument, payload)

	// 默认重试 3 次，超时 10 分钟
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("ingest"),
	)
	if err != nil {
		return fmt.Errorf("任务入队失败: %w", err)
	}
	return nil
}

// Close 关闭队列连接
func (c *QueueClient) Close() error {
	return c.client.Close()
}
