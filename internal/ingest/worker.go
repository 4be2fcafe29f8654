package ingest

import (
	"context"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"bob/internal/config"
)

// WorkerServer 后台入库 Worker
type WorkerServer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewWorkerServer 创建 Worker 服务器并注册任务处理器
func NewWorkerServer(cfg *config.RedisConfig, concurrency int, processor *Processor, logger *zap.Logger) *WorkerServer {
	if concurrency <= 0 {
		concurrency = 4
	}

	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Addr(),
			Password: cfg.Password,
			DB:       cfg.DB,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"ingest":  5,
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("任务执行失败",
					zap.String("type", task.Type()),
					zap.Error(err),
				)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeProcessDocument, processor.HandleProcessDocument)

	return &WorkerServer{server: server, mux: mux, logger: logger}
}

// Start 非阻塞启动
func (s *WorkerServer) Start() error {
	s.logger.Info("入库 Worker 启动中")
	return s.server.Start(s.mux)
}

// Shutdown 停止 Worker
func (s *WorkerServer) Shutdown() {
	s.logger.Info("入库 Worker 停止中")
	s.server.Shutdown()
}
