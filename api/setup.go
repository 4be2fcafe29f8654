package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	authHandlers "bob/api/handlers/authn"
	chatHandlers "bob/api/handlers/chat"
	documentHandlers "bob/api/handlers/documents"
	elementHandlers "bob/api/handlers/elements"
	issueHandlers "bob/api/handlers/issues"
	projectHandlers "bob/api/handlers/projects"
	searchHandlers "bob/api/handlers/search"
	"bob/internal/auth"
	"bob/internal/chat"
	"bob/internal/config"
	"bob/internal/document"
	"bob/internal/ifc"
	"bob/internal/infra"
	"bob/internal/ingest"
	"bob/internal/issue"
	"bob/internal/logger"
	"bob/internal/metrics"
	"bob/internal/middleware"
	"bob/internal/project"
	"bob/internal/retrieval"
)

// Handlers HTTP 处理器集合
type Handlers struct {
	Auth      *authHandlers.Handler
	Projects  *projectHandlers.Handler
	Documents *documentHandlers.Handler
	Search    *searchHandlers.Handler
	Issues    *issueHandlers.Handler
	Elements  *elementHandlers.Handler
	Chat      *chatHandlers.Handler
}

// AppContainer 应用依赖容器
type AppContainer struct {
	JWTService  *auth.JWTService
	QueueClient *ingest.QueueClient
}

// SetupRouter 组装全部服务并返回 Gin 路由与入库 Worker
func SetupRouter(db *gorm.DB, cfg *config.Config) (*gin.Engine, *ingest.WorkerServer) {
	log := logger.Get()
	redisClient := infra.GetRedis()

	// 队列与认证
	queueClient := ingest.NewQueueClient(&cfg.Redis)
	jwtService := auth.NewJWTService(&cfg.Auth, redisClient)
	authService := auth.NewService(db, jwtService)

	// 领域服务
	projectService := project.NewService(db)
	documentService := document.NewService(db, queueClient)
	issueService := issue.NewService(db)
	elementService := ifc.NewService(db)

	// 上下文检索引擎
	cacheTTL, err := time.ParseDuration(cfg.Retrieval.CacheTTL)
	if err != nil {
		cacheTTL = 0 // 非法配置用缓存默认 TTL
	}
	var embedder retrieval.EmbeddingProvider = retrieval.NewOpenAIEmbeddingProvider(cfg.AI.OpenAI)
	embedder = retrieval.NewCachedEmbeddingProvider(embedder, redisClient, cacheTTL)
	engine := retrieval.NewEngine(
		embedder,
		retrieval.NewPGVectorRetriever(db),
		retrieval.NewPGSourceResolver(db),
		cfg.Retrieval.DefaultTopK,
		log,
	)

	// 问答
	completer := chat.NewOpenAICompleter(&cfg.AI.OpenAI)
	chatService := chat.NewService(db, engine, completer, log)

	// 入库 Worker
	chunker := ingest.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	processor := ingest.NewProcessor(documentService, elementService, embedder, chunker, log)
	workerServer := ingest.NewWorkerServer(&cfg.Redis, cfg.Ingest.Concurrency, processor, log)

	handlers := &Handlers{
		Auth:      authHandlers.NewHandler(authService, jwtService),
		Projects:  projectHandlers.NewHandler(projectService),
		Documents: documentHandlers.NewHandler(documentService, projectService),
		Search:    searchHandlers.NewHandler(engine, projectService),
		Issues:    issueHandlers.NewHandler(issueService, projectService),
		Elements:  elementHandlers.NewHandler(elementService, projectService),
		Chat:      chatHandlers.NewHandler(chatService, projectService),
	}
	container := &AppContainer{
		JWTService:  jwtService,
		QueueClient: queueClient,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(metrics.PrometheusMiddleware())
	router.Use(middleware.NewRateLimiter(0, 0).Middleware())

	RegisterRoutes(router, container, handlers)

	log.Info("路由初始化完成", zap.Int("port", cfg.Server.Port))
	return router, workerServer
}
