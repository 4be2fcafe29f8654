package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bob/api"
	"bob/internal/auth"
	"bob/internal/chat"
	"bob/internal/config"
	"bob/internal/document"
	"bob/internal/ifc"
	"bob/internal/infra"
	"bob/internal/issue"
	"bob/internal/logger"
	"bob/internal/project"
)

func main() {
	// .env 不存在时忽略
	_ = godotenv.Load()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	cfg, err := config.Load(env, os.Getenv("BOB_CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	gin.SetMode(cfg.Server.Mode)

	// 数据库
	db, err := infra.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer infra.CloseDatabase()

	if cfg.Database.AutoMigrate {
		err = db.AutoMigrate(
			&auth.User{},
			&project.Org{}, &project.Project{}, &project.ProjectMember{},
			&project.Team{}, &project.TeamMember{},
			&document.Document{}, &document.DocumentChunk{}, &document.Source{},
			&ifc.IfcElement{},
			&issue.Issue{}, &issue.IssueComment{}, &issue.Notification{},
			&chat.ChatMessage{},
		)
		if err != nil {
			log.Fatal("数据库迁移失败", zap.Error(err))
		}
	}

	// Redis
	if _, err := infra.InitRedis(&cfg.Redis); err != nil {
		log.Fatal("初始化 Redis 失败", zap.Error(err))
	}
	defer infra.CloseRedis()

	// 路由与入库 Worker
	router, workerServer := api.SetupRouter(db, cfg)

	if err := workerServer.Start(); err != nil {
		log.Fatal("启动入库 Worker 失败", zap.Error(err))
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("HTTP 服务启动", zap.Int("port", cfg.Server.Port), zap.String("env", env))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP 服务异常退出", zap.Error(err))
		}
	}()

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("收到退出信号，开始关闭")

	workerServer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("HTTP 服务关闭超时", zap.Error(err))
	}
	log.Info("服务已退出")
}
