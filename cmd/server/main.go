// Package main 是应用程序的入口点。
package main

import (
	"context"
	"docbase-go/internal/config"
	"docbase-go/internal/handler"
	"docbase-go/internal/middleware"
	"docbase-go/internal/pipeline"
	"docbase-go/internal/repository"
	"docbase-go/internal/service"
	"docbase-go/pkg/database"
	"docbase-go/pkg/es"
	"docbase-go/pkg/kafka"
	"docbase-go/pkg/log"
	"docbase-go/pkg/storage"
	"docbase-go/pkg/token"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 1. 初始化配置
	config.Init(*configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. 初始化数据库、Redis 和外部组件
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	store, err := storage.NewMinIO(rootCtx, cfg.MinIO)
	if err != nil {
		log.Errorf("MinIO 初始化失败: %v", err)
		return
	}
	esClient, err := es.NewClient(cfg.Elasticsearch)
	if err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	if err := esClient.EnsureIndex(rootCtx); err != nil {
		log.Errorf("es 索引初始化失败 %s", err)
		return
	}
	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	tagRepo := repository.NewTagRepository(database.DB)
	docRepo := repository.NewDocumentRepository(database.DB)
	tokenRepo := repository.NewTokenRepository(database.RDB)
	chatRepo := repository.NewChatRepository(database.RDB, cfg.Chat.HistoryLimit, time.Duration(cfg.Chat.HistoryTTLHours)*time.Hour)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	services := handler.Services{
		Users:       service.NewUserService(userRepo, tokenRepo, jwtManager),
		Documents:   service.NewDocumentService(docRepo, producer, cfg.Pagination),
		Tags:        service.NewTagService(tagRepo, cfg.Pagination),
		Chat:        service.NewChatService(chatRepo, userRepo),
		Search:      service.NewSearchService(esClient, cfg.Pagination.MaxSize),
		Attachments: service.NewAttachmentService(store),
	}

	// 6. 启动后台 Kafka 消费者，将文档变更同步到搜索索引
	indexer := pipeline.NewIndexer(docRepo, esClient)
	consumer := kafka.NewConsumer(cfg.Kafka, indexer, database.RDB)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer.Run(rootCtx)
	}()

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())
	handler.RegisterRoutes(r, services, jwtManager)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	// 停止 Kafka 消费者并等待其退出
	stop()
	wg.Wait()
	log.Info("服务已优雅关闭")
}
