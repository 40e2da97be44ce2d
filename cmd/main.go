package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"mathtutor-backend/internal/client"
	"mathtutor-backend/internal/config"
	"mathtutor-backend/internal/handler"
	"mathtutor-backend/internal/service"
	"mathtutor-backend/internal/storage"
	"mathtutor-backend/pkg/logger"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	sessionStore := service.NewSessionStore(store)
	if err := sessionStore.LoadAll(context.Background()); err != nil {
		logger.Fatalf("Failed to restore sessions: %v", err)
	}

	chatService := service.NewChatService(cfg, sessionStore)
	solveService := service.NewSolveService(cfg)
	renderService := service.NewRenderService(
		client.NewRenderClient(cfg.Render.BaseURL, cfg.Render.Timeout),
		cfg.Render.PollInterval,
	)

	chatHandler := handler.NewChatHandler(chatService)
	solveHandler := handler.NewSolveHandler(solveService)
	renderHandler := handler.NewRenderHandler(renderService)

	router := setupRouter(cfg, chatHandler, solveHandler, renderHandler)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("Server listening on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down...")
	renderService.Close()
	if err := server.Close(); err != nil {
		logger.Errorf("Server close failed: %v", err)
	}
	if err := sessionStore.Close(); err != nil {
		logger.Errorf("Storage close failed: %v", err)
	}
	logger.Info("Server stopped")
}

func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		return storage.NewRedisStore(rdb, cfg.Storage.Redis.Key, cfg.Storage.Redis.TTL), nil
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return storage.NewDiskStore(cfg.Storage.DataDir, cfg.Storage.SlotName)
	}
}

func setupRouter(cfg *config.Config, chatHandler *handler.ChatHandler, solveHandler *handler.SolveHandler, renderHandler *handler.RenderHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	api := router.Group("/api")
	{
		chat := api.Group("/chat")
		{
			chat.POST("/send", chatHandler.SendMessage)
			chat.POST("/session", chatHandler.CreateSession)
			chat.GET("/session/list", chatHandler.GetSessionList)
			chat.GET("/session/del/:session_id", chatHandler.DeleteSession)
			chat.GET("/session/:session_id", chatHandler.GetSession)
			chat.GET("/messages/:session_id", chatHandler.GetMessages)
			chat.POST("/session/switch/:session_id", chatHandler.SwitchActive)
		}

		api.POST("/solve/:mode", solveHandler.Solve)

		animation := api.Group("/animation")
		{
			animation.POST("/generate", renderHandler.Generate)
			animation.GET("/status", renderHandler.Status)
			animation.POST("/cancel", renderHandler.Cancel)
		}
	}

	return router
}
