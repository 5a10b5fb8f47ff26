package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"blog-system/chatbot"
	"blog-system/cmd/api/auth"
	"blog-system/cmd/api/handlers"
	"blog-system/cmd/api/middleware"
	"blog-system/cmd/api/router"
	"blog-system/cmd/api/services"
	"blog-system/config"
	"blog-system/db"
	"blog-system/eventbus"
	"blog-system/internal/logger"
	"blog-system/metrics"
	"blog-system/repositories"
	"blog-system/storage"
)

// @title           Blog System API
// @version         1.0
// @description     Owner-scoped blog post CRUD with attachments and a chat proxy
// @BasePath        /api
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        x-auth-token
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("error").Errorf("failed to load config: %v", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jwtm, err := auth.NewJWTManager(cfg.Auth.Secret, cfg.Auth.Issuer)
	if err != nil {
		log.Errorf("failed to init jwt: %v", err)
		os.Exit(1)
	}

	client, database, err := db.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Errorf("failed to connect mongo: %v", err)
		os.Exit(1)
	}
	defer func() {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()
		_ = client.Disconnect(dctx)
	}()

	store, presigner, err := newAttachmentStore(ctx, cfg.Uploads)
	if err != nil {
		log.Errorf("failed to init attachment store: %v", err)
		os.Exit(1)
	}

	var publisher eventbus.Publisher = eventbus.NopPublisher{}
	if cfg.EventBus.Enabled() {
		for _, t := range eventbus.AllTopics {
			if err := eventbus.EnsureTopics(cfg.EventBus.Brokers, t, cfg.EventBus.Partitions); err != nil {
				log.Errorf("failed to ensure eventbus topics for %s: %v", t.Base(), err)
			}
		}
		bus, err := eventbus.NewKafkaEventBus(cfg.EventBus.Brokers, log)
		if err != nil {
			log.Errorf("failed to create event bus: %v", err)
			os.Exit(1)
		}
		defer bus.Close()
		publisher = bus
	} else {
		log.Info("eventbus disabled: no brokers configured")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	posts := services.NewPostService(services.PostServiceDeps{
		Repo:     repositories.NewPostRepository(database),
		Store:    store,
		Events:   publisher,
		Logger:   log,
		Metrics:  m,
		MaxFiles: cfg.Uploads.MaxFiles,
	})

	var chat *services.ChatService
	if cfg.Chat.APIKey != "" {
		gen, err := chatbot.NewGeminiGenerator(ctx, cfg.Chat.APIKey, chatbot.Options{
			SystemInstruction: cfg.Chat.SystemInstruction,
			MaxOutputTokens:   cfg.Chat.MaxOutputTokens,
		})
		if err != nil {
			log.Errorf("failed to init chat backend: %v", err)
			os.Exit(1)
		}
		chat = services.NewChatService(gen, cfg.Chat.Models, log, m)
	} else {
		log.Warn("GEMINI_API_KEY not set: /chat disabled")
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.New(router.Deps{
		BasePath:    cfg.Server.BasePath,
		UploadDir:   cfg.Uploads.Dir,
		Logger:      log,
		Tokens:      jwtm,
		Posts:       posts,
		Chat:        chat,
		ChatLimiter: middleware.NewClientRateLimiter(cfg.Chat.RequestsPerMinute, cfg.Chat.Burst),
		Metrics:     m,
		Gatherer:    reg,
		Presigner:   presigner,
		Health: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", auth.HeaderAuthToken, middleware.HeaderRequestID},
		ExposedHeaders: []string{"X-Input-Tokens", "X-Output-Tokens", "X-Request-ID"},
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           corsHandler.Handler(engine),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		log.Infof("api server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("api server error: %v", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		log.Info("received shutdown signal, shutting down api server...")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("api server shutdown error: %v", err)
	}
	log.Info("api server stopped")
}

// newAttachmentStore 는 설정된 백엔드의 저장소를 만든다. S3 백엔드일 때만 presigner 를 돌려준다.
func newAttachmentStore(ctx context.Context, cfg config.UploadsConfig) (storage.Backend, handlers.Presigner, error) {
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if p, ok := store.(handlers.Presigner); ok {
		return store, p, nil
	}
	return store, nil, nil
}
