package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"blog-system/cmd/api/handlers"
	"blog-system/cmd/api/middleware"
	"blog-system/cmd/api/services"
	_ "blog-system/docs"
	"blog-system/internal/logger"
	"blog-system/metrics"
	"blog-system/storage"
)

const maxMultipartMemory = 32 << 20

// Deps 는 라우터 구성에 필요한 의존성이다.
// Chat 이 nil 이면 /chat 을 등록하지 않고, Presigner 가 nil 이면 업로드 디렉터리를 정적으로 서빙한다.
type Deps struct {
	BasePath    string
	UploadDir   string
	Logger      logger.Logger
	Tokens      middleware.TokenParser
	Posts       *services.PostService
	Chat        *services.ChatService
	ChatLimiter *middleware.ClientRateLimiter
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Presigner   handlers.Presigner
	Health      func(ctx context.Context) error
}

func New(d Deps) *gin.Engine {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(gin.Recovery(), middleware.RequestTrace(log), middleware.RequestMetrics(d.Metrics))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		if d.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if err := d.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if d.UploadDir != "" {
		prefix := "/" + storage.PathPrefix(d.UploadDir)
		if d.Presigner != nil {
			r.GET(prefix+"/:name", handlers.PresignedFileHandler(d.Presigner, log))
		} else {
			r.Static(prefix, d.UploadDir)
		}
	}

	basePath := d.BasePath
	if basePath == "" {
		basePath = "/api"
	}
	api := r.Group(basePath, middleware.RequireUser(d.Tokens, log))
	{
		api.POST("/posts", handlers.CreatePostHandler(d.Posts, log))
		api.GET("/posts", handlers.ListPostsHandler(d.Posts, log))
		api.POST("/posts/upload", handlers.UploadFilesHandler(d.Posts, log))
		api.GET("/posts/:id", handlers.GetPostHandler(d.Posts, log))
		api.PUT("/posts/:id", handlers.UpdatePostHandler(d.Posts, log))
		api.DELETE("/posts/:id", handlers.DeletePostHandler(d.Posts, log))

		if d.Chat != nil {
			chatHandlers := []gin.HandlerFunc{handlers.ChatHandler(d.Chat)}
			if d.ChatLimiter != nil {
				chatHandlers = append([]gin.HandlerFunc{middleware.RateLimit(d.ChatLimiter)}, chatHandlers...)
			}
			api.POST("/chat", chatHandlers...)
		}
	}

	return r
}
