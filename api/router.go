// Package api contains all endpoints available
package api

import (
	"context"
	"fmt"
	"time"

	"clipstream/video-api/aws"
	"clipstream/video-api/db"
	"clipstream/video-api/middleware"
	"clipstream/video-api/security"
	"clipstream/video-api/service"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"clipstream/video-api/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	DB           *gorm.DB
	Router       *gin.Engine
	Argon        *security.ArgonHash
	S3           *aws.S3Client
	Catalog      service.VideoStore
	Quota        *service.QuotaTracker
	Hub          *service.Hub
	Orchestrator *service.Orchestrator
}

func NewRouter() (*API, error) {
	a := &API{
		Catalog: service.NewCatalog(),
		Hub:     service.NewHub(),
		Quota:   service.NewQuotaTracker(viper.GetInt64("storage.quota")),
	}

	db, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	a.DB = db

	makeLogger()

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		middleware.NewRateLimiter(middleware.RateLimiterConfig{}),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	a.Router.MaxMultipartMemory = 5 << 20

	jwt := middleware.NewJWTMiddleware(db, a.Quota)
	maxUploadSize := viper.GetInt64("upload.max_size")

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// HEAD /api/validate		-> Validates a JWT token
		main.HEAD("/validate", jwt, a.Validate)

		// GET /api/stats		-> Public catalog-wide counters
		main.GET("/stats", cacheFor(30), a.Stats)

		// GET /api/quota		-> Returns the caller's quota usage
		main.GET("/quota", jwt, a.UserQuota)

		// GET /api/videos		-> Returns the caller's upload summaries
		main.GET("/videos", jwt, a.VideoList)

		// POST /api/videos/:videoID/share -> Bumps the share counter
		main.POST("/videos/:videoID/share", a.VideoShare)

		// GET /api/upload/progress/:uploadID -> Server-push upload progress stream
		main.GET("/upload/progress/:uploadID", a.UploadProgress)
	}

	users := main.Group("/users", middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/users 		-> Registers a new user
		users.POST("", a.UserRegister)

		// POST /api/users/login 	-> Logs in a user and returns a JWT token
		users.POST("/login", a.UserLogin)
	}

	// POST /upload			-> Accepts a video and starts the async transfer
	router.POST("/upload", jwt, middleware.BodySizeLimiter(maxUploadSize), a.VideoUpload)

	// GET /v/:videoID		-> Share page payload, bumps views
	router.GET("/v/:videoID", a.VideoView)

	// GET /download/:videoID	-> Redirects to a presigned download URL
	router.GET("/download/:videoID", a.VideoDownload)

	// GET /stream/:videoID		-> Redirects to a presigned streaming URL
	router.GET("/stream/:videoID", a.VideoStream)

	a.Argon = security.New()

	s3, err := aws.NewS3()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
	}
	a.S3 = s3

	baseURL := makeBaseURL()

	if config.RebuildCatalogEnabled() {
		n, err := service.RebuildCatalog(context.Background(), s3.C, *s3.Bucket,
			viper.GetString("aws.public_url"), a.Catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild catalog from bucket, %w", err)
		}
		service.RestoreQuota(a.Catalog, a.Quota, baseURL)

		zap.L().Info("Catalog rebuilt from object storage", zap.Int("videos", n))
	}

	a.Orchestrator = &service.Orchestrator{
		Engine: service.NewEngine(s3.C, service.EngineConfig{
			Bucket:      *s3.Bucket,
			PublicURL:   viper.GetString("aws.public_url"),
			ChunkSize:   viper.GetInt64("upload.chunk_size"),
			Threshold:   viper.GetInt64("upload.multipart_threshold"),
			Concurrency: viper.GetInt("upload.part_concurrency"),
		}),
		Catalog:  a.Catalog,
		Quota:    a.Quota,
		Hub:      a.Hub,
		Notifier: service.NewNotifier(),
		BaseURL:  baseURL,
	}

	return a, nil
}

func makeBaseURL() string {
	scheme := "http"
	if viper.GetBool("host.ssl.enabled") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, viper.GetString("host.domain"))
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
