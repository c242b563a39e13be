package server

import (
	"time"

	"github.com/angulliamysara-del/MYCloud/internal/auth"
	"github.com/angulliamysara-del/MYCloud/internal/config"
	"github.com/angulliamysara-del/MYCloud/internal/file"
	"github.com/angulliamysara-del/MYCloud/internal/logger"
	"github.com/angulliamysara-del/MYCloud/internal/metrics"
	"github.com/angulliamysara-del/MYCloud/internal/quota"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config       config.Config
	DB           *pgxpool.Pool
	Provider     *minio.Client
	AuthService  *auth.Service
	QuotaService *quota.Service
	FileService  *file.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())

	metrics.InitMetrics()
	router.Use(metrics.Middleware())
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	// The browser UI is served from another origin.
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	registerHealthRoutes(router, deps)

	if deps.Config.Server.StaticDir != "" {
		router.Static("/ui", deps.Config.Server.StaticDir)
	}

	if deps.AuthService != nil {
		auth.RegisterRoutes(router, deps.AuthService)

		protected := router.Group("/")
		protected.Use(auth.Gate(deps.AuthService))

		if deps.QuotaService != nil {
			quota.RegisterRoutes(protected, deps.QuotaService)
		}
		if deps.FileService != nil {
			file.RegisterRoutes(protected, deps.FileService)
		}
	}

	return router
}
