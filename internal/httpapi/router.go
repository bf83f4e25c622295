// Package httpapi exposes the bot's datastore over a small read-only HTTP
// API: search terms, tracked listings and their change history, and the
// cached road-tax records.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/config"
)

// RegisterRoutes attaches middleware and the versioned API to the engine.
// Order: tracing, correlation id, logging, recovery, compression, metrics,
// rate limiting, CORS.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(RequestID())
	r.Use(Logger())
	r.Use(Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := NewRateLimiter(cfg.RateRPS, cfg.RateBurst)
	r.Use(rl.Handler())

	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:   []string{requestIDHeader, "Content-Length"},
			MaxAge:          12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORS.AllowedOrigins,
			AllowMethods:  []string{"GET", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders: []string{requestIDHeader, "Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.NoRoute(func(c *gin.Context) {
		Fail(c, http.StatusNotFound, ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		Fail(c, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	h := NewHandlers(db)
	api := r.Group("/api/v1")
	{
		api.GET("/terms", h.ListTerms)
		api.GET("/terms/:id/cars", h.ListTermCars)
		api.GET("/listings/:id/history", h.ListingHistory)
		api.GET("/cars/count", h.CountCars)
		api.GET("/cars/:license", h.GetCar)
	}
}
