package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/igprobe/api/handler"
	"github.com/use-agent/igprobe/api/middleware"
	"github.com/use-agent/igprobe/cache"
	"github.com/use-agent/igprobe/config"
	"github.com/use-agent/igprobe/models"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	Scrape:  Auth (if keys configured) → RateLimit
//
// Index and health are intentionally outside auth so monitoring probes always work.
// cc may be nil.
func NewRouter(sc handler.ProfileScraper, cfg *config.Config, cc *cache.Cache) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, _ any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Internal server error",
		})
	}))
	r.Use(gin.Logger())
	r.Use(middleware.CORS())

	r.GET("/", handler.Index())
	r.GET("/health", handler.Health(nil))

	protected := r.Group("")
	protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.GET("/scrape/:username", handler.Scrape(sc, cc, cfg.Server.Debug()))
	protected.GET("/scrape", handler.MissingUsername())
	protected.GET("/scrape/", handler.MissingUsername())

	r.NoRoute(handler.NotFound())
	return r
}
