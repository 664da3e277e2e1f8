package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/igprobe/models"
)

// Version is reported by the index endpoint.
const Version = "1.0.0"

// Health returns a handler for GET /health. It never touches the browser so
// liveness probes stay cheap.
func Health(now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    "ok",
			Timestamp: models.FormatTimestamp(now()),
		})
	}
}

// Index returns a handler for GET / listing the available endpoints.
func Index() gin.HandlerFunc {
	resp := models.IndexResponse{
		Message: "Instagram Scraper API",
		Version: Version,
		Endpoints: map[string]string{
			"scrape": "GET /scrape/:username",
			"health": "GET /health",
		},
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, resp)
	}
}

// NotFound answers every unmatched route.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Not found",
			Message: fmt.Sprintf("Cannot %s %s", c.Request.Method, c.Request.URL.Path),
		})
	}
}
