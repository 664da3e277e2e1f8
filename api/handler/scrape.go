package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/igprobe/cache"
	"github.com/use-agent/igprobe/models"
)

// Error texts returned by the scrape endpoint.
const (
	msgUsernameRequired = "Invalid username. Username is required."
	msgUsernameEmpty    = "Invalid username. Username cannot be empty."
	msgUserNotFound     = "User not found"
	msgInternal         = "Internal server error"
)

// ProfileScraper fetches one profile record. *scraper.Scraper implements it.
type ProfileScraper interface {
	Scrape(ctx context.Context, username string) (*models.ProfileRecord, error)
}

// SanitizeUsername drops one leading "@" and surrounding whitespace.
func SanitizeUsername(raw string) string {
	return strings.TrimSpace(strings.TrimPrefix(raw, "@"))
}

// Scrape returns a handler for GET /scrape/:username.
//
// cc may be nil. When debug is set, 500 responses carry the error text.
func Scrape(sc ProfileScraper, cc *cache.Cache, debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("username")
		if strings.TrimSpace(raw) == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msgUsernameRequired})
			return
		}
		username := SanitizeUsername(raw)
		if username == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msgUsernameEmpty})
			return
		}

		if cc != nil {
			if rec, hit := cc.Get(username); hit {
				rec.Username = username
				c.Header("X-Cache", "hit")
				c.JSON(http.StatusOK, rec)
				return
			}
		}

		slog.Info("scraping profile", "username", username)
		rec, err := sc.Scrape(c.Request.Context(), username)
		if err != nil {
			respondError(c, err, username, debug)
			return
		}

		if cc != nil {
			cc.Set(username, rec)
			c.Header("X-Cache", "miss")
		}
		c.JSON(http.StatusOK, rec)
	}
}

// MissingUsername answers /scrape and /scrape/ without a username.
func MissingUsername() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msgUsernameRequired})
	}
}

// respondError maps a scrape failure to 404 or 500. The boundary only
// distinguishes not-found from everything else.
func respondError(c *gin.Context, err error, username string, debug bool) {
	if models.IsNotFound(err) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: msgUserNotFound})
		return
	}

	slog.Error("scrape failed",
		"username", username,
		"code", models.CodeOf(err),
		"kind", models.KindOf(err).String(),
		"error", err,
	)
	resp := models.ErrorResponse{Error: msgInternal}
	if debug {
		resp.Message = err.Error()
	}
	c.JSON(http.StatusInternalServerError, resp)
}
