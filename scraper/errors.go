package scraper

import (
	"context"
	"errors"

	"github.com/use-agent/igprobe/models"
)

// categorizeError wraps raw errors into typed ScrapeErrors so the retry loop
// and the API layer can tell timeouts and cancellations from plain failures.
// code is used when err is not a context error.
func categorizeError(err error, code, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(code, msg, err)
	}
}

func notFound(reason string) *models.ScrapeError {
	return models.NewScrapeError(models.ErrCodeNotFound, reason, nil)
}
