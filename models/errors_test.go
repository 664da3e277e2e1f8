package models

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"config", NewScrapeError(ErrCodeConfig, "missing proxy", nil), KindConfig},
		{"not found", NewScrapeError(ErrCodeNotFound, "gone", nil), KindNotFound},
		{"navigation", NewScrapeError(ErrCodeNavigation, "nav", cause), KindTransient},
		{"wrapped not found", fmt.Errorf("attempt 1: %w", NewScrapeError(ErrCodeNotFound, "gone", nil)), KindNotFound},
		{"canceled wins", NewScrapeError(ErrCodeTimeout, "request canceled", context.Canceled), KindCanceled},
		{"deadline is transient", NewScrapeError(ErrCodeTimeout, "slow", context.DeadlineExceeded), KindTransient},
		{"plain error", cause, KindTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestScrapeError_UnwrapAndCode(t *testing.T) {
	cause := errors.New("boom")
	err := NewScrapeError(ErrCodeExhausted, "all 3 attempts failed",
		NewScrapeError(ErrCodeNavigation, "navigation failed", cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeExhausted, CodeOf(err))
	assert.Equal(t, ErrCodeInternal, CodeOf(cause))
	assert.Equal(t, "RETRIES_EXHAUSTED: all 3 attempts failed: NAVIGATION_FAILED: navigation failed: boom", err.Error())
	assert.True(t, IsNotFound(NewScrapeError(ErrCodeNotFound, "x", nil)))
	assert.NotEqual(t, KindConfig, KindOf(cause))
}
