package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/use-agent/igprobe/browser"
	"github.com/use-agent/igprobe/config"
	"github.com/use-agent/igprobe/models"
)

// SessionCreator opens a configured session for one attempt.
type SessionCreator interface {
	Create(ctx context.Context) (browser.Session, error)
}

// Extractor loads and parses a profile page in a live session.
type Extractor interface {
	Extract(ctx context.Context, sess browser.Session, username string) (*ExtractionResult, error)
}

// State is a node of the retry state machine.
type State int

const (
	StateAttempting State = iota
	StateSucceeded
	StateNotFound
	StateExhausted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSucceeded:
		return "succeeded"
	case StateNotFound:
		return "not_found"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "attempting"
	}
}

// OutcomeKind classifies a single attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeNotFound
	OutcomeTransient
	OutcomeFatal
)

// AttemptOutcome is the result of one attempt. Record is set only on success.
type AttemptOutcome struct {
	Kind   OutcomeKind
	Record *models.ProfileRecord
	Err    error
}

// Scraper drives the retry state machine around session creation and
// extraction. It holds no per-request state and is safe for concurrent use.
type Scraper struct {
	sessions SessionCreator
	pipeline Extractor
	cfg      config.ScraperConfig

	now   func() time.Time
	timer retry.Timer // nil uses the library's time.After
}

// NewScraper creates a Scraper. cfg supplies the attempt budget and backoff.
func NewScraper(sessions SessionCreator, pipeline Extractor, cfg config.ScraperConfig) *Scraper {
	return &Scraper{
		sessions: sessions,
		pipeline: pipeline,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Scrape returns the profile record for username.
//
// Every attempt opens its own session and closes it before the next state is
// chosen. Not-found and config errors end the loop at once; transient errors
// are retried after a random backoff until the budget is spent, which yields
// an ErrCodeExhausted error wrapping the last failure. A done ctx stops the
// loop with an ErrCodeTimeout error.
func (s *Scraper) Scrape(ctx context.Context, username string) (*models.ProfileRecord, error) {
	maxAttempts := max(s.cfg.MaxAttempts, 1)
	attempts := 0
	var last AttemptOutcome

	opts := append(s.backoffOptions(),
		retry.Context(ctx),
		retry.Attempts(uint(maxAttempts)),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && models.KindOf(err) == models.KindTransient
		}),
		retry.OnRetry(func(n uint, err error) {
			s.logTransition(StateAttempting, int(n)+1, maxAttempts, username, err)
		}),
	)
	if s.timer != nil {
		opts = append(opts, retry.WithTimer(s.timer))
	}

	rec, err := retry.DoWithData(func() (*models.ProfileRecord, error) {
		attempts++
		last = s.attempt(ctx, username)
		return last.Record, last.Err
	}, opts...)
	if err == nil {
		s.logTransition(StateSucceeded, attempts, maxAttempts, username, nil)
		return rec, nil
	}

	// ctx ended before the first attempt or while waiting for the next one.
	if attempts == 0 || (last.Kind == OutcomeTransient && ctx.Err() != nil) {
		msg := "request canceled"
		if attempts > 0 {
			msg = "interrupted during backoff"
		}
		cause := ctx.Err()
		if cause == nil {
			cause = err
		}
		err = categorizeError(cause, models.ErrCodeTimeout, msg)
		s.logTransition(StateFailed, attempts, maxAttempts, username, err)
		return nil, err
	}

	switch last.Kind {
	case OutcomeNotFound:
		s.logTransition(StateNotFound, attempts, maxAttempts, username, err)
		return nil, err
	case OutcomeFatal:
		s.logTransition(StateFailed, attempts, maxAttempts, username, err)
		return nil, err
	}

	err = models.NewScrapeError(
		models.ErrCodeExhausted,
		fmt.Sprintf("all %d attempts failed", maxAttempts),
		err,
	)
	s.logTransition(StateExhausted, attempts, maxAttempts, username, err)
	return nil, err
}

// attempt runs one create → extract → close cycle. The session is closed by
// the deferred call before the outcome reaches the state machine.
func (s *Scraper) attempt(ctx context.Context, username string) AttemptOutcome {
	if err := ctx.Err(); err != nil {
		return AttemptOutcome{Kind: OutcomeFatal, Err: categorizeError(err, models.ErrCodeTimeout, "request canceled")}
	}

	sess, err := s.sessions.Create(ctx)
	if err != nil {
		return s.classify(ctx, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			slog.Warn("session close failed", "username", username, "error", cerr)
		}
	}()

	res, err := s.pipeline.Extract(ctx, sess, username)
	if err != nil {
		return s.classify(ctx, err)
	}
	return AttemptOutcome{
		Kind:   OutcomeSuccess,
		Record: Assemble(username, res, s.now()),
	}
}

func (s *Scraper) classify(ctx context.Context, err error) AttemptOutcome {
	switch models.KindOf(err) {
	case models.KindNotFound:
		return AttemptOutcome{Kind: OutcomeNotFound, Err: err}
	case models.KindConfig, models.KindCanceled:
		return AttemptOutcome{Kind: OutcomeFatal, Err: err}
	}
	// A failure caused by the caller's deadline is not worth another try.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return AttemptOutcome{Kind: OutcomeFatal, Err: categorizeError(ctxErr, models.ErrCodeTimeout, "request deadline exceeded")}
	}
	return AttemptOutcome{Kind: OutcomeTransient, Err: err}
}

// backoffOptions makes every pause uniform in [BackoffMin, BackoffMax].
func (s *Scraper) backoffOptions() []retry.Option {
	lo, hi := max(s.cfg.BackoffMin, 0), s.cfg.BackoffMax
	var jitter time.Duration
	if hi > lo {
		jitter = hi - lo + 1
	}
	return []retry.Option{
		retry.Delay(lo),
		retry.MaxJitter(jitter),
		retry.DelayType(retry.CombineDelay(retry.FixedDelay, retry.RandomDelay)),
	}
}

func (s *Scraper) logTransition(state State, attempt, maxAttempts int, username string, err error) {
	attrs := []any{
		"state", state.String(),
		"attempt", attempt,
		"max", maxAttempts,
		"username", username,
	}
	switch state {
	case StateSucceeded:
		slog.Info("scrape succeeded", attrs...)
	case StateNotFound:
		slog.Info("profile not found", append(attrs, "error", err)...)
	case StateAttempting:
		slog.Warn("scrape attempt failed, retrying", append(attrs, "error", err)...)
	default:
		slog.Error("scrape failed", append(attrs, "error", err)...)
	}
}
