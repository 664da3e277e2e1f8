package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/igprobe/browser"
	"github.com/use-agent/igprobe/config"
	"github.com/use-agent/igprobe/models"
)

// Strategy names, also reported as ExtractionResult.FollowersSource.
const (
	StrategySharedData = "shared-data"
	StrategyLDJSON     = "ld-json"
	StrategyHTML       = "html"
)

const ldJSONSelector = `script[type="application/ld+json"]`

// notFoundMarkers are page texts shown for missing or removed profiles.
var notFoundMarkers = []string{
	"Sorry, this page isn't available",
	"Sorry, this page isn&#39;t available",
	"Sorry, this page isn’t available",
	"The link you followed may be broken",
}

// RawExtraction is what one strategy found. Followers is nil, a string or a
// number (json.Number from structured data).
type RawExtraction struct {
	FullName   string
	Bio        string
	ProfilePic string
	IsPrivate  bool
	IsVerified bool
	Followers  any
}

// ExtractionResult is the merge of all strategies that ran.
type ExtractionResult struct {
	RawExtraction

	// FollowersSource names the strategy that supplied Followers.
	FollowersSource string
}

// merge applies the field policy: the first strategy to set a field keeps
// it, and the boolean flags are OR'ed.
func (r *ExtractionResult) merge(raw *RawExtraction, source string) {
	if raw == nil {
		return
	}
	fill(&r.FullName, raw.FullName)
	fill(&r.Bio, raw.Bio)
	fill(&r.ProfilePic, raw.ProfilePic)
	r.IsPrivate = r.IsPrivate || raw.IsPrivate
	r.IsVerified = r.IsVerified || raw.IsVerified
	if r.Followers == nil && raw.Followers != nil {
		r.Followers = raw.Followers
		r.FollowersSource = source
	}
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = strings.TrimSpace(v)
	}
}

func (r *ExtractionResult) hasCount() bool { return r.Followers != nil }

func (r *ExtractionResult) hasGaps() bool {
	return r.FullName == "" || r.Bio == "" || r.ProfilePic == ""
}

func (r *ExtractionResult) empty() bool {
	return r.FullName == "" && r.Bio == "" && r.ProfilePic == "" &&
		!r.IsPrivate && !r.IsVerified && r.Followers == nil
}

// page is the loaded document shared by all strategies of one attempt.
type page struct {
	sess    browser.Session
	content string
	doc     *goquery.Document
}

type strategy struct {
	name string
	run  func(ctx context.Context, pg *page, have *ExtractionResult) (*RawExtraction, error)
}

// Pipeline runs the ordered extraction strategies against a live session.
type Pipeline struct {
	cfg        config.ScraperConfig
	strategies []strategy
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewPipeline creates a Pipeline with the standard strategy order:
// embedded shared data, then linked-data metadata, then HTML heuristics.
func NewPipeline(cfg config.ScraperConfig) *Pipeline {
	return &Pipeline{
		cfg: cfg,
		strategies: []strategy{
			{name: StrategySharedData, run: extractSharedData},
			{name: StrategyLDJSON, run: extractLDJSON},
			{name: StrategyHTML, run: extractHTML},
		},
		sleep: sleepCtx,
	}
}

// ProfileURL returns the page address for username.
func (p *Pipeline) ProfileURL(username string) string {
	return p.cfg.ProfileBaseURL + "/" + url.PathEscape(username) + "/"
}

// Extract loads the profile page in sess and merges what the strategies
// find. A missing profile is reported as an ErrCodeNotFound ScrapeError.
//
// Each strategy after the first only runs while the follower count or a text
// field is still missing. Later strategies never overwrite a field.
func (p *Pipeline) Extract(ctx context.Context, sess browser.Session, username string) (*ExtractionResult, error) {
	target := p.ProfileURL(username)

	// ── 1. Navigate ──────────────────────────────────────────────────
	resp, err := sess.Navigate(ctx, target, p.cfg.NavigationTimeout)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeNavigation, "navigation failed")
	}
	if resp == nil {
		return nil, notFound("no response for profile page")
	}
	if resp.Status == 404 {
		return nil, notFound("profile page returned 404")
	}

	// ── 2. Wait for structured metadata ─────────────────────────────
	if !sess.WaitForSelector(ctx, ldJSONSelector, p.cfg.MetadataWait) {
		if err := p.sleep(ctx, p.cfg.GracePause); err != nil {
			return nil, categorizeError(err, models.ErrCodeNavigation, "waiting for page render")
		}
	}

	// ── 3. Snapshot + not-found markers ─────────────────────────────
	title, err := sess.Title(ctx)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeEvaluation, "failed to read title")
	}
	content, err := sess.Content(ctx)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeEvaluation, "failed to read content")
	}
	if isNotFoundPage(title, content) {
		return nil, notFound("profile page not available")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeEvaluation, "failed to parse content", err)
	}
	pg := &page{sess: sess, content: content, doc: doc}

	// ── 4. Strategies ───────────────────────────────────────────────
	result := &ExtractionResult{}
	for i, s := range p.strategies {
		if i > 0 && result.hasCount() && !result.hasGaps() {
			break
		}
		raw, err := s.run(ctx, pg, result)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			slog.Debug("strategy found nothing", "strategy", s.name, "username", username)
			continue
		}
		result.merge(raw, s.name)
	}

	if result.empty() {
		return nil, notFound("no profile data on page")
	}

	slog.Debug("extraction complete",
		"username", username,
		"followersSource", result.FollowersSource,
	)
	return result, nil
}

func isNotFoundPage(title, content string) bool {
	if strings.Contains(title, "Page Not Found") {
		return true
	}
	for _, m := range notFoundMarkers {
		if strings.Contains(content, m) {
			return true
		}
	}
	return false
}

// sleepCtx pauses for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
