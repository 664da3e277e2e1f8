package scraper

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/igprobe/followers"
	"github.com/use-agent/igprobe/models"
	"golang.org/x/net/html"
)

// ── Strategy A: embedded shared data ────────────────────────────────────

const sharedDataMarker = "window._sharedData"

func extractSharedData(_ context.Context, pg *page, _ *ExtractionResult) (*RawExtraction, error) {
	var blob map[string]any
	pg.doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := decodeSharedData(s.Text()); ok {
			blob = v
			return false
		}
		return true
	})
	if blob == nil {
		return nil, nil
	}

	user, ok := dig(blob, "entry_data", "ProfilePage", 0, "graphql", "user").(map[string]any)
	if !ok {
		return nil, nil
	}

	raw := &RawExtraction{
		FullName:   str(user["full_name"]),
		Bio:        str(user["biography"]),
		ProfilePic: firstNonEmpty(str(user["profile_pic_url_hd"]), str(user["profile_pic_url"])),
		IsPrivate:  user["is_private"] == true,
		IsVerified: user["is_verified"] == true,
	}
	// A missing counter is no count; an explicit 0 is a real count.
	switch c := dig(user, "edge_followed_by", "count").(type) {
	case json.Number:
		raw.Followers = c
	case string:
		if c != "" {
			raw.Followers = c
		}
	}
	return raw, nil
}

// decodeSharedData decodes the object literal assigned to window._sharedData
// in an inline script. Numbers stay json.Number so large counts keep their
// precision.
func decodeSharedData(script string) (map[string]any, bool) {
	i := strings.Index(script, sharedDataMarker)
	if i < 0 {
		return nil, false
	}
	rest := script[i+len(sharedDataMarker):]
	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		return nil, false
	}
	rest = strings.TrimSpace(rest[eq+1:])
	if !strings.HasPrefix(rest, "{") {
		return nil, false
	}

	dec := json.NewDecoder(strings.NewReader(rest))
	dec.UseNumber()
	var v map[string]any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// ── Strategy B: linked-data metadata ────────────────────────────────────

func extractLDJSON(_ context.Context, pg *page, _ *ExtractionResult) (*RawExtraction, error) {
	var found map[string]any
	pg.doc.Find(ldJSONSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		dec := json.NewDecoder(strings.NewReader(s.Text()))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return true
		}
		if obj := findProfileObject(v); obj != nil {
			found = obj
			return false
		}
		return true
	})
	if found == nil {
		return nil, nil
	}

	desc := str(found["description"])
	raw := &RawExtraction{
		FullName:   firstNonEmpty(str(found["name"]), str(found["alternateName"])),
		Bio:        desc,
		ProfilePic: imageURL(found["image"]),
		IsVerified: strings.Contains(desc, "Verified"),
	}
	if count := followers.Find(desc); count != "" {
		raw.Followers = count
	}
	return raw, nil
}

// findProfileObject returns the first Person or ProfilePage object in a
// decoded ld+json value, looking into top-level arrays and @graph.
func findProfileObject(v any) map[string]any {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if obj := findProfileObject(item); obj != nil {
				return obj
			}
		}
	case map[string]any:
		if isProfileType(t["@type"]) {
			return t
		}
		if graph, ok := t["@graph"]; ok {
			return findProfileObject(graph)
		}
	}
	return nil
}

func isProfileType(v any) bool {
	switch t := v.(type) {
	case string:
		return t == "Person" || t == "ProfilePage"
	case []any:
		for _, item := range t {
			if isProfileType(item) {
				return true
			}
		}
	}
	return false
}

// imageURL accepts a URL string, an ImageObject or a list of either.
func imageURL(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		return firstNonEmpty(str(t["url"]), str(t["contentUrl"]))
	case []any:
		for _, item := range t {
			if u := imageURL(item); u != "" {
				return u
			}
		}
	}
	return ""
}

// ── Strategy C: rendered-HTML heuristics ────────────────────────────────

var (
	selProfilePic = mustSelector(`img[alt*="profile picture"], img[alt*="Profile picture"]`)
	selName       = mustSelector(`h2, h1, span[dir="auto"]`)
	selBio        = mustSelector(`span[dir="auto"]`)
	selVerified   = mustSelector(`[aria-label*="Verified"], [title*="Verified"]`)
	selOGDesc     = mustSelector(`meta[property="og:description"]`)
)

var privateMarkers = []string{"This Account is Private", "private account"}

const bodyTextJS = `() => document.body ? document.body.innerText : ""`

func extractHTML(ctx context.Context, pg *page, have *ExtractionResult) (*RawExtraction, error) {
	root := pg.doc.Selection
	raw := &RawExtraction{
		IsVerified: len(cascadia.QueryAll(rootNode(pg.doc), selVerified)) > 0,
	}
	if n := cascadia.Query(rootNode(pg.doc), selProfilePic); n != nil {
		raw.ProfilePic, _ = root.FindNodes(n).Attr("src")
	}
	if n := cascadia.Query(rootNode(pg.doc), selName); n != nil {
		raw.FullName = strings.TrimSpace(root.FindNodes(n).Text())
	}
	if n := cascadia.Query(rootNode(pg.doc), selBio); n != nil {
		raw.Bio = strings.TrimSpace(root.FindNodes(n).Text())
	}

	if !have.hasCount() {
		for _, n := range cascadia.QueryAll(rootNode(pg.doc), selOGDesc) {
			content, _ := root.FindNodes(n).Attr("content")
			if count := followers.Find(content); count != "" {
				raw.Followers = count
				break
			}
		}
	}

	body, err := pg.sess.Evaluate(ctx, bodyTextJS)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeEvaluation, "failed to read page text")
	}
	text := body.Str()
	if strings.TrimSpace(text) == "" {
		text = visibleText(pg.content)
	}

	if raw.Followers == nil && !have.hasCount() {
		if count := followers.Find(text); count != "" {
			raw.Followers = count
		}
	}
	for _, m := range privateMarkers {
		if strings.Contains(text, m) {
			raw.IsPrivate = true
			break
		}
	}
	return raw, nil
}

func rootNode(doc *goquery.Document) *html.Node {
	if len(doc.Nodes) == 0 {
		return &html.Node{Type: html.DocumentNode}
	}
	return doc.Nodes[0]
}

func mustSelector(s string) cascadia.SelectorGroup {
	sel, err := cascadia.ParseGroup(s)
	if err != nil {
		panic(err)
	}
	return sel
}

// ── helpers ─────────────────────────────────────────────────────────────

// dig walks nested maps and slices. Path elements are map keys (string) or
// slice indexes (int). It returns nil as soon as a step does not resolve.
func dig(v any, path ...any) any {
	for _, p := range path {
		switch key := p.(type) {
		case string:
			m, ok := v.(map[string]any)
			if !ok {
				return nil
			}
			v = m[key]
		case int:
			s, ok := v.([]any)
			if !ok || key < 0 || key >= len(s) {
				return nil
			}
			v = s[key]
		default:
			return nil
		}
	}
	return v
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
