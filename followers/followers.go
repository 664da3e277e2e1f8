// Package followers turns human-readable follower counts ("2.1K", "12,540")
// into decimal integer strings.
package followers

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/use-agent/igprobe/models"
)

// Pattern matches "<number><suffix?> followers" in free text. The first
// submatch is the raw count, e.g. "1,234", "2.1K", "97M".
var Pattern = regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?[KMB]?)\s*followers`)

// Find returns the first raw count matched by Pattern in text, or "".
func Find(text string) string {
	m := Pattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// multipliers are checked in order against the last character.
var multipliers = []struct {
	suffix byte
	factor float64
}{
	{'K', 1e3},
	{'M', 1e6},
	{'B', 1e9},
}

// Normalize converts a raw follower value to a digit-only string, or
// models.FollowersUnknown when it cannot be interpreted. It never panics.
func Normalize(raw any) string {
	switch v := raw.(type) {
	case nil:
		return models.FollowersUnknown
	case string:
		return normalizeString(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return models.FollowersUnknown
		}
		return formatFloor(f)
	case float64:
		return formatFloor(v)
	case float32:
		return formatFloor(float64(v))
	case int:
		return formatInt(int64(v))
	case int8:
		return formatInt(int64(v))
	case int16:
		return formatInt(int64(v))
	case int32:
		return formatInt(int64(v))
	case int64:
		return formatInt(v)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return models.FollowersUnknown
	}
}

func normalizeString(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(s)))
	if cleaned == "" {
		return models.FollowersUnknown
	}

	factor := 1.0
	for _, m := range multipliers {
		if cleaned[len(cleaned)-1] == m.suffix {
			cleaned = cleaned[:len(cleaned)-1]
			factor = m.factor
			break
		}
	}

	n, ok := parseLeadingFloat(strings.ReplaceAll(cleaned, ",", ""))
	if !ok {
		return models.FollowersUnknown
	}
	return formatFloor(n * factor)
}

// parseLeadingFloat parses the longest decimal prefix of s ("12abc" -> 12,
// ".5" -> 0.5, "1E5" -> 100000). It fails when s does not start with a number.
func parseLeadingFloat(s string) (float64, bool) {
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		frac := end + 1
		for frac < len(s) && s[frac] >= '0' && s[frac] <= '9' {
			frac++
			digits++
		}
		if frac > end+1 {
			end = frac
		}
	}
	if digits == 0 {
		return 0, false
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		start := exp
		for exp < len(s) && s[exp] >= '0' && s[exp] <= '9' {
			exp++
		}
		if exp > start {
			end = exp
		}
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// formatFloor floors f and renders it without exponent. Negative, NaN and
// infinite values are not counts.
func formatFloor(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return models.FollowersUnknown
	}
	return strconv.FormatFloat(math.Floor(f), 'f', 0, 64)
}

func formatInt(n int64) string {
	if n < 0 {
		return models.FollowersUnknown
	}
	return strconv.FormatInt(n, 10)
}
