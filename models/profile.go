package models

import "time"

// FollowersUnknown is the follower value used when no count could be parsed.
const FollowersUnknown = "unknown"

// TimestampLayout is the ISO-8601 layout of ScrapedAt (millisecond precision, UTC "Z").
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ProfileRecord is the response for GET /scrape/:username.
//
// Every field is always present: strings default to "" and booleans to false.
type ProfileRecord struct {
	Username string `json:"username"`

	// Followers is a decimal integer string or FollowersUnknown.
	Followers string `json:"followers"`

	Bio        string `json:"bio"`
	FullName   string `json:"fullName"`
	ProfilePic string `json:"profilePic"`
	IsPrivate  bool   `json:"isPrivate"`
	IsVerified bool   `json:"isVerified"`

	// ScrapedAt is formatted with TimestampLayout.
	ScrapedAt string `json:"scrapedAt"`
}

// FormatTimestamp renders t the way every timestamp in the API is rendered.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
