package scraper

import (
	"time"

	"github.com/use-agent/igprobe/followers"
	"github.com/use-agent/igprobe/models"
)

// Assemble builds the public record from a merged extraction. Missing text
// defaults to "", missing flags to false and a missing count to "unknown".
func Assemble(username string, res *ExtractionResult, now time.Time) *models.ProfileRecord {
	rec := &models.ProfileRecord{
		Username:  username,
		Followers: models.FollowersUnknown,
		ScrapedAt: models.FormatTimestamp(now),
	}
	if res == nil {
		return rec
	}
	rec.Followers = followers.Normalize(res.Followers)
	rec.Bio = res.Bio
	rec.FullName = res.FullName
	rec.ProfilePic = res.ProfilePic
	rec.IsPrivate = res.IsPrivate
	rec.IsVerified = res.IsVerified
	return rec
}
