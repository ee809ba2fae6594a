package fetch

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/KinGao294/oasis/internal/models"
	"github.com/KinGao294/oasis/internal/sources"
)

var watchLinkRe = regexp.MustCompile(`v=([a-zA-Z0-9_-]+)`)

// NormalizeYouTube shapes a channel RSS feed into canonical items.
// Entries without an extractable video id are skipped.
func NormalizeYouTube(src sources.Source, feed *gofeed.Feed, now time.Time) []models.Item {
	items := make([]models.Item, 0, maxEntriesPerSource)

	for _, entry := range capEntries(feed.Items) {
		videoID := youtubeVideoID(entry)
		if videoID == "" {
			continue
		}

		items = append(items, models.Item{
			ID:           "yt_" + videoID,
			Source:       src.Name,
			SourceID:     src.ID,
			SourceAvatar: src.AvatarPtr(),
			Platform:     models.PlatformYouTube,
			Domains:      src.Domains,
			Title:        strPtr(entry.Title),
			URL:          fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID),
			// The thumbnail URL is deterministic; no extra fetch needed.
			Thumbnail: strPtr(fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", videoID)),
			Published: publishedAt(entry, now),
			Duration:  youtubeDuration(entry),
		})
	}

	return items
}

// youtubeVideoID reads the yt:videoId extension, falling back to the watch
// link's v= parameter.
func youtubeVideoID(entry *gofeed.Item) string {
	if ids, ok := entry.Extensions["yt"]["videoId"]; ok && len(ids) > 0 && ids[0].Value != "" {
		return ids[0].Value
	}
	if m := watchLinkRe.FindStringSubmatch(entry.Link); m != nil {
		return m[1]
	}
	return ""
}

// youtubeDuration reads the media:group/media:content duration attribute.
// Depending on the feed it is bare seconds or an ISO-8601 PT token.
func youtubeDuration(entry *gofeed.Item) *int {
	for _, group := range entry.Extensions["media"]["group"] {
		for _, content := range group.Children["content"] {
			if d := content.Attrs["duration"]; d != "" {
				return parseDurationValue(d)
			}
		}
	}
	for _, content := range entry.Extensions["media"]["content"] {
		if d := content.Attrs["duration"]; d != "" {
			return parseDurationValue(d)
		}
	}
	return nil
}

func parseDurationValue(d string) *int {
	if secs, err := strconv.Atoi(d); err == nil {
		return &secs
	}
	return parseISODuration(d)
}
