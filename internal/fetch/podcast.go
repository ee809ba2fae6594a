package fetch

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/KinGao294/oasis/internal/models"
	"github.com/KinGao294/oasis/internal/sources"
)

var nonAlphanumRe = regexp.MustCompile(`[^a-zA-Z0-9]`)

const episodeIDMaxLen = 50

// NormalizePodcast shapes a podcast RSS feed into canonical items. Episode
// ids are derived from the GUID (or link) and namespaced with the source id
// so identical GUIDs in different feeds cannot collide.
func NormalizePodcast(src sources.Source, feed *gofeed.Feed, now time.Time) []models.Item {
	podcastImage := podcastArtwork(feed)

	items := make([]models.Item, 0, maxEntriesPerSource)
	for _, entry := range capEntries(feed.Items) {
		guid := entry.GUID
		if guid == "" {
			guid = entry.Link
		}
		if guid == "" {
			continue
		}
		episodeID := truncateRunes(nonAlphanumRe.ReplaceAllString(guid, "_"), episodeIDMaxLen)

		// Episode artwork falls back to the feed's artwork.
		thumbnail := podcastImage
		if entry.ITunesExt != nil && entry.ITunesExt.Image != "" {
			thumbnail = strPtr(entry.ITunesExt.Image)
		}

		var duration *int
		if entry.ITunesExt != nil && entry.ITunesExt.Duration != "" {
			duration = parseClockDuration(entry.ITunesExt.Duration)
		}

		var preview *string
		if clean := stripHTML(episodeDescription(entry)); clean != "" {
			preview = strPtr(truncateRunes(clean, 200))
		}

		items = append(items, models.Item{
			ID:                fmt.Sprintf("pod_%s_%s", src.ID, episodeID),
			Source:            src.Name,
			SourceID:          src.ID,
			SourceAvatar:      podcastImage,
			Platform:          models.PlatformPodcast,
			Domains:           src.Domains,
			Title:             strPtr(entry.Title),
			URL:               audioURL(entry),
			Thumbnail:         thumbnail,
			Duration:          duration,
			Published:         publishedAt(entry, now),
			TranscriptPreview: preview,
		})
	}

	return items
}

func podcastArtwork(feed *gofeed.Feed) *string {
	if feed.Image != nil && feed.Image.URL != "" {
		return strPtr(feed.Image.URL)
	}
	if feed.ITunesExt != nil && feed.ITunesExt.Image != "" {
		return strPtr(feed.ITunesExt.Image)
	}
	return nil
}

// audioURL prefers the first enclosure with an audio MIME type over the
// entry's permalink.
func audioURL(entry *gofeed.Item) string {
	for _, enc := range entry.Enclosures {
		if strings.HasPrefix(enc.Type, "audio/") && enc.URL != "" {
			return enc.URL
		}
	}
	return entry.Link
}

func episodeDescription(entry *gofeed.Item) string {
	if entry.Description != "" {
		return entry.Description
	}
	if entry.ITunesExt != nil {
		return entry.ITunesExt.Summary
	}
	return ""
}
