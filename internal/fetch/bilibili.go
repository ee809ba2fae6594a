package fetch

import (
	"fmt"
	"regexp"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/KinGao294/oasis/internal/models"
	"github.com/KinGao294/oasis/internal/sources"
)

var bvidRe = regexp.MustCompile(`BV[0-9A-Za-z]+`)

// NormalizeBilibili shapes an RSSHub user-video feed into canonical items.
// Entries whose link carries no BV id are skipped.
func NormalizeBilibili(src sources.Source, feed *gofeed.Feed, now time.Time) []models.Item {
	items := make([]models.Item, 0, maxEntriesPerSource)

	for _, entry := range capEntries(feed.Items) {
		bvid := bvidRe.FindString(entry.Link)
		if bvid == "" {
			continue
		}

		// RSSHub embeds the cover as the first image of the HTML
		// description, often with a protocol-relative URL.
		var thumbnail *string
		if img := firstImageSrc(entry.Description); img != "" {
			thumbnail = strPtr(fixProtocolRelative(img))
		}

		items = append(items, models.Item{
			ID:           "bl_" + bvid,
			Source:       src.Name,
			SourceID:     src.ID,
			SourceAvatar: src.AvatarPtr(),
			Platform:     models.PlatformBilibili,
			Domains:      src.Domains,
			Title:        strPtr(entry.Title),
			URL:          fmt.Sprintf("https://www.bilibili.com/video/%s", bvid),
			Thumbnail:    thumbnail,
			Published:    publishedAt(entry, now),
		})
	}

	return items
}
