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

var statusLinkRe = regexp.MustCompile(`/status/(\d+)`)

// Only images hosted on the platform's media CDNs are kept; anything else
// embedded in the mirror's HTML is discarded.
var xMediaHosts = []string{"pbs.twimg.com", "pic.twitter.com"}

// NormalizeX shapes a nitter RSS feed into canonical items. Posts have no
// title; the body text and any media images are extracted from the entry's
// HTML description.
func NormalizeX(src sources.Source, feed *gofeed.Feed, now time.Time) []models.Item {
	items := make([]models.Item, 0, maxEntriesPerSource)

	for _, entry := range capEntries(feed.Items) {
		m := statusLinkRe.FindStringSubmatch(entry.Link)
		if m == nil {
			continue
		}
		tweetID := m[1]

		items = append(items, models.Item{
			ID:           "x_" + tweetID,
			Source:       src.Name,
			SourceID:     src.ID,
			SourceAvatar: src.AvatarPtr(),
			Platform:     models.PlatformX,
			Domains:      src.Domains,
			Title:        nil, // posts have no title
			Content:      stripHTML(entry.Description),
			Images:       xImages(entry.Description),
			// Point back at the canonical site, not the mirror.
			URL:       fmt.Sprintf("https://x.com/%s/status/%s", src.Username, tweetID),
			Published: publishedAt(entry, now),
		})
	}

	return items
}

func xImages(description string) []string {
	var images []string
	for _, src := range imageSrcs(description) {
		for _, host := range xMediaHosts {
			if strings.Contains(src, host) {
				images = append(images, src)
				break
			}
		}
	}
	return images
}
