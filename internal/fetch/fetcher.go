// Package fetch retrieves raw platform feeds and normalizes them into
// canonical feed items.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"

	"github.com/KinGao294/oasis/internal/logger"
	"github.com/KinGao294/oasis/internal/models"
	"github.com/KinGao294/oasis/internal/sources"
)

// Each source contributes at most this many of its newest entries per cycle.
const maxEntriesPerSource = 10

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Unofficial RSS mirrors for X, tried in order. Any of them can be down at
// a given moment, so an empty result is not an error.
var nitterInstances = []string{
	"nitter.poast.org",
	"nitter.privacydev.net",
	"nitter.net",
}

// Fetcher retrieves RSS feeds over HTTP and hands the parsed result to the
// per-platform normalizers.
type Fetcher struct {
	client *resty.Client
	parser *gofeed.Parser
	now    func() time.Time
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(2).
			SetRetryWaitTime(2*time.Second).
			SetHeader("User-Agent", userAgent),
		parser: gofeed.NewParser(),
		now:    time.Now,
	}
}

func (f *Fetcher) fetchFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed from %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode(), url)
	}

	feed, err := f.parser.ParseString(string(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed from %s: %w", url, err)
	}
	return feed, nil
}

// FetchSource fetches and normalizes one source. A missing identifying key
// on the source itself is an error; per-entry extraction failures only
// reduce the yield.
func (f *Fetcher) FetchSource(ctx context.Context, src sources.Source) ([]models.Item, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	switch src.Platform {
	case models.PlatformYouTube:
		url := fmt.Sprintf("https://www.youtube.com/feeds/videos.xml?channel_id=%s", src.ChannelID)
		feed, err := f.fetchFeed(ctx, url)
		if err != nil {
			return nil, err
		}
		return NormalizeYouTube(src, feed, f.now()), nil

	case models.PlatformBilibili:
		url := fmt.Sprintf("https://rsshub.app/bilibili/user/video/%s", src.UID)
		feed, err := f.fetchFeed(ctx, url)
		if err != nil {
			return nil, err
		}
		return NormalizeBilibili(src, feed, f.now()), nil

	case models.PlatformX:
		feed := f.fetchNitter(ctx, src.Username)
		if feed == nil {
			// Mirrors are unreliable; yield nothing rather than fail.
			return []models.Item{}, nil
		}
		return NormalizeX(src, feed, f.now()), nil

	case models.PlatformPodcast:
		feed, err := f.fetchFeed(ctx, src.FeedURL)
		if err != nil {
			return nil, err
		}
		return NormalizePodcast(src, feed, f.now()), nil
	}

	return nil, fmt.Errorf("unknown platform %q for %s", src.Platform, src.Name)
}

// fetchNitter tries each mirror in order and returns the first feed that
// has entries, or nil when all mirrors fail.
func (f *Fetcher) fetchNitter(ctx context.Context, username string) *gofeed.Feed {
	log := logger.Get()
	for _, instance := range nitterInstances {
		url := fmt.Sprintf("https://%s/%s/rss", instance, username)
		feed, err := f.fetchFeed(ctx, url)
		if err != nil {
			log.Debug().Str("instance", instance).Err(err).Msg("nitter mirror failed")
			continue
		}
		if len(feed.Items) > 0 {
			return feed
		}
	}
	return nil
}

// Stats is the run summary surfaced to the operator after a fetch cycle.
type Stats struct {
	Sources int
	Items   int
	Failed  int
}

// FetchAll fetches every source sequentially. Failures are isolated per
// source: a dead mirror or an invalid source never aborts the cycle.
func (f *Fetcher) FetchAll(ctx context.Context, srcs []sources.Source) ([]models.Item, Stats) {
	log := logger.Get()
	stats := Stats{Sources: len(srcs)}

	var all []models.Item
	for _, src := range srcs {
		items, err := f.FetchSource(ctx, src)
		if err != nil {
			stats.Failed++
			log.Warn().
				Str("source", src.Name).
				Str("platform", string(src.Platform)).
				Err(err).
				Msg("source fetch failed")
			continue
		}
		all = append(all, items...)
		log.Info().
			Str("source", src.Name).
			Str("platform", string(src.Platform)).
			Int("items", len(items)).
			Msg("source fetched")
	}

	stats.Items = len(all)
	return all, stats
}

func strPtr(s string) *string {
	return &s
}

// publishedAt formats the entry's publication time, falling back to the
// update time and finally to the fetch time when the feed's date is
// missing or unparsable.
func publishedAt(item *gofeed.Item, now time.Time) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.Format(time.RFC3339)
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.Format(time.RFC3339)
	}
	return now.UTC().Format(time.RFC3339)
}

// capEntries limits a feed to its newest entries, trusting source order.
func capEntries(items []*gofeed.Item) []*gofeed.Item {
	if len(items) > maxEntriesPerSource {
		return items[:maxEntriesPerSource]
	}
	return items
}
