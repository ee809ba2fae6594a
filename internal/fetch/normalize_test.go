package fetch

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/KinGao294/oasis/internal/models"
	"github.com/KinGao294/oasis/internal/sources"
)

var testNow = time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)

func parseFeed(t *testing.T, xml string) *gofeed.Feed {
	t.Helper()
	feed, err := gofeed.NewParser().ParseString(xml)
	if err != nil {
		t.Fatalf("failed to parse test feed: %v", err)
	}
	return feed
}

const youtubeFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015"
      xmlns:media="http://search.yahoo.com/mrss/"
      xmlns="http://www.w3.org/2005/Atom">
  <title>Test Channel</title>
  <entry>
    <id>yt:video:dQw4w9WgXcQ</id>
    <yt:videoId>dQw4w9WgXcQ</yt:videoId>
    <title>First video</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=dQw4w9WgXcQ"/>
    <published>2024-05-01T10:00:00+00:00</published>
    <media:group>
      <media:title>First video</media:title>
      <media:content url="https://example.com/v.mp4" duration="933"/>
    </media:group>
  </entry>
  <entry>
    <id>yt:video:abc_-123XYZ</id>
    <title>Second video</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=abc_-123XYZ"/>
    <published>2024-04-30T09:00:00+00:00</published>
  </entry>
</feed>`

func TestNormalizeYouTube(t *testing.T) {
	src := sources.Source{
		ID:        "chan1",
		Name:      "Test Channel",
		Platform:  models.PlatformYouTube,
		Domains:   []string{"tech"},
		ChannelID: "UCxyz",
	}
	items := NormalizeYouTube(src, parseFeed(t, youtubeFeedXML), testNow)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.ID != "yt_dQw4w9WgXcQ" {
		t.Errorf("id = %q, want yt_dQw4w9WgXcQ", first.ID)
	}
	if first.Platform != models.PlatformYouTube {
		t.Errorf("platform = %q", first.Platform)
	}
	if first.URL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("url = %q", first.URL)
	}
	if first.Thumbnail == nil || *first.Thumbnail != "https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg" {
		t.Errorf("thumbnail = %v", first.Thumbnail)
	}
	if first.Duration == nil || *first.Duration != 933 {
		t.Errorf("duration = %v, want 933", first.Duration)
	}
	if first.Published != "2024-05-01T10:00:00Z" {
		t.Errorf("published = %q", first.Published)
	}

	// The second entry has no yt:videoId extension; the id must come
	// from the watch link.
	if items[1].ID != "yt_abc_-123XYZ" {
		t.Errorf("fallback id = %q, want yt_abc_-123XYZ", items[1].ID)
	}
	if items[1].Duration != nil {
		t.Errorf("duration without media:content = %v, want nil", items[1].Duration)
	}
}

const bilibiliFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Up</title>
    <item>
      <title>Video one</title>
      <link>https://www.bilibili.com/video/BV1xx411c7mD</link>
      <description><![CDATA[<img src="//i1.hdslb.com/cover.jpg">some description]]></description>
      <pubDate>Wed, 01 May 2024 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Not a video</title>
      <link>https://space.bilibili.com/12345</link>
      <pubDate>Tue, 30 Apr 2024 10:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestNormalizeBilibili(t *testing.T) {
	src := sources.Source{
		ID:       "up1",
		Name:     "Test Up",
		Platform: models.PlatformBilibili,
		UID:      "12345",
	}
	items := NormalizeBilibili(src, parseFeed(t, bilibiliFeedXML), testNow)
	if len(items) != 1 {
		t.Fatalf("expected 1 item (entry without BV id skipped), got %d", len(items))
	}

	item := items[0]
	if item.ID != "bl_BV1xx411c7mD" {
		t.Errorf("id = %q", item.ID)
	}
	if item.URL != "https://www.bilibili.com/video/BV1xx411c7mD" {
		t.Errorf("url = %q", item.URL)
	}
	if item.Thumbnail == nil || *item.Thumbnail != "https://i1.hdslb.com/cover.jpg" {
		t.Errorf("thumbnail = %v, want protocol-relative URL fixed", item.Thumbnail)
	}
}

const xFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>alice / @alice</title>
    <item>
      <title>ignored</title>
      <link>https://nitter.net/alice/status/1790000000000000001</link>
      <description><![CDATA[<p>Hello &amp; welcome <img src="https://pbs.twimg.com/media/x.jpg"> <img src="https://tracker.example/pixel.gif"></p>]]></description>
      <pubDate>Wed, 01 May 2024 10:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestNormalizeX(t *testing.T) {
	src := sources.Source{
		ID:       "alice",
		Name:     "Alice",
		Platform: models.PlatformX,
		Username: "alice",
	}
	items := NormalizeX(src, parseFeed(t, xFeedXML), testNow)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.ID != "x_1790000000000000001" {
		t.Errorf("id = %q", item.ID)
	}
	if item.Title != nil {
		t.Errorf("posts must not carry a title, got %v", *item.Title)
	}
	if item.Content != "Hello & welcome" {
		t.Errorf("content = %q", item.Content)
	}
	if len(item.Images) != 1 || item.Images[0] != "https://pbs.twimg.com/media/x.jpg" {
		t.Errorf("images = %v, want only platform media hosts", item.Images)
	}
	if item.URL != "https://x.com/alice/status/1790000000000000001" {
		t.Errorf("url = %q, must point at the canonical site", item.URL)
	}
}

const podcastFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd" version="2.0">
  <channel>
    <title>Test Pod</title>
    <image>
      <url>https://pod.example/art.jpg</url>
      <title>Test Pod</title>
      <link>https://pod.example</link>
    </image>
    <item>
      <title>Episode 1</title>
      <guid>https://pod.example/ep?id=1</guid>
      <link>https://pod.example/ep1</link>
      <enclosure url="https://cdn.example/ep1.mp3" type="audio/mpeg" length="1234"/>
      <itunes:duration>1:02:03</itunes:duration>
      <description><![CDATA[<p>A great episode about things.</p>]]></description>
      <pubDate>Wed, 01 May 2024 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Episode 2</title>
      <guid>ep-2</guid>
      <link>https://pod.example/ep2</link>
      <itunes:image href="https://pod.example/ep2.jpg"/>
      <itunes:duration>5:30</itunes:duration>
      <pubDate>Tue, 30 Apr 2024 10:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestNormalizePodcast(t *testing.T) {
	src := sources.Source{
		ID:       "pod1",
		Name:     "Test Pod",
		Platform: models.PlatformPodcast,
		FeedURL:  "https://pod.example/feed.xml",
	}
	items := NormalizePodcast(src, parseFeed(t, podcastFeedXML), testNow)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.ID != "pod_pod1_https___pod_example_ep_id_1" {
		t.Errorf("id = %q, guid must be sanitized and namespaced", first.ID)
	}
	if first.URL != "https://cdn.example/ep1.mp3" {
		t.Errorf("url = %q, want audio enclosure", first.URL)
	}
	if first.Duration == nil || *first.Duration != 3723 {
		t.Errorf("duration = %v, want 3723", first.Duration)
	}
	if first.Thumbnail == nil || *first.Thumbnail != "https://pod.example/art.jpg" {
		t.Errorf("thumbnail = %v, want feed artwork fallback", first.Thumbnail)
	}
	if first.SourceAvatar == nil || *first.SourceAvatar != "https://pod.example/art.jpg" {
		t.Errorf("source avatar = %v, want feed artwork", first.SourceAvatar)
	}
	if first.TranscriptPreview == nil || *first.TranscriptPreview != "A great episode about things." {
		t.Errorf("preview = %v", first.TranscriptPreview)
	}

	second := items[1]
	if second.ID != "pod_pod1_ep_2" {
		t.Errorf("id = %q", second.ID)
	}
	if second.URL != "https://pod.example/ep2" {
		t.Errorf("url = %q, want link fallback when no audio enclosure", second.URL)
	}
	if second.Thumbnail == nil || *second.Thumbnail != "https://pod.example/ep2.jpg" {
		t.Errorf("thumbnail = %v, want episode artwork", second.Thumbnail)
	}
	if second.Duration == nil || *second.Duration != 330 {
		t.Errorf("duration = %v, want 330", second.Duration)
	}
}

func TestPodcastEpisodeIDLength(t *testing.T) {
	longGUID := strings.Repeat("x", 80) + "?id=1"
	feedXML := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Pod</title>
<item><title>Ep</title><guid>%s</guid><link>https://pod.example/ep</link>
<pubDate>Wed, 01 May 2024 10:00:00 GMT</pubDate></item>
</channel></rss>`, longGUID)

	src := sources.Source{ID: "p", Name: "Pod", Platform: models.PlatformPodcast, FeedURL: "https://pod.example/feed.xml"}
	items := NormalizePodcast(src, parseFeed(t, feedXML), testNow)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	episodeID := strings.TrimPrefix(items[0].ID, "pod_p_")
	if len(episodeID) != 50 {
		t.Errorf("episode id length = %d, want capped at 50", len(episodeID))
	}
}

func TestCapEntries(t *testing.T) {
	entries := make([]*gofeed.Item, 14)
	for i := range entries {
		entries[i] = &gofeed.Item{Title: fmt.Sprintf("entry %d", i)}
	}

	capped := capEntries(entries)
	if len(capped) != maxEntriesPerSource {
		t.Fatalf("expected %d entries, got %d", maxEntriesPerSource, len(capped))
	}
	// Feeds list newest first; the cap must keep the head.
	if capped[0].Title != "entry 0" {
		t.Errorf("first entry = %q", capped[0].Title)
	}
}

func TestPublishedAtFallback(t *testing.T) {
	entry := &gofeed.Item{}
	got := publishedAt(entry, testNow)
	if got != "2024-05-02T12:00:00Z" {
		t.Errorf("published fallback = %q", got)
	}
}
