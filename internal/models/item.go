package models

// Platform identifies the origin of a feed item.
type Platform string

const (
	PlatformYouTube  Platform = "youtube"
	PlatformBilibili Platform = "bilibili"
	PlatformX        Platform = "x"
	PlatformPodcast  Platform = "podcast"
)

// SupportsTranscript reports whether items from this platform can carry
// caption transcripts.
func (p Platform) SupportsTranscript() bool {
	return p == PlatformYouTube || p == PlatformBilibili
}

// Item is one normalized content record (video, tweet, episode) in the
// canonical feed. IDs are globally unique and stable across re-fetches:
// yt_<videoId>, bl_<bvid>, x_<tweetId>, pod_<sourceId>_<token>.
type Item struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	SourceID     string   `json:"sourceId"`
	SourceAvatar *string  `json:"sourceAvatar"`
	Platform     Platform `json:"platform"`
	Domains      []string `json:"domains"`

	// Title is null for X posts; Content and Images are only set for them.
	Title   *string  `json:"title"`
	Content string   `json:"content,omitempty"`
	Images  []string `json:"images,omitempty"`

	URL       string  `json:"url"`
	Thumbnail *string `json:"thumbnail"`
	Published string  `json:"published"`
	Duration  *int    `json:"duration,omitempty"`

	// Derived fields, owned by the enrichment stages.
	HasTranscript     bool    `json:"hasTranscript"`
	TranscriptPreview *string `json:"transcriptPreview"`
	HasSummary        bool    `json:"hasSummary,omitempty"`
}

// FeedDocument is the persisted feed index. Count always equals len(Items)
// and Items is sorted by Published descending after every save.
type FeedDocument struct {
	LastUpdated string `json:"last_updated"`
	Count       int    `json:"count"`
	Items       []Item `json:"items"`
}

// FindItem returns a pointer into Items for the given id, or nil.
// The document has no secondary index; lookups are linear.
func (d *FeedDocument) FindItem(id string) *Item {
	for i := range d.Items {
		if d.Items[i].ID == id {
			return &d.Items[i]
		}
	}
	return nil
}
