package models

// Transcript source tags. The word-count rule depends on them: caption
// tracks count whitespace-separated tokens, CC subtitles count characters.
const (
	TranscriptSourceYouTube  = "youtube_caption"
	TranscriptSourceBilibili = "bilibili_cc"
)

// TranscriptSegment is one time-aligned caption line.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the per-item transcript artifact. Written once by the
// transcript stage; its presence on disk gates re-fetching.
type Transcript struct {
	Source    string              `json:"source"`
	Language  string              `json:"language"`
	FullText  string              `json:"full_text"`
	Segments  []TranscriptSegment `json:"segments"`
	WordCount int                 `json:"word_count"`
	FetchedAt string              `json:"fetched_at"`
}

// KeyPoint is one timestamped entry of a timeline summary.
type KeyPoint struct {
	Timestamp float64 `json:"timestamp"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
}

// Summary is the per-item AI summary artifact. Written once by the summary
// stage; its presence on disk gates re-generation.
type Summary struct {
	VideoID     string     `json:"video_id"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	KeyPoints   []KeyPoint `json:"key_points"`
	Tags        []string   `json:"tags"`
	GeneratedAt string     `json:"generated_at"`
}
