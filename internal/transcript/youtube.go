package transcript

import (
	"context"
	"encoding/xml"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/KinGao294/oasis/internal/models"
)

const timedTextURL = "https://www.youtube.com/api/timedtext"

// Language preference for caption tracks, checked in order.
var captionLanguages = []string{"en", "zh-Hans", "zh-Hant", "zh"}

// YouTubeFetcher resolves caption tracks through the timedtext endpoint.
// Manually authored tracks are preferred over auto-generated ones.
type YouTubeFetcher struct {
	client  *resty.Client
	baseURL string
	now     func() time.Time
}

func NewYouTubeFetcher(timeout time.Duration) *YouTubeFetcher {
	return &YouTubeFetcher{
		client:  resty.New().SetTimeout(timeout),
		baseURL: timedTextURL,
		now:     time.Now,
	}
}

type captionTrackList struct {
	XMLName xml.Name       `xml:"transcript_list"`
	Tracks  []captionTrack `xml:"track"`
}

type captionTrack struct {
	LangCode string `xml:"lang_code,attr"`
	Kind     string `xml:"kind,attr"` // "asr" for auto-generated
	Name     string `xml:"name,attr"`
}

type timedTranscript struct {
	XMLName xml.Name    `xml:"transcript"`
	Lines   []timedLine `xml:"text"`
}

type timedLine struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Text  string  `xml:",chardata"`
}

func (f *YouTubeFetcher) Fetch(ctx context.Context, videoID string) (*models.Transcript, error) {
	track, err := f.pickTrack(ctx, videoID)
	if err != nil {
		return nil, err
	}

	lines, err := f.fetchTrack(ctx, videoID, track)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrUnavailable
	}

	segments := make([]models.TranscriptSegment, 0, len(lines))
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		segments = append(segments, models.TranscriptSegment{
			Start: round2(line.Start),
			End:   round2(line.Start + line.Dur),
			Text:  text,
		})
		parts = append(parts, text)
	}
	if len(segments) == 0 {
		return nil, ErrUnavailable
	}

	fullText := strings.Join(parts, " ")
	return &models.Transcript{
		Source:   models.TranscriptSourceYouTube,
		Language: track.LangCode,
		FullText: fullText,
		Segments: segments,
		// Caption tracks are word-based; count tokens.
		WordCount: len(strings.Fields(fullText)),
		FetchedAt: f.now().UTC().Format(time.RFC3339),
	}, nil
}

// pickTrack lists available tracks and picks a manual track in language
// preference order, falling back to an auto-generated one.
func (f *YouTubeFetcher) pickTrack(ctx context.Context, videoID string) (*captionTrack, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"type": "list", "v": videoID}).
		Get(f.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list caption tracks: %w", err)
	}
	if resp.StatusCode() != http.StatusOK || len(resp.Body()) == 0 {
		return nil, ErrUnavailable
	}

	var list captionTrackList
	if err := xml.Unmarshal(resp.Body(), &list); err != nil {
		return nil, fmt.Errorf("failed to parse caption track list: %w", err)
	}
	if len(list.Tracks) == 0 {
		return nil, ErrUnavailable
	}

	for _, wantASR := range []bool{false, true} {
		for _, lang := range captionLanguages {
			for i := range list.Tracks {
				track := &list.Tracks[i]
				if track.LangCode == lang && (track.Kind == "asr") == wantASR {
					return track, nil
				}
			}
		}
	}
	return nil, ErrUnavailable
}

func (f *YouTubeFetcher) fetchTrack(ctx context.Context, videoID string, track *captionTrack) ([]timedLine, error) {
	params := map[string]string{
		"v":    videoID,
		"lang": track.LangCode,
	}
	if track.Kind != "" {
		params["kind"] = track.Kind
	}
	if track.Name != "" {
		params["name"] = track.Name
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(f.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch caption track: %w", err)
	}
	if resp.StatusCode() != http.StatusOK || len(resp.Body()) == 0 {
		return nil, ErrUnavailable
	}

	var transcript timedTranscript
	if err := xml.Unmarshal(resp.Body(), &transcript); err != nil {
		return nil, fmt.Errorf("failed to parse caption track: %w", err)
	}
	return transcript.Lines, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
