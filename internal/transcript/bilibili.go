package transcript

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"github.com/KinGao294/oasis/internal/models"
)

const (
	bilibiliViewURL   = "https://api.bilibili.com/x/web-interface/view"
	bilibiliPlayerURL = "https://api.bilibili.com/x/player/v2"

	bilibiliUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// BilibiliFetcher pulls CC subtitles: the metadata endpoint resolves the
// internal content id, the player endpoint lists subtitle tracks, and the
// first available track is fetched and parsed.
type BilibiliFetcher struct {
	client    *resty.Client
	viewURL   string
	playerURL string
	now       func() time.Time
}

func NewBilibiliFetcher(timeout time.Duration) *BilibiliFetcher {
	return &BilibiliFetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", bilibiliUserAgent),
		viewURL:   bilibiliViewURL,
		playerURL: bilibiliPlayerURL,
		now:       time.Now,
	}
}

type bilibiliViewResponse struct {
	Code int `json:"code"`
	Data struct {
		CID int64 `json:"cid"`
		AID int64 `json:"aid"`
	} `json:"data"`
}

type bilibiliPlayerResponse struct {
	Code int `json:"code"`
	Data struct {
		Subtitle struct {
			Subtitles []bilibiliSubtitle `json:"subtitles"`
		} `json:"subtitle"`
	} `json:"data"`
}

type bilibiliSubtitle struct {
	Lan         string `json:"lan"`
	SubtitleURL string `json:"subtitle_url"`
}

type bilibiliSubtitleBody struct {
	Body []struct {
		From    float64 `json:"from"`
		To      float64 `json:"to"`
		Content string  `json:"content"`
	} `json:"body"`
}

func (f *BilibiliFetcher) Fetch(ctx context.Context, bvid string) (*models.Transcript, error) {
	var view bilibiliViewResponse
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParam("bvid", bvid).
		SetResult(&view).
		Get(f.viewURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video info: %w", err)
	}
	if resp.StatusCode() != http.StatusOK || view.Code != 0 || view.Data.CID == 0 || view.Data.AID == 0 {
		return nil, ErrUnavailable
	}

	var player bilibiliPlayerResponse
	resp, err = f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"cid":  strconv.FormatInt(view.Data.CID, 10),
			"aid":  strconv.FormatInt(view.Data.AID, 10),
			"bvid": bvid,
		}).
		SetResult(&player).
		Get(f.playerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch player info: %w", err)
	}
	if resp.StatusCode() != http.StatusOK || len(player.Data.Subtitle.Subtitles) == 0 {
		return nil, ErrUnavailable
	}

	subtitle := player.Data.Subtitle.Subtitles[0]
	if subtitle.SubtitleURL == "" {
		return nil, ErrUnavailable
	}
	subtitleURL := subtitle.SubtitleURL
	if strings.HasPrefix(subtitleURL, "//") {
		subtitleURL = "https:" + subtitleURL
	}

	var body bilibiliSubtitleBody
	resp, err = f.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get(subtitleURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subtitles: %w", err)
	}
	if resp.StatusCode() != http.StatusOK || len(body.Body) == 0 {
		return nil, ErrUnavailable
	}

	segments := make([]models.TranscriptSegment, 0, len(body.Body))
	parts := make([]string, 0, len(body.Body))
	for _, line := range body.Body {
		segments = append(segments, models.TranscriptSegment{
			Start: round2(line.From),
			End:   round2(line.To),
			Text:  line.Content,
		})
		parts = append(parts, line.Content)
	}

	language := subtitle.Lan
	if language == "" {
		language = "zh"
	}

	fullText := strings.Join(parts, " ")
	return &models.Transcript{
		Source:   models.TranscriptSourceBilibili,
		Language: language,
		FullText: fullText,
		Segments: segments,
		// Ideographic subtitles: a "word" is a character.
		WordCount: utf8.RuneCountInString(fullText),
		FetchedAt: f.now().UTC().Format(time.RFC3339),
	}, nil
}
