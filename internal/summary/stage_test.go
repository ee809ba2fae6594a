package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/KinGao294/oasis/internal/models"
	"github.com/KinGao294/oasis/internal/store"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

const validResponse = `这是分析结果：
{
  "summary": "整体摘要。",
  "key_points": [
    {"timestamp": 30, "title": "开场", "content": "要点内容。"}
  ],
  "tags": ["科技"]
}
以上。`

func strPtr(s string) *string { return &s }

func seedStore(t *testing.T, items []models.Item) *store.Store {
	t.Helper()
	st, err := store.New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	doc, err := st.UpsertAll(items)
	if err != nil {
		t.Fatalf("UpsertAll: %v", err)
	}
	if err := st.Save(context.Background(), doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return st
}

func videoItem(id, title string) models.Item {
	return models.Item{
		ID:        id,
		Source:    "Test",
		SourceID:  "src1",
		Platform:  models.PlatformYouTube,
		Title:     strPtr(title),
		URL:       "https://example.com/" + id,
		Published: "2024-05-01T10:00:00Z",
	}
}

func saveTranscript(t *testing.T, st *store.Store, id, text string) {
	t.Helper()
	err := st.SaveTranscript(context.Background(), id, &models.Transcript{
		Source:    models.TranscriptSourceYouTube,
		Language:  "en",
		FullText:  text,
		WordCount: len(strings.Fields(text)),
		Segments:  []models.TranscriptSegment{{Start: 0, End: 5, Text: text}},
	})
	if err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}
}

func TestRunGeneratesSummaries(t *testing.T) {
	st := seedStore(t, []models.Item{videoItem("yt_abc", "A video")})
	saveTranscript(t, st, "yt_abc", "hello world this is the transcript")

	gen := &fakeGenerator{response: validResponse}
	stats, err := NewStage(st, gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Generated != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want 1 generated", stats)
	}

	sum, err := st.LoadSummary("yt_abc")
	if err != nil {
		t.Fatalf("LoadSummary: %v", err)
	}
	if sum.VideoID != "yt_abc" || sum.Title != "A video" {
		t.Errorf("summary identity = %q / %q", sum.VideoID, sum.Title)
	}
	if sum.Summary != "整体摘要。" {
		t.Errorf("summary text = %q", sum.Summary)
	}
	if len(sum.KeyPoints) != 1 || sum.KeyPoints[0].Timestamp != 30 {
		t.Errorf("key points = %+v", sum.KeyPoints)
	}
	if sum.GeneratedAt == "" {
		t.Error("generatedAt not set")
	}

	doc, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !doc.FindItem("yt_abc").HasSummary {
		t.Error("hasSummary not set on feed item")
	}
}

func TestRunSkipsItemsWithoutTranscript(t *testing.T) {
	st := seedStore(t, []models.Item{videoItem("yt_abc", "A video")})

	gen := &fakeGenerator{response: validResponse}
	stats, err := NewStage(st, gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats != (Stats{}) {
		t.Errorf("stats = %+v, want zero", stats)
	}
	if len(gen.prompts) != 0 {
		t.Error("generator called for an item without a transcript")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	st := seedStore(t, []models.Item{videoItem("yt_abc", "A video")})
	saveTranscript(t, st, "yt_abc", "hello world")

	gen := &fakeGenerator{response: validResponse}
	stage := NewStage(st, gen)

	if _, err := stage.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	stats, err := stage.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if stats.Generated != 0 || stats.Skipped != 1 {
		t.Errorf("second run stats = %+v, want 1 skipped", stats)
	}
	if len(gen.prompts) != 1 {
		t.Errorf("generator called %d times across both runs, want 1", len(gen.prompts))
	}
}

func TestRunResyncsFlagFromArtifact(t *testing.T) {
	// Artifact exists but the feed flag was lost (e.g. the feed document
	// was rebuilt). The run must heal the flag without calling the model.
	st := seedStore(t, []models.Item{videoItem("yt_abc", "A video")})
	err := st.SaveSummary(context.Background(), "yt_abc", &models.Summary{VideoID: "yt_abc", Title: "A video"})
	if err != nil {
		t.Fatalf("SaveSummary: %v", err)
	}

	gen := &fakeGenerator{}
	stats, err := NewStage(st, gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 1 skipped", stats)
	}
	if len(gen.prompts) != 0 {
		t.Error("generator called for existing artifact")
	}

	doc, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !doc.FindItem("yt_abc").HasSummary {
		t.Error("hasSummary not healed from existing artifact")
	}
}

func TestRunCountsGeneratorFailures(t *testing.T) {
	st := seedStore(t, []models.Item{videoItem("yt_abc", "A video")})
	saveTranscript(t, st, "yt_abc", "hello world")

	gen := &fakeGenerator{err: errors.New("rate limited")}
	stats, err := NewStage(st, gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Failed != 1 || stats.Generated != 0 {
		t.Errorf("stats = %+v, want 1 failed", stats)
	}
	if st.HasSummary("yt_abc") {
		t.Error("artifact written despite generator failure")
	}
}

func TestRunRejectsMalformedResponse(t *testing.T) {
	st := seedStore(t, []models.Item{videoItem("yt_abc", "A video")})
	saveTranscript(t, st, "yt_abc", "hello world")

	tests := []struct {
		name     string
		response string
	}{
		{"no JSON at all", "抱歉，我无法处理这个请求。"},
		{"unbalanced braces", `{"summary": "x"`},
		{"invalid JSON", `{"summary": x}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{response: tt.response}
			stats, err := NewStage(st, gen).Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if stats.Failed != 1 {
				t.Errorf("stats = %+v, want 1 failed", stats)
			}
		})
	}
}

func TestRunFallsBackToIDForTitle(t *testing.T) {
	item := videoItem("yt_abc", "")
	item.Title = nil
	st := seedStore(t, []models.Item{item})
	saveTranscript(t, st, "yt_abc", "hello world")

	gen := &fakeGenerator{response: validResponse}
	if _, err := NewStage(st, gen).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	sum, err := st.LoadSummary("yt_abc")
	if err != nil {
		t.Fatalf("LoadSummary: %v", err)
	}
	if sum.Title != "yt_abc" {
		t.Errorf("title = %q, want the item id fallback", sum.Title)
	}
}
