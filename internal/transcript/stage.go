// Package transcript fetches caption transcripts for video items and
// records them as per-item artifacts.
package transcript

import (
	"context"
	"errors"
	"strings"

	"github.com/KinGao294/oasis/internal/logger"
	"github.com/KinGao294/oasis/internal/models"
	"github.com/KinGao294/oasis/internal/store"
)

// ErrUnavailable means the platform has no captions for the content: a
// well-defined outcome, distinct from transport failures, so call sites can
// decide to skip rather than retry.
var ErrUnavailable = errors.New("transcript unavailable")

// Fetcher is the per-platform transcript capability.
type Fetcher interface {
	Fetch(ctx context.Context, nativeID string) (*models.Transcript, error)
}

// Stats is the run summary surfaced to the operator.
type Stats struct {
	Fetched int
	Skipped int
	Failed  int
}

// Stage walks transcript-eligible feed items and enriches them. Safe to
// re-run: an existing artifact is never re-fetched, but its derived fields
// are re-applied to the feed document on every run to heal partial prior
// runs.
type Stage struct {
	store    *store.Store
	fetchers map[models.Platform]Fetcher
}

func NewStage(st *store.Store, youtube, bilibili Fetcher) *Stage {
	return &Stage{
		store: st,
		fetchers: map[models.Platform]Fetcher{
			models.PlatformYouTube:  youtube,
			models.PlatformBilibili: bilibili,
		},
	}
}

// Run processes every transcript-eligible item once. Per-item failures are
// counted and never abort the batch; the only no-op condition is a missing
// feed document.
func (s *Stage) Run(ctx context.Context) (Stats, error) {
	log := logger.Get()
	var stats Stats

	doc, err := s.store.Load()
	if err != nil {
		if errors.Is(err, store.ErrNotInitialized) {
			log.Warn().Msg("no feed document found; run `oasis fetch` first")
			return stats, nil
		}
		return stats, err
	}

	for i := range doc.Items {
		item := &doc.Items[i]
		if !item.Platform.SupportsTranscript() {
			continue
		}

		if s.store.HasTranscript(item.ID) {
			// Terminal state; just re-sync the feed's derived fields
			// in case a prior run saved the artifact but not the feed.
			if err := s.applyArtifact(doc, item.ID); err != nil {
				log.Error().Str("id", item.ID).Err(err).Msg("failed to re-apply transcript fields")
				stats.Failed++
				continue
			}
			stats.Skipped++
			continue
		}

		transcript, err := s.fetchers[item.Platform].Fetch(ctx, nativeID(item.ID))
		if err != nil {
			stats.Failed++
			if errors.Is(err, ErrUnavailable) {
				log.Debug().Str("id", item.ID).Msg("no transcript available")
			} else {
				log.Warn().Str("id", item.ID).Err(err).Msg("transcript fetch failed")
			}
			continue
		}

		if err := s.store.SaveTranscript(ctx, item.ID, transcript); err != nil {
			stats.Failed++
			log.Error().Str("id", item.ID).Err(err).Msg("failed to save transcript")
			continue
		}

		s.store.SetDerived(doc, item.ID, store.Derived{
			HasTranscript:     boolPtr(true),
			TranscriptPreview: Preview(transcript.FullText),
		})
		// Checkpoint after every success so an interrupted run resumes
		// from here.
		if err := s.store.Save(ctx, doc); err != nil {
			return stats, err
		}

		stats.Fetched++
		log.Info().
			Str("id", item.ID).
			Int("word_count", transcript.WordCount).
			Str("language", transcript.Language).
			Msg("transcript fetched")
	}

	if err := s.store.Save(ctx, doc); err != nil {
		return stats, err
	}

	log.Info().
		Int("fetched", stats.Fetched).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("transcript stage complete")
	return stats, nil
}

func (s *Stage) applyArtifact(doc *models.FeedDocument, id string) error {
	transcript, err := s.store.LoadTranscript(id)
	if err != nil {
		return err
	}
	s.store.SetDerived(doc, id, store.Derived{
		HasTranscript:     boolPtr(true),
		TranscriptPreview: Preview(transcript.FullText),
	})
	return nil
}

// Preview returns the first 200 characters of the text, with an ellipsis
// marker when truncated.
func Preview(fullText string) *string {
	runes := []rune(fullText)
	if len(runes) > 200 {
		p := string(runes[:200]) + "..."
		return &p
	}
	return &fullText
}

// nativeID strips the platform prefix from a feed item id.
func nativeID(id string) string {
	if rest, ok := strings.CutPrefix(id, "yt_"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(id, "bl_"); ok {
		return rest
	}
	return id
}

func boolPtr(b bool) *bool {
	return &b
}
