package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/KinGao294/oasis/internal/logger"
	"github.com/KinGao294/oasis/internal/models"
	"github.com/KinGao294/oasis/internal/store"
)

// Stats is the run summary surfaced to the operator.
type Stats struct {
	Generated int
	Skipped   int
	Failed    int
}

// Stage generates summary artifacts for items that have a transcript
// artifact and no summary yet. Like the transcript stage, an existing
// artifact re-syncs the feed's derived flag on every run, so a rebuilt
// feed document cannot stay permanently out of step with the artifacts.
type Stage struct {
	store     *store.Store
	generator Generator
}

func NewStage(st *store.Store, generator Generator) *Stage {
	return &Stage{store: st, generator: generator}
}

// payload is the JSON object the model is asked to return.
type payload struct {
	Summary   string            `json:"summary"`
	KeyPoints []models.KeyPoint `json:"key_points"`
	Tags      []string          `json:"tags"`
}

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

		if s.store.HasSummary(item.ID) {
			s.store.SetDerived(doc, item.ID, store.Derived{HasSummary: boolPtr(true)})
			stats.Skipped++
			continue
		}

		// Precondition: a transcript artifact must exist. Items without
		// one are never handed to the generator.
		if !s.store.HasTranscript(item.ID) {
			continue
		}

		title := item.ID
		if item.Title != nil && *item.Title != "" {
			title = *item.Title
		}

		summary, err := s.generateOne(ctx, item.ID, title)
		if err != nil {
			stats.Failed++
			log.Warn().Str("id", item.ID).Err(err).Msg("summary generation failed")
			continue
		}

		if err := s.store.SaveSummary(ctx, item.ID, summary); err != nil {
			stats.Failed++
			log.Error().Str("id", item.ID).Err(err).Msg("failed to save summary")
			continue
		}

		s.store.SetDerived(doc, item.ID, store.Derived{HasSummary: boolPtr(true)})
		if err := s.store.Save(ctx, doc); err != nil {
			return stats, err
		}

		stats.Generated++
		log.Info().
			Str("id", item.ID).
			Int("key_points", len(summary.KeyPoints)).
			Msg("summary generated")
	}

	if err := s.store.Save(ctx, doc); err != nil {
		return stats, err
	}

	log.Info().
		Int("generated", stats.Generated).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("summary stage complete")
	return stats, nil
}

func (s *Stage) generateOne(ctx context.Context, id, title string) (*models.Summary, error) {
	transcript, err := s.store.LoadTranscript(id)
	if err != nil {
		return nil, err
	}

	response, err := s.generator.Generate(ctx, buildPrompt(title, transcript))
	if err != nil {
		return nil, err
	}

	raw, ok := extractJSON(response)
	if !ok {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("malformed JSON in model response: %w", err)
	}

	return &models.Summary{
		VideoID:     id,
		Title:       title,
		Summary:     p.Summary,
		KeyPoints:   p.KeyPoints,
		Tags:        p.Tags,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func boolPtr(b bool) *bool {
	return &b
}
