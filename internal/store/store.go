// Package store owns the persisted feed document and the per-item artifact
// files, all plain JSON under one data directory.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/KinGao294/oasis/internal/logger"
	"github.com/KinGao294/oasis/internal/models"
)

// ErrNotInitialized is returned by Load when no feed document exists yet.
// Callers that can start empty treat it as a normal condition; enrichment
// stages treat it as "run fetch first".
var ErrNotInitialized = errors.New("feed document not initialized")

// Mirrorer duplicates a freshly written file into the published tree.
type Mirrorer interface {
	Mirror(ctx context.Context, path string)
}

// Store reads and writes the feed document and artifacts. There is exactly
// one writer process per invocation; concurrent pipeline runs against the
// same data directory must be serialized externally.
type Store struct {
	feedPath       string
	transcriptsDir string
	summariesDir   string
	mirror         Mirrorer
	now            func() time.Time
}

// New creates the data directory layout if needed. mirror may be nil.
func New(dataDir string, mirror Mirrorer) (*Store, error) {
	transcriptsDir := filepath.Join(dataDir, "transcripts")
	summariesDir := filepath.Join(dataDir, "summaries")

	for _, dir := range []string{dataDir, transcriptsDir, summariesDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return &Store{
		feedPath:       filepath.Join(dataDir, "feeds.json"),
		transcriptsDir: transcriptsDir,
		summariesDir:   summariesDir,
		mirror:         mirror,
		now:            time.Now,
	}, nil
}

// Load reads the persisted feed document.
func (s *Store) Load() (*models.FeedDocument, error) {
	data, err := os.ReadFile(s.feedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to read feed document: %w", err)
	}

	var doc models.FeedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse feed document: %w", err)
	}
	return &doc, nil
}

// UpsertAll merges a batch of freshly normalized items into the document.
// Matching ids are overwritten by normalizer output but keep the enrichment
// fields the normalizer cannot know about; ids absent from the batch are
// preserved, so one failed platform fetch never drops previously seen
// content.
func (s *Store) UpsertAll(items []models.Item) (*models.FeedDocument, error) {
	doc, err := s.Load()
	if err != nil {
		if !errors.Is(err, ErrNotInitialized) {
			return nil, err
		}
		doc = &models.FeedDocument{}
	}

	existing := make(map[string]models.Item, len(doc.Items))
	for _, it := range doc.Items {
		existing[it.ID] = it
	}

	merged := make([]models.Item, 0, len(doc.Items)+len(items))
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true

		if prev, ok := existing[item.ID]; ok {
			carryDerived(&item, prev)
		}
		merged = append(merged, item)
	}

	for _, it := range doc.Items {
		if !seen[it.ID] {
			merged = append(merged, it)
		}
	}

	doc.Items = merged
	return doc, nil
}

// carryDerived keeps enrichment state across a wholesale re-fetch of an
// item. The transcript stage re-derives these from artifacts on its next
// run anyway; carrying them avoids the window where the feed lies.
func carryDerived(item *models.Item, prev models.Item) {
	item.HasSummary = prev.HasSummary
	if item.Platform.SupportsTranscript() {
		item.HasTranscript = prev.HasTranscript
		item.TranscriptPreview = prev.TranscriptPreview
	}
}

// Save recomputes the count, re-sorts newest-first and writes the document
// atomically, then mirrors it.
func (s *Store) Save(ctx context.Context, doc *models.FeedDocument) error {
	// Published is ISO-8601, so a plain string sort is chronological.
	sort.SliceStable(doc.Items, func(i, j int) bool {
		return doc.Items[i].Published > doc.Items[j].Published
	})
	doc.Count = len(doc.Items)
	doc.LastUpdated = s.now().UTC().Format(time.RFC3339)

	if err := s.writeJSON(ctx, s.feedPath, doc); err != nil {
		return fmt.Errorf("failed to save feed document: %w", err)
	}
	return nil
}

// Derived is a patch of enrichment fields applied to one item. Nil fields
// are left untouched.
type Derived struct {
	HasTranscript     *bool
	TranscriptPreview *string
	HasSummary        *bool
}

// SetDerived merges enrichment fields into the item with the given id.
// A missing id is logged and ignored, never fatal.
func (s *Store) SetDerived(doc *models.FeedDocument, id string, d Derived) {
	item := doc.FindItem(id)
	if item == nil {
		logger.Get().Warn().Str("id", id).Msg("derived-field update for unknown item")
		return
	}

	if d.HasTranscript != nil {
		item.HasTranscript = *d.HasTranscript
		item.TranscriptPreview = d.TranscriptPreview
	}
	if d.HasSummary != nil {
		item.HasSummary = *d.HasSummary
	}
}

// writeJSON writes atomically: temp file in the same directory, then rename.
// Readers either see the previous document or the new one, never a partial
// write. Mirroring happens only after the rename.
func (s *Store) writeJSON(ctx context.Context, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	if s.mirror != nil {
		s.mirror.Mirror(ctx, path)
	}
	return nil
}
