package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KinGao294/oasis/internal/models"
)

// Artifacts are one JSON file per item id per kind. Their existence on disk
// is the idempotence gate for the enrichment stages; content is written once
// and never updated.

func (s *Store) transcriptPath(id string) string {
	return filepath.Join(s.transcriptsDir, id+".json")
}

func (s *Store) summaryPath(id string) string {
	return filepath.Join(s.summariesDir, id+".json")
}

// HasTranscript reports whether a transcript artifact exists for the id.
func (s *Store) HasTranscript(id string) bool {
	_, err := os.Stat(s.transcriptPath(id))
	return err == nil
}

// HasSummary reports whether a summary artifact exists for the id.
func (s *Store) HasSummary(id string) bool {
	_, err := os.Stat(s.summaryPath(id))
	return err == nil
}

// SaveTranscript persists a transcript artifact and mirrors it.
func (s *Store) SaveTranscript(ctx context.Context, id string, t *models.Transcript) error {
	if err := s.writeJSON(ctx, s.transcriptPath(id), t); err != nil {
		return fmt.Errorf("failed to save transcript for %s: %w", id, err)
	}
	return nil
}

// LoadTranscript reads a transcript artifact.
func (s *Store) LoadTranscript(id string) (*models.Transcript, error) {
	data, err := os.ReadFile(s.transcriptPath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript for %s: %w", id, err)
	}
	var t models.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse transcript for %s: %w", id, err)
	}
	return &t, nil
}

// SaveSummary persists a summary artifact and mirrors it.
func (s *Store) SaveSummary(ctx context.Context, id string, sum *models.Summary) error {
	if err := s.writeJSON(ctx, s.summaryPath(id), sum); err != nil {
		return fmt.Errorf("failed to save summary for %s: %w", id, err)
	}
	return nil
}

// LoadSummary reads a summary artifact.
func (s *Store) LoadSummary(id string) (*models.Summary, error) {
	data, err := os.ReadFile(s.summaryPath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read summary for %s: %w", id, err)
	}
	var sum models.Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return nil, fmt.Errorf("failed to parse summary for %s: %w", id, err)
	}
	return &sum, nil
}
