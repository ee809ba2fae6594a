// Package publish mirrors pipeline output into the published directory tree
// consumed by the dashboard, and optionally into an R2/S3 bucket.
package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KinGao294/oasis/internal/logger"
)

// Publisher copies files that already landed in the primary data directory.
// Mirror is only ever called after the primary write succeeded, so a failed
// copy can never leave the primary state corrupt.
type Publisher struct {
	dataDir    string
	publishDir string // empty disables the local mirror
	uploader   *S3Uploader
}

func New(dataDir, publishDir string, uploader *S3Uploader) *Publisher {
	return &Publisher{
		dataDir:    dataDir,
		publishDir: publishDir,
		uploader:   uploader,
	}
}

// Mirror duplicates one file from the data directory into every configured
// sink. Mirror failures are logged, never fatal: the primary copy is the
// source of truth and the next run re-mirrors.
func (p *Publisher) Mirror(ctx context.Context, path string) {
	log := logger.Get()

	rel, err := filepath.Rel(p.dataDir, path)
	if err != nil {
		log.Error().Str("path", path).Err(err).Msg("mirror: path outside data dir")
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error().Str("path", path).Err(err).Msg("mirror: read failed")
		return
	}

	if p.publishDir != "" {
		if err := p.copyTo(filepath.Join(p.publishDir, rel), data); err != nil {
			log.Error().Str("path", rel).Err(err).Msg("mirror: local copy failed")
		}
	}

	if p.uploader != nil {
		if err := p.uploader.Upload(ctx, filepath.ToSlash(rel), data); err != nil {
			log.Error().Str("key", rel).Err(err).Msg("mirror: remote upload failed")
		}
	}
}

func (p *Publisher) copyTo(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create mirror directory: %w", err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("failed to write mirror file: %w", err)
	}
	return nil
}
