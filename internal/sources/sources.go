// Package sources loads and validates the source configuration file.
package sources

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/KinGao294/oasis/internal/models"
)

// Source is one configured content source. Platform-specific identifying
// keys are optional at the YAML level and enforced per platform by Validate,
// so a broken source is rejected at load time instead of deep inside a
// normalizer.
type Source struct {
	ID       string          `yaml:"id" validate:"required"`
	Name     string          `yaml:"name" validate:"required"`
	Platform models.Platform `yaml:"platform" validate:"required,oneof=youtube bilibili x podcast"`
	Domains  []string        `yaml:"domains"`
	Avatar   string          `yaml:"avatar"`

	ChannelID string `yaml:"channel_id"` // youtube
	UID       string `yaml:"uid"`        // bilibili
	Username  string `yaml:"username"`   // x
	FeedURL   string `yaml:"feed_url"`   // podcast
}

type file struct {
	Sources []Source `yaml:"sources"`
}

var validate = validator.New()

// Load reads the sources file. File-level problems (missing file, bad YAML)
// are returned as errors; per-source validation is left to Validate so one
// bad source does not block the rest.
func Load(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sources YAML: %w", err)
	}

	return f.Sources, nil
}

// Validate checks that the source carries the identifying key its platform
// requires. A failure here is a config error: fatal for this source only.
func (s Source) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid source %q: %w", s.Name, err)
	}

	switch s.Platform {
	case models.PlatformYouTube:
		if s.ChannelID == "" {
			return fmt.Errorf("no channel_id for %s", s.Name)
		}
	case models.PlatformBilibili:
		if s.UID == "" {
			return fmt.Errorf("no uid for %s", s.Name)
		}
	case models.PlatformX:
		if s.Username == "" {
			return fmt.Errorf("no username for %s", s.Name)
		}
	case models.PlatformPodcast:
		if s.FeedURL == "" {
			return fmt.Errorf("no feed_url for %s", s.Name)
		}
	}
	return nil
}

// AvatarPtr returns the avatar as a nullable field for the canonical item.
func (s Source) AvatarPtr() *string {
	if s.Avatar == "" {
		return nil
	}
	a := s.Avatar
	return &a
}
