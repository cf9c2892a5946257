// Package seed loads a YAML description of worlds and their campaign content
// and creates it through the repositories.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"loremaster/backend/internal/models"
	"loremaster/backend/internal/repository"
	"loremaster/backend/pkg/logger"

	apperrors "loremaster/backend/pkg/errors"
)

// File is the root of a seed document
type File struct {
	Worlds []World `yaml:"worlds"`
}

type World struct {
	Name          string     `yaml:"name"`
	Description   string     `yaml:"description"`
	SystemVersion string     `yaml:"system_version"`
	Campaigns     []Campaign `yaml:"campaigns"`
}

type Campaign struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	IsActive    bool        `yaml:"is_active"`
	Sessions    []Session   `yaml:"sessions"`
	Locations   []Location  `yaml:"locations"`
	Characters  []Character `yaml:"characters"`
}

type Session struct {
	Name          string     `yaml:"name"`
	SessionNumber int64      `yaml:"session_number"`
	SessionDate   *time.Time `yaml:"session_date"`
	Summary       string     `yaml:"summary"`
}

// Location names its parent by name. The parent must be declared earlier in
// the same campaign.
type Location struct {
	Name         string `yaml:"name"`
	Parent       string `yaml:"parent"`
	LocationType string `yaml:"location_type"`
	Description  string `yaml:"description"`
}

type Character struct {
	Name              string `yaml:"name"`
	CharacterType     string `yaml:"character_type"`
	IsPlayerCharacter bool   `yaml:"is_player_character"`
	Race              string `yaml:"race"`
	CharacterClass    string `yaml:"character_class"`
	Level             int64  `yaml:"level"`
	Description       string `yaml:"description"`
}

// Summary counts what Apply created
type Summary struct {
	Worlds     int
	Campaigns  int
	Sessions   int
	Locations  int
	Characters int
}

// Load reads and validates a seed file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a seed document, rejecting unknown fields
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks names and location parent references
func (f *File) Validate() error {
	for wi, w := range f.Worlds {
		if w.Name == "" {
			return apperrors.NewValidation(fmt.Sprintf("worlds[%d].name", wi), "is required")
		}
		for ci, c := range w.Campaigns {
			path := fmt.Sprintf("worlds[%d].campaigns[%d]", wi, ci)
			if c.Name == "" {
				return apperrors.NewValidation(path+".name", "is required")
			}
			declared := map[string]bool{}
			for li, l := range c.Locations {
				field := fmt.Sprintf("%s.locations[%d]", path, li)
				if l.Name == "" {
					return apperrors.NewValidation(field+".name", "is required")
				}
				if declared[l.Name] {
					return apperrors.NewValidation(field+".name", "duplicate location "+l.Name)
				}
				if l.Parent != "" && !declared[l.Parent] {
					return apperrors.NewValidation(field+".parent", "unknown or later location "+l.Parent)
				}
				declared[l.Name] = true
			}
			for si, s := range c.Sessions {
				if s.Name == "" {
					return apperrors.NewValidation(fmt.Sprintf("%s.sessions[%d].name", path, si), "is required")
				}
			}
			for chi, ch := range c.Characters {
				if ch.Name == "" {
					return apperrors.NewValidation(fmt.Sprintf("%s.characters[%d].name", path, chi), "is required")
				}
			}
		}
	}
	return nil
}

// Apply creates every entity in f, parents before children. It stops at the
// first failure; entities created before it are kept.
func Apply(ctx context.Context, repos *repository.Repositories, f *File, actorID string) (Summary, error) {
	log := logger.Named("seed")
	var sum Summary

	for _, w := range f.Worlds {
		world, err := repos.Worlds.Create(ctx, models.CreateWorldParams{
			Name:          w.Name,
			Description:   w.Description,
			SystemVersion: w.SystemVersion,
		}, actorID)
		if err != nil {
			return sum, fmt.Errorf("world %q: %w", w.Name, err)
		}
		sum.Worlds++

		for _, c := range w.Campaigns {
			campaign, err := repos.Campaigns.Create(ctx, models.CreateCampaignParams{
				WorldID:     world.ID,
				Name:        c.Name,
				Description: c.Description,
				IsActive:    c.IsActive,
			}, actorID)
			if err != nil {
				return sum, fmt.Errorf("campaign %q: %w", c.Name, err)
			}
			sum.Campaigns++

			if err := applyCampaign(ctx, repos, campaign.ID, c, actorID, &sum); err != nil {
				return sum, fmt.Errorf("campaign %q: %w", c.Name, err)
			}
			log.Info("Campaign seeded",
				zap.String("world", w.Name),
				zap.String("campaign", c.Name),
				zap.String("campaign_id", campaign.ID),
			)
		}
	}
	return sum, nil
}

func applyCampaign(ctx context.Context, repos *repository.Repositories, campaignID string, c Campaign, actorID string, sum *Summary) error {
	for _, s := range c.Sessions {
		if _, err := repos.Sessions.Create(ctx, models.CreateSessionParams{
			CampaignID:    campaignID,
			Name:          s.Name,
			SessionNumber: s.SessionNumber,
			SessionDate:   s.SessionDate,
			Summary:       s.Summary,
		}, actorID); err != nil {
			return fmt.Errorf("session %q: %w", s.Name, err)
		}
		sum.Sessions++
	}

	locationIDs := make(map[string]string, len(c.Locations))
	for _, l := range c.Locations {
		params := models.CreateLocationParams{
			CampaignID:   campaignID,
			Name:         l.Name,
			Description:  l.Description,
			LocationType: l.LocationType,
		}
		if l.Parent != "" {
			parentID := locationIDs[l.Parent]
			params.ParentLocationID = &parentID
		}
		location, err := repos.Locations.Create(ctx, params, actorID)
		if err != nil {
			return fmt.Errorf("location %q: %w", l.Name, err)
		}
		locationIDs[l.Name] = location.ID
		sum.Locations++
	}

	for _, ch := range c.Characters {
		if _, err := repos.Characters.Create(ctx, models.CreateCharacterParams{
			CampaignID:        campaignID,
			Name:              ch.Name,
			CharacterType:     ch.CharacterType,
			IsPlayerCharacter: ch.IsPlayerCharacter,
			Race:              ch.Race,
			CharacterClass:    ch.CharacterClass,
			Level:             ch.Level,
			Description:       ch.Description,
		}, actorID); err != nil {
			return fmt.Errorf("character %q: %w", ch.Name, err)
		}
		sum.Characters++
	}
	return nil
}
