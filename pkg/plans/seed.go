package plans

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedPlan is a single plan definition in a seed document
type SeedPlan struct {
	Name        string           `yaml:"name"`
	DisplayName string           `yaml:"display_name"`
	PriceCents  int64            `yaml:"price_cents"`
	Limits      map[string]int64 `yaml:"limits"`
	Features    map[string]bool  `yaml:"features"`
	IsDefault   bool             `yaml:"is_default"`
	// IsActive defaults to true when omitted
	IsActive *bool `yaml:"is_active"`
}

// SeedDocument is a versioned collection of plan definitions, typically
// checked into deployment config and applied at install time.
type SeedDocument struct {
	Version int        `yaml:"version"`
	Plans   []SeedPlan `yaml:"plans"`
}

// ParseSeed parses a YAML seed document
func ParseSeed(data []byte) (*SeedDocument, error) {
	var doc SeedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed document: %w", err)
	}
	if doc.Version != 0 && doc.Version != 1 {
		return nil, fmt.Errorf("unsupported seed document version %d", doc.Version)
	}

	defaults := 0
	for _, entry := range doc.Plans {
		if entry.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		return nil, fmt.Errorf("seed document marks %d plans as default, at most one may be", defaults)
	}

	return &doc, nil
}

// LoadSeed reads and parses a seed file
func LoadSeed(path string) (*SeedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeed(data)
}

// Plan converts the seed entry into a catalog plan definition
func (sp SeedPlan) Plan() *Plan {
	limits := make(map[ResourceKind]int64, len(sp.Limits))
	for kind, v := range sp.Limits {
		limits[ResourceKind(kind)] = v
	}

	active := true
	if sp.IsActive != nil {
		active = *sp.IsActive
	}

	displayName := sp.DisplayName
	if displayName == "" {
		displayName = sp.Name
	}

	return &Plan{
		Name:        sp.Name,
		DisplayName: displayName,
		PriceCents:  sp.PriceCents,
		Limits:      limits,
		Features:    sp.Features,
		IsDefault:   sp.IsDefault,
		IsActive:    active,
	}
}

// ApplySeed upserts every plan in the document in listed order and returns
// the number applied. The first invalid entry aborts the run; earlier
// entries stay applied.
func ApplySeed(ctx context.Context, catalog Catalog, doc *SeedDocument) (int, error) {
	applied := 0
	for _, entry := range doc.Plans {
		if _, err := catalog.UpsertPlan(ctx, entry.Plan()); err != nil {
			return applied, fmt.Errorf("failed to seed plan %q: %w", entry.Name, err)
		}
		applied++
	}
	return applied, nil
}
