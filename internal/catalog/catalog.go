// Package catalog holds the static region → sub-region hierarchy used by the
// publish form and the directory filters. It is loaded once at startup and
// never mutated afterwards.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Region is one top-level entry of the catalog (a Mexican state in the
// shipped data set).
type Region struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"nombre" yaml:"nombre"`
	SubRegions []string `json:"municipios" yaml:"municipios"`
}

// Catalog is a read-only lookup table over an ordered list of regions.
type Catalog struct {
	regions []Region
	byID    map[string]int
}

// New builds a Catalog from regions, keeping their order.
func New(regions []Region) *Catalog {
	c := &Catalog{
		regions: regions,
		byID:    make(map[string]int, len(regions)),
	}
	for i, r := range regions {
		if _, dup := c.byID[r.ID]; !dup {
			c.byID[r.ID] = i
		}
	}
	return c
}

// Load reads the catalog file at path. Any read or parse failure is logged and
// yields an empty catalog: selectors then simply offer no options.
func Load(path string, logger *slog.Logger) *Catalog {
	regions, err := readRegions(path)
	if err != nil {
		logger.Error("could not load region catalog", "path", path, "error", err)
		return New(nil)
	}
	logger.Info("region catalog loaded", "path", path, "regions", len(regions))
	return New(regions)
}

func readRegions(path string) ([]Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var regions []Region
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &regions)
	default:
		err = json.Unmarshal(data, &regions)
	}
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return regions, nil
}

// Regions returns the regions in file order.
func (c *Catalog) Regions() []Region {
	out := make([]Region, len(c.regions))
	copy(out, c.regions)
	return out
}

// RegionName returns the display name for id, or "" when unknown.
func (c *Catalog) RegionName(id string) string {
	i, ok := c.byID[id]
	if !ok {
		return ""
	}
	return c.regions[i].Name
}

// SubRegionsOf returns the sub-regions of id, empty when unknown.
func (c *Catalog) SubRegionsOf(id string) []string {
	i, ok := c.byID[id]
	if !ok {
		return []string{}
	}
	subs := c.regions[i].SubRegions
	out := make([]string, len(subs))
	copy(out, subs)
	return out
}

// Len reports how many regions were loaded.
func (c *Catalog) Len() int { return len(c.regions) }
