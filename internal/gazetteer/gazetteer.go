// Package gazetteer loads the two place-name mapping tables used by the
// enrichment pipeline: raw alias -> canonical name, and canonical name ->
// hand-curated coordinates. Both are loaded once and read-only afterwards.
package gazetteer

import (
	"encoding/json"
	"log"
	"os"
	"sort"
)

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Gazetteer struct {
	aliases   map[string]string
	overrides map[string]Coordinates
	aliasKeys []string
}

// Load reads both mapping files. A missing or malformed file degrades to an
// empty table so the pipeline still runs; operators grow the files over time.
func Load(aliasPath, overridePath string, logger *log.Logger) *Gazetteer {
	if logger == nil {
		logger = log.Default()
	}

	g := &Gazetteer{
		aliases:   map[string]string{},
		overrides: map[string]Coordinates{},
	}

	if err := readJSON(aliasPath, &g.aliases); err != nil {
		logger.Printf("gazetteer: failed to load alias mapping %s: %v", aliasPath, err)
		g.aliases = map[string]string{}
	}
	if err := readJSON(overridePath, &g.overrides); err != nil {
		logger.Printf("gazetteer: failed to load manual coordinates %s: %v", overridePath, err)
		g.overrides = map[string]Coordinates{}
	}

	g.aliasKeys = make([]string, 0, len(g.aliases))
	for k := range g.aliases {
		g.aliasKeys = append(g.aliasKeys, k)
	}
	sort.Strings(g.aliasKeys)

	return g
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Canonical returns the canonical name mapped from a raw alias, if any.
// Lookups are case-sensitive.
func (g *Gazetteer) Canonical(alias string) (string, bool) {
	c, ok := g.aliases[alias]
	return c, ok
}

// Override returns the hand-curated coordinates for a canonical name, if any.
func (g *Gazetteer) Override(name string) (Coordinates, bool) {
	c, ok := g.overrides[name]
	return c, ok
}

// AliasKeys returns every alias key, for fuzzy matching against the table.
// The returned slice must not be modified.
func (g *Gazetteer) AliasKeys() []string {
	return g.aliasKeys
}
