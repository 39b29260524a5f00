// Package normalize collapses raw place mentions onto canonical gazetteer
// names so synonyms within one article cost a single geocode lookup.
package normalize

import (
	"log"

	"github.com/geonews/geonews/internal/gazetteer"
)

// DefaultThreshold is the minimum fuzzy similarity (0-100) for a best match
// to count as the same place.
const DefaultThreshold = 80

// Scorer finds the single best fuzzy match for a query among choices and
// scores it on a 0-100 scale.
type Scorer interface {
	BestMatch(query string, choices []string) (match string, score int, err error)
}

type Normalizer struct {
	gaz       *gazetteer.Gazetteer
	scorer    Scorer
	threshold int
	logger    *log.Logger
}

func NewNormalizer(gaz *gazetteer.Gazetteer, scorer Scorer, threshold int, logger *log.Logger) *Normalizer {
	if logger == nil {
		logger = log.Default()
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Normalizer{
		gaz:       gaz,
		scorer:    scorer,
		threshold: threshold,
		logger:    logger,
	}
}

// Normalize maps a raw mention to its canonical name: exact alias lookup
// first, then the best fuzzy match at or above the threshold, else the
// input unchanged. A miss is not an error, only a hint that the gazetteer
// could use a new entry.
func (n *Normalizer) Normalize(raw string) string {
	if canonical, ok := n.gaz.Canonical(raw); ok {
		return canonical
	}

	keys := n.gaz.AliasKeys()
	if len(keys) > 0 {
		match, score, err := n.scorer.BestMatch(raw, keys)
		if err != nil {
			n.logger.Printf("normalize: fuzzy match failed for %q: %v", raw, err)
		} else if score >= n.threshold {
			if canonical, ok := n.gaz.Canonical(match); ok {
				return canonical
			}
		}
	}

	n.logger.Printf("normalize: unmapped place name %q, consider adding it to the gazetteer", raw)
	return raw
}
