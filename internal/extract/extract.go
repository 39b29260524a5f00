// Package extract pulls place-like mentions out of article text. A
// statistical NER model does the heavy lifting; a small set of fixed
// high-priority patterns recognises abbreviations the model misses.
package extract

import (
	"fmt"
	"regexp"
)

// Entity is one labelled span reported by a tagging backend.
type Entity struct {
	Text  string
	Label string
}

// Tagger is the narrow interface over the underlying text-understanding
// model, so the backend can be swapped without touching the pipeline.
type Tagger interface {
	Entities(text string) ([]Entity, error)
}

// Pattern is a fixed rule that recognises a span before the model runs.
type Pattern struct {
	Label string
	Re    *regexp.Regexp
}

// DefaultPatterns covers abbreviations and metonyms the statistical model
// handles unreliably. Pattern hits always count as mentions, regardless of
// what the model thinks of the same span.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Label: "GPE", Re: regexp.MustCompile(`U\.S\.?`)},
		{Label: "GPE", Re: regexp.MustCompile(`\bUSA\b`)},
		{Label: "GPE", Re: regexp.MustCompile(`\bUnited States\b`)},
		{Label: "GPE", Re: regexp.MustCompile(`\bDonald Trump\b`)},
		{Label: "NORP", Re: regexp.MustCompile(`\bEuropean\b`)},
	}
}

// Extractor finds the set of distinct geo-political mentions in a text.
type Extractor struct {
	tagger   Tagger
	patterns []Pattern
	labels   map[string]struct{}
}

// NewExtractor builds an extractor that keeps model entities carrying one of
// the given labels (typically GPE and NORP) plus every pattern hit.
func NewExtractor(tagger Tagger, patterns []Pattern, labels []string) *Extractor {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return &Extractor{
		tagger:   tagger,
		patterns: patterns,
		labels:   set,
	}
}

// Extract returns the distinct place-like mentions in text, pattern hits
// first. The caller must not pass empty input; a model failure is returned
// as-is because extraction has no fallback.
func (e *Extractor) Extract(text string) ([]string, error) {
	seen := make(map[string]struct{})
	mentions := []string{}

	for _, p := range e.patterns {
		for _, m := range p.Re.FindAllString(text, -1) {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			mentions = append(mentions, m)
		}
	}

	ents, err := e.tagger.Entities(text)
	if err != nil {
		return nil, fmt.Errorf("entity tagging failed: %w", err)
	}

	for _, ent := range ents {
		if _, ok := e.labels[ent.Label]; !ok {
			continue
		}
		if _, ok := seen[ent.Text]; ok {
			continue
		}
		seen[ent.Text] = struct{}{}
		mentions = append(mentions, ent.Text)
	}

	return mentions, nil
}
