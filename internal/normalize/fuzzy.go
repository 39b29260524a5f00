package normalize

import (
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// fuzzyScorer backs Scorer with the fuzzywuzzy token-ratio family.
type fuzzyScorer struct{}

func NewFuzzyScorer() Scorer {
	return fuzzyScorer{}
}

func (fuzzyScorer) BestMatch(query string, choices []string) (string, int, error) {
	pair, err := fuzzy.ExtractOne(query, choices)
	if err != nil {
		return "", 0, err
	}
	return pair.Match, pair.Score, nil
}
