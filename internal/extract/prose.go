package extract

import (
	prose "github.com/jdkato/prose/v2"
)

// proseTagger backs the Tagger interface with the prose NER model, which
// labels geo-political entities as GPE.
type proseTagger struct{}

func NewProseTagger() Tagger {
	return proseTagger{}
}

func (proseTagger) Entities(text string) ([]Entity, error) {
	doc, err := prose.NewDocument(text,
		prose.WithExtraction(true),
		prose.WithSegmentation(false))
	if err != nil {
		return nil, err
	}

	ents := doc.Entities()
	out := make([]Entity, 0, len(ents))
	for _, e := range ents {
		out = append(out, Entity{Text: e.Text, Label: e.Label})
	}
	return out, nil
}
