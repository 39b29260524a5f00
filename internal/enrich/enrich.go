// Package enrich is the pipeline entry point: it extracts place mentions
// from article text, collapses them onto canonical names, resolves each
// canonical name to coordinates concurrently, and keeps only articles that
// ended up with at least one resolved location.
package enrich

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/geonews/geonews/internal/article"
	"github.com/geonews/geonews/internal/geocode"
)

// Extractor yields the distinct place-like mentions in a text. An error is
// fatal for the whole batch: extraction has no fallback.
type Extractor interface {
	Extract(text string) ([]string, error)
}

// Normalizer maps a raw mention onto its canonical name.
type Normalizer interface {
	Normalize(raw string) string
}

type Service struct {
	extractor  Extractor
	normalizer Normalizer
	resolver   geocode.Resolver
	logger     *log.Logger
}

func NewService(extractor Extractor, normalizer Normalizer, resolver geocode.Resolver, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		extractor:  extractor,
		normalizer: normalizer,
		resolver:   resolver,
		logger:     logger,
	}
}

// Enrich processes articles sequentially; within one article the geocode
// lookups for its canonical name set fan out concurrently. Articles whose
// title and description are empty are skipped before extraction, and
// articles that resolve no location at all are dropped from the output.
func (s *Service) Enrich(ctx context.Context, articles []article.Article) ([]article.Article, error) {
	enriched := make([]article.Article, 0, len(articles))

	for i := range articles {
		a := articles[i]

		combined := strings.TrimSpace(a.Title + " " + a.Description)
		if combined == "" {
			continue
		}

		mentions, err := s.extractor.Extract(combined)
		if err != nil {
			return nil, err
		}

		canonical := make(map[string]struct{}, len(mentions))
		for _, m := range mentions {
			canonical[s.normalizer.Normalize(m)] = struct{}{}
		}
		if len(canonical) == 0 {
			continue
		}

		locations := s.resolveAll(ctx, canonical)
		if len(locations) == 0 {
			s.logger.Printf("enrich: no resolvable locations for %s, dropping", a.URL)
			continue
		}

		a.Locations = append(a.Locations, locations...)
		enriched = append(enriched, a)
	}

	return enriched, nil
}

// resolveAll fans out one geocode lookup per canonical name and gathers the
// hits. Partial failures only omit their own location.
func (s *Service) resolveAll(ctx context.Context, canonical map[string]struct{}) []article.LocationMention {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	locations := make([]article.LocationMention, 0, len(canonical))

	for name := range canonical {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			coords, ok := s.resolver.Resolve(ctx, name)
			if !ok {
				return
			}

			mu.Lock()
			locations = append(locations, article.LocationMention{
				Name: name,
				Lat:  coords.Lat,
				Lng:  coords.Lng,
			})
			mu.Unlock()
		}(name)
	}

	wg.Wait()

	// Attachment order carries no meaning; sort for stable persistence.
	sort.Slice(locations, func(i, j int) bool {
		return locations[i].Name < locations[j].Name
	})

	return locations
}
