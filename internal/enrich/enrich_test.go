package enrich

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/geonews/geonews/internal/article"
	"github.com/geonews/geonews/internal/gazetteer"
)

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(text string) ([]string, error) {
	args := m.Called(text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// aliasNormalizer collapses mentions through a fixed table, pass-through on
// a miss.
type aliasNormalizer struct {
	aliases map[string]string
}

func (n *aliasNormalizer) Normalize(raw string) string {
	if c, ok := n.aliases[raw]; ok {
		return c
	}
	return raw
}

// fakeResolver resolves from a fixed coordinate table and counts lookups
// per name.
type fakeResolver struct {
	mu     sync.Mutex
	coords map[string]gazetteer.Coordinates
	calls  map[string]int
}

func newFakeResolver(coords map[string]gazetteer.Coordinates) *fakeResolver {
	return &fakeResolver{
		coords: coords,
		calls:  map[string]int{},
	}
}

func (r *fakeResolver) Resolve(_ context.Context, name string) (gazetteer.Coordinates, bool) {
	r.mu.Lock()
	r.calls[name]++
	r.mu.Unlock()

	c, ok := r.coords[name]
	return c, ok
}

func (r *fakeResolver) totalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, n := range r.calls {
		total += n
	}
	return total
}

type EnrichSuite struct {
	suite.Suite

	extractor *mockExtractor
	resolver  *fakeResolver

	logBuf *bytes.Buffer
	svc    *Service
}

func TestEnrichSuite(t *testing.T) {
	suite.Run(t, new(EnrichSuite))
}

func (s *EnrichSuite) SetupTest() {
	s.extractor = &mockExtractor{}
	s.resolver = newFakeResolver(map[string]gazetteer.Coordinates{
		"United States": {Lat: 38.8951, Lng: -77.0364},
		"Europe":        {Lat: 50.8503, Lng: 4.3517},
	})

	normalizer := &aliasNormalizer{aliases: map[string]string{
		"U.S.":     "United States",
		"USA":      "United States",
		"European": "Europe",
	}}

	s.logBuf = &bytes.Buffer{}
	s.svc = NewService(s.extractor, normalizer, s.resolver, log.New(s.logBuf, "", 0))
}

func (s *EnrichSuite) TestSynonymsCollapseToOneGeocodeLookup() {
	s.extractor.
		On("Extract", "U.S. strikes deal USA and United States agree").
		Return([]string{"U.S.", "USA", "United States"}, nil).
		Once()

	enriched, err := s.svc.Enrich(context.Background(), []article.Article{
		{URL: "http://e/1", Title: "U.S. strikes deal", Description: "USA and United States agree"},
	})

	s.Require().NoError(err)
	s.Require().Len(enriched, 1)
	s.Require().Len(enriched[0].Locations, 1)
	s.Equal("United States", enriched[0].Locations[0].Name)
	s.Equal(38.8951, enriched[0].Locations[0].Lat)

	s.Equal(1, s.resolver.calls["United States"], "three raw mentions, one canonical lookup")
	s.Equal(1, s.resolver.totalCalls())
	s.extractor.AssertExpectations(s.T())
}

func (s *EnrichSuite) TestEmptyArticleSkippedBeforeExtraction() {
	enriched, err := s.svc.Enrich(context.Background(), []article.Article{
		{URL: "http://e/1", Title: "", Description: "   "},
	})

	s.Require().NoError(err)
	s.Empty(enriched)
	s.Zero(s.resolver.totalCalls())
	s.extractor.AssertNotCalled(s.T(), "Extract", mock.Anything)
}

func (s *EnrichSuite) TestArticleWithOnlyUnresolvableMentionIsDropped() {
	s.extractor.
		On("Extract", mock.Anything).
		Return([]string{"Atlantis"}, nil).
		Once()

	enriched, err := s.svc.Enrich(context.Background(), []article.Article{
		{URL: "http://e/1", Title: "Atlantis rises"},
	})

	s.Require().NoError(err)
	s.Empty(enriched)
	s.Equal(1, s.resolver.calls["Atlantis"])
	s.Contains(s.logBuf.String(), "no resolvable locations")
}

func (s *EnrichSuite) TestPartialGeocodeFailureKeepsArticle() {
	s.extractor.
		On("Extract", mock.Anything).
		Return([]string{"European", "Atlantis"}, nil).
		Once()

	enriched, err := s.svc.Enrich(context.Background(), []article.Article{
		{URL: "http://e/1", Title: "European summit in Atlantis"},
	})

	s.Require().NoError(err)
	s.Require().Len(enriched, 1)
	s.Require().Len(enriched[0].Locations, 1)
	s.Equal("Europe", enriched[0].Locations[0].Name)
}

func (s *EnrichSuite) TestExtractionFailureAbortsBatch() {
	s.extractor.
		On("Extract", mock.Anything).
		Return(nil, errors.New("model unavailable")).
		Once()

	_, err := s.svc.Enrich(context.Background(), []article.Article{
		{URL: "http://e/1", Title: "anything"},
	})

	s.Require().Error(err)
	s.Contains(err.Error(), "model unavailable")
}

func (s *EnrichSuite) TestEnrichIsIdempotent() {
	batch := []article.Article{
		{URL: "http://e/1", Title: "U.S. and European news"},
		{URL: "http://e/2", Title: "Atlantis only"},
	}

	s.extractor.
		On("Extract", "U.S. and European news").
		Return([]string{"U.S.", "European"}, nil)
	s.extractor.
		On("Extract", "Atlantis only").
		Return([]string{"Atlantis"}, nil)

	first, err := s.svc.Enrich(context.Background(), batch)
	s.Require().NoError(err)
	second, err := s.svc.Enrich(context.Background(), batch)
	s.Require().NoError(err)

	s.Require().Len(first, 1)
	s.Require().Len(second, 1)
	s.Equal(first[0].URL, second[0].URL)
	s.Equal(locationNames(first[0]), locationNames(second[0]))
}

func (s *EnrichSuite) TestMultipleLocationsAttachedSorted() {
	s.extractor.
		On("Extract", mock.Anything).
		Return([]string{"European", "U.S."}, nil).
		Once()

	enriched, err := s.svc.Enrich(context.Background(), []article.Article{
		{URL: "http://e/1", Title: "U.S. European relations"},
	})

	s.Require().NoError(err)
	s.Require().Len(enriched, 1)
	s.Equal([]string{"Europe", "United States"}, locationNames(enriched[0]))
}

func locationNames(a article.Article) []string {
	names := make([]string, 0, len(a.Locations))
	for _, l := range a.Locations {
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return names
}
