package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/geonews/geonews/internal/article"
)

// runTimeout is the hard limit for one full ingestion pass.
const runTimeout = 20 * time.Minute

// Enricher attaches resolved locations to articles and filters out those
// with none. An enrichment error aborts the whole batch.
type Enricher interface {
	Enrich(ctx context.Context, articles []article.Article) ([]article.Article, error)
}

// Publisher notifies downstream consumers about newly enriched articles.
type Publisher interface {
	PublishArticleEnriched(ctx context.Context, a *article.Article) error
}

// ticker is an interface so we can swap out time.Ticker in tests.
type ticker interface {
	C() <-chan time.Time
	Stop()
}

type tickerFactory func(d time.Duration) ticker

// timeTicker is the real implementation backed by time.Ticker.
type timeTicker struct {
	*time.Ticker
}

func (t *timeTicker) C() <-chan time.Time {
	return t.Ticker.C
}

func (t *timeTicker) Stop() {
	t.Ticker.Stop()
}

type Service struct {
	repo       article.Repository
	client     NewsClient
	enricher   Enricher
	publisher  Publisher
	categories []string
	countries  []string
	sources    []string
	pageSize   int
	lookback   time.Duration
	maxPolls   int
	logger     *log.Logger
	newTicker  tickerFactory
}

func NewService(
	repo article.Repository,
	client NewsClient,
	enricher Enricher,
	publisher Publisher,
	categories, countries, sources []string,
	pageSize int,
	lookback time.Duration,
	maxPolls int,
	logger *log.Logger,
) *Service {
	if logger == nil {
		logger = log.Default()
	}

	return &Service{
		repo:       repo,
		client:     client,
		enricher:   enricher,
		publisher:  publisher,
		categories: categories,
		countries:  countries,
		sources:    sources,
		pageSize:   pageSize,
		lookback:   lookback,
		maxPolls:   maxPolls,
		logger:     logger,
		newTicker: func(d time.Duration) ticker {
			return &timeTicker{time.NewTicker(d)}
		},
	}
}

// RunOnce performs one full ingestion pass: top headlines for every
// category/country pair, then everything for every configured source. A
// fetch failure skips that one batch and the next poll retries it; an
// enrichment failure aborts the run.
func (s *Service) RunOnce(ctx context.Context) error {
	for _, category := range s.categories {
		for _, country := range s.countries {
			resp, err := s.client.TopHeadlines(ctx, category, country, s.pageSize)
			if err != nil {
				s.logger.Printf("fetching top headlines %s/%s failed: %v", category, country, err)
				continue
			}

			if err := s.processBatch(ctx, resp.Articles, category, country); err != nil {
				return fmt.Errorf("enriching top headlines %s/%s: %w", category, country, err)
			}
		}
	}

	from := time.Now().Add(-s.lookback)
	for _, source := range s.sources {
		resp, err := s.client.Everything(ctx, source, from, s.pageSize)
		if err != nil {
			s.logger.Printf("fetching everything for %s failed: %v", source, err)
			continue
		}

		if err := s.processBatch(ctx, resp.Articles, "", ""); err != nil {
			return fmt.Errorf("enriching everything for %s: %w", source, err)
		}
	}

	return nil
}

func (s *Service) processBatch(ctx context.Context, raws []RawArticle, category, country string) error {
	seen := make(map[string]struct{}) // prevent writing articles twice in event of data overlap

	batch := make([]article.Article, 0, len(raws))
	for _, raw := range raws {
		if _, ok := seen[raw.URL]; ok {
			continue
		}
		seen[raw.URL] = struct{}{}

		a, err := MapRawToArticle(raw, category, country)
		if err != nil {
			s.logger.Printf("mapping failed for %q: %v", raw.URL, err)
			continue
		}
		batch = append(batch, a)
	}

	if len(batch) == 0 {
		return nil
	}

	enriched, err := s.enricher.Enrich(ctx, batch)
	if err != nil {
		return err
	}
	s.logger.Printf("enriched %d of %d articles with locations", len(enriched), len(batch))

	for i := range enriched {
		a := &enriched[i]

		created, err := s.repo.UpsertByURL(ctx, a)
		if err != nil {
			s.logger.Printf("failed to upsert %s: %v", a.URL, err)
			continue
		}
		if !created {
			if err := s.repo.AppendLocations(ctx, a.URL, a.Locations); err != nil {
				s.logger.Printf("failed to append locations for %s: %v", a.URL, err)
				continue
			}
		}

		if s.publisher != nil {
			if err := s.publisher.PublishArticleEnriched(ctx, a); err != nil {
				s.logger.Printf("failed to publish %s: %v", a.URL, err)
			}
		}
	}

	return nil
}

// StartPolling runs RunOnce on every tick until the context is cancelled or
// maxPolls passes have completed (maxPolls <= 0 means unlimited).
func (s *Service) StartPolling(ctx context.Context, interval time.Duration) {
	t := s.newTicker(interval)
	defer t.Stop()

	pollCount := 0

	s.logger.Printf("polling every %v...", interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Println("poller stopping — context cancelled")
			return

		case <-t.C():
			if s.maxPolls > 0 && pollCount >= s.maxPolls {
				s.logger.Printf("poller stopping after %d polls (max reached)", pollCount)
				return
			}

			pollCount++
			s.logger.Printf("poll #%d starting ingestion...", pollCount)

			pollCtx, cancel := context.WithTimeout(ctx, runTimeout)

			if err := s.RunOnce(pollCtx); err != nil {
				s.logger.Printf("poll error: %v", err)
			}

			cancel()
		}
	}
}
