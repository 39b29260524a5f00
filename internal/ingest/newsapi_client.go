package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/geonews/geonews/internal/geocode"
)

// NewsClient fetches batches of raw articles from the upstream news API.
type NewsClient interface {
	TopHeadlines(ctx context.Context, category, country string, pageSize int) (NewsResponse, error)
	Everything(ctx context.Context, source string, from time.Time, pageSize int) (NewsResponse, error)
}

type newsAPIClient struct {
	baseURL string
	keys    *geocode.CredentialPool
	http    *http.Client
}

// NewNewsAPIClient talks to a newsapi.org-convention endpoint, rotating
// through the configured API keys one request at a time.
func NewNewsAPIClient(baseURL string, keys *geocode.CredentialPool, httpClient *http.Client) NewsClient {
	return &newsAPIClient{
		baseURL: baseURL,
		keys:    keys,
		http:    httpClient,
	}
}

func (c *newsAPIClient) TopHeadlines(ctx context.Context, category, country string, pageSize int) (NewsResponse, error) {
	params := url.Values{}
	params.Set("category", category)
	params.Set("country", country)
	params.Set("pageSize", strconv.Itoa(pageSize))
	return c.get(ctx, "/top-headlines", params)
}

func (c *newsAPIClient) Everything(ctx context.Context, source string, from time.Time, pageSize int) (NewsResponse, error) {
	params := url.Values{}
	params.Set("sources", source)
	params.Set("from", from.Format("2006-01-02"))
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(pageSize))
	return c.get(ctx, "/everything", params)
}

func (c *newsAPIClient) get(ctx context.Context, path string, params url.Values) (NewsResponse, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return NewsResponse{}, err
	}
	params.Set("apiKey", c.keys.Next())
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return NewsResponse{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return NewsResponse{}, err
	}
	defer resp.Body.Close()

	var out NewsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return NewsResponse{}, err
	}

	if out.Status != "ok" {
		return NewsResponse{}, fmt.Errorf("news api error: %s (%s)", out.Message, out.Code)
	}

	return out, nil
}
