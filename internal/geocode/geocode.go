// Package geocode resolves canonical place names to coordinates, preferring
// hand-curated overrides and falling back to a rate-limited external
// geocoding service with a rotating credential pool.
package geocode

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/geonews/geonews/internal/gazetteer"
)

// Resolver turns a canonical place name into coordinates. The second return
// is false when the name could not be resolved; a failed lookup is never an
// error, it only omits that one location.
type Resolver interface {
	Resolve(ctx context.Context, name string) (gazetteer.Coordinates, bool)
}

// response is the geocoding service wire format: status 0 means success.
type response struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	Result struct {
		Location gazetteer.Coordinates `json:"location"`
	} `json:"result"`
}

type Client struct {
	baseURL string
	pool    *CredentialPool
	gaz     *gazetteer.Gazetteer
	pace    time.Duration
	http    *http.Client
	logger  *log.Logger
}

func NewClient(baseURL string, pool *CredentialPool, gaz *gazetteer.Gazetteer, pace time.Duration, httpClient *http.Client, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		baseURL: baseURL,
		pool:    pool,
		gaz:     gaz,
		pace:    pace,
		http:    httpClient,
		logger:  logger,
	}
}

// Resolve checks the manual override table first; an override hit costs no
// network call and no pacing. Otherwise it waits out the pacing delay, takes
// the next credential from the pool and queries the service. Any failure
// (non-success status, network error, timeout, context cancellation) yields
// a not-found result.
func (c *Client) Resolve(ctx context.Context, name string) (gazetteer.Coordinates, bool) {
	if coords, ok := c.gaz.Override(name); ok {
		c.logger.Printf("geocode: manual coordinates for %q", name)
		return coords, true
	}

	// Pace the request-issue timeline. Each concurrent dispatch waits on
	// its own timer so siblings do not serialise behind one another.
	if c.pace > 0 {
		timer := time.NewTimer(c.pace)
		select {
		case <-ctx.Done():
			timer.Stop()
			return gazetteer.Coordinates{}, false
		case <-timer.C:
		}
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		c.logger.Printf("geocode: bad base URL %q: %v", c.baseURL, err)
		return gazetteer.Coordinates{}, false
	}
	q := u.Query()
	q.Set("address", name)
	q.Set("output", "json")
	q.Set("access_key", c.pool.Next())
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		c.logger.Printf("geocode: building request for %q: %v", name, err)
		return gazetteer.Coordinates{}, false
	}

	c.logger.Printf("geocode: resolving %q", name)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("geocode: request for %q failed: %v", name, err)
		return gazetteer.Coordinates{}, false
	}
	defer resp.Body.Close()

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logger.Printf("geocode: decoding response for %q: %v", name, err)
		return gazetteer.Coordinates{}, false
	}

	if out.Status != 0 {
		c.logger.Printf("geocode: service error for %q: status=%d msg=%q", name, out.Status, out.Msg)
		return gazetteer.Coordinates{}, false
	}

	loc := out.Result.Location
	if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
		c.logger.Printf("geocode: out-of-range coordinates for %q: lat=%v lng=%v", name, loc.Lat, loc.Lng)
		return gazetteer.Coordinates{}, false
	}

	return loc, true
}
