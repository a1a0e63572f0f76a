// Package geocode resolves coordinates to human-readable place names via the
// OpenStreetMap Nominatim API. Lookups are cached in Redis when a client is
// available; callers degrade to a placeholder name on any failure.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// cacheTTL bounds how long a resolved display name is reused. Venue
// coordinates never move, but upstream data improves over time.
const cacheTTL = 24 * time.Hour

// Client performs reverse geocoding lookups with an optional Redis cache.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *redis.Client
}

// Option adjusts optional Client settings.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a geocode client. cache may be nil, in which case every
// lookup goes to the upstream API.
func NewClient(cache *redis.Client, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache: cache,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
}

// ReverseLookup resolves coordinates to a display name. Cache hits skip the
// upstream call; cache write failures are logged and ignored.
func (c *Client) ReverseLookup(ctx context.Context, lat, lon float64) (string, error) {
	key := cacheKey(lat, lon)

	if c.cache != nil {
		if name, err := c.cache.Get(ctx, key).Result(); err == nil && name != "" {
			return name, nil
		}
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build reverse request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("reverse lookup: status %d", resp.StatusCode)
	}

	var out reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("reverse lookup: decode response: %w", err)
	}
	if out.DisplayName == "" {
		return "", fmt.Errorf("reverse lookup: empty display name")
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, out.DisplayName, cacheTTL).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("geocode cache write failed")
		}
	}

	return out.DisplayName, nil
}

// cacheKey rounds coordinates to ~11 m so nearby detail requests share one
// cache entry.
func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("geocode:%.4f:%.4f", lat, lon)
}
