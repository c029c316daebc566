// Package nominatim is a client for the OpenStreetMap Nominatim geocoder.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/woozymasta/geotoolbox/internal/cache"
	"github.com/woozymasta/geotoolbox/internal/metrics"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var (
	// ErrNotFound is returned when Nominatim has no match.
	ErrNotFound = errors.New("no match found")
	// ErrNoUserAgent is returned by NewClient when no user agent is set.
	// The Nominatim usage policy requires one.
	ErrNoUserAgent = errors.New("nominatim requires a user agent")
	// ErrUpstreamStatus is returned for non-200 responses.
	ErrUpstreamStatus = errors.New("nominatim returned unexpected status")
	// ErrUpstream is returned when Nominatim is unreachable or its response
	// cannot be read.
	ErrUpstream = errors.New("nominatim request failed")
	// ErrInvalidCoordinate is returned for coordinates outside WGS84 range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// Place is a geocoding result.
type Place struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Geocoder resolves free text to places and places to addresses.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*Place, error)
	Reverse(ctx context.Context, lat, lon float64) (*Place, error)
}

// Internal structures for JSON parsing
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type reverseResult struct {
	searchResult
	Error string `json:"error,omitempty"`
}

// Client is a rate-limited Nominatim client.
type Client struct {
	http      *http.Client
	cache     cache.Store
	limiter   *rate.Limiter
	endpoint  string
	userAgent string
	cacheTTL  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithCache stores decoded places keyed by query.
func WithCache(s cache.Store, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = s
		c.cacheTTL = ttl
	}
}

// WithRateLimit paces requests to rps requests per second.
// The public instance allows at most one.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewClient creates a client for the Nominatim instance at endpoint.
func NewClient(endpoint, userAgent string, httpClient *http.Client, opts ...Option) (*Client, error) {
	if strings.TrimSpace(userAgent) == "" {
		return nil, ErrNoUserAgent
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		http:      httpClient,
		cache:     cache.NewNop(),
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
		endpoint:  strings.TrimRight(endpoint, "/"),
		userAgent: userAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Geocode returns the best match for a free-text query.
func (c *Client) Geocode(ctx context.Context, query string) (*Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrNotFound)
	}

	if p, ok := c.cached(ctx, cache.NamespaceGeocode, query); ok {
		return p, nil
	}

	params := url.Values{
		"q":      {query},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}

	var results []searchResult
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, query)
	}

	p, err := results[0].place()
	if err != nil {
		return nil, err
	}
	c.store(ctx, cache.NamespaceGeocode, query, p)

	return p, nil
}

// Reverse returns the address nearest to a coordinate.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: %v, %v out of range", ErrInvalidCoordinate, lat, lon)
	}

	latStr := strconv.FormatFloat(lat, 'f', -1, 64)
	lonStr := strconv.FormatFloat(lon, 'f', -1, 64)
	key := latStr + "," + lonStr

	if p, ok := c.cached(ctx, cache.NamespaceReverse, key); ok {
		return p, nil
	}

	params := url.Values{
		"lat":    {latStr},
		"lon":    {lonStr},
		"format": {"jsonv2"},
	}

	var result reverseResult
	if err := c.get(ctx, "/reverse", params, &result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, result.Error)
	}

	p, err := result.place()
	if err != nil {
		return nil, err
	}
	c.store(ctx, cache.NamespaceReverse, key, p)

	return p, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveUpstream("nominatim", 0)
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.ObserveUpstream("nominatim", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}

	return nil
}

func (c *Client) cached(ctx context.Context, ns, key string) (*Place, bool) {
	data, ok := c.cache.Get(ctx, ns, key)
	if !ok {
		return nil, false
	}

	var p Place
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *Client) store(ctx context.Context, ns, key string, p *Place) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, ns, key, data, c.cacheTTL); err != nil {
		log.Warn().Err(err).Str("namespace", ns).Msg("Failed to cache place")
	}
}

func (r searchResult) place() (*Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parse lat %q: %w", ErrUpstream, r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parse lon %q: %w", ErrUpstream, r.Lon, err)
	}

	return &Place{Address: r.DisplayName, Lat: lat, Lon: lon}, nil
}
