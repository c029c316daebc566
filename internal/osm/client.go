// Package osm queries the OpenStreetMap Overpass API and turns boundary
// relations into hull polygons.
package osm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/woozymasta/geotoolbox/internal/cache"
	"github.com/woozymasta/geotoolbox/internal/metrics"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var (
	// ErrUpstreamStatus is returned when Overpass answers with a non-200 status.
	ErrUpstreamStatus = errors.New("overpass returned unexpected status")
	// ErrUpstream is returned when Overpass is unreachable, its response
	// cannot be read or the query was aborted server side.
	ErrUpstream = errors.New("overpass request failed")
	// ErrNoBoundary is returned when a query matched no boundary nodes.
	ErrNoBoundary = errors.New("no boundary found")
)

// Element is a single Overpass result element.
type Element struct {
	Tags  map[string]string `json:"tags,omitempty"`
	Type  string            `json:"type"`
	Nodes []int64           `json:"nodes,omitempty"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat,omitempty"`
	Lon   float64           `json:"lon,omitempty"`
}

type response struct {
	Remark   string    `json:"remark,omitempty"`
	Elements []Element `json:"elements"`
}

// Client talks to an Overpass interpreter endpoint.
type Client struct {
	http      *http.Client
	cache     cache.Store
	limiter   *rate.Limiter
	endpoint  string
	userAgent string
	timeout   time.Duration
	cacheTTL  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithCache stores raw responses keyed by query.
func WithCache(s cache.Store, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = s
		c.cacheTTL = ttl
	}
}

// WithRateLimit paces queries to rps requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithTimeout sets the server-side query timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates an Overpass client.
func NewClient(endpoint string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		http:      httpClient,
		cache:     cache.NewNop(),
		limiter:   rate.NewLimiter(rate.Inf, 1),
		endpoint:  endpoint,
		userAgent: "geotoolbox",
		timeout:   3 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Query runs Overpass QL and returns the result elements. The JSON output
// and timeout settings are prepended to ql. Only cleanly completed
// responses are cached.
func (c *Client) Query(ctx context.Context, ql string) ([]Element, error) {
	full := fmt.Sprintf("[out:json][timeout:%d];\n%s", int(c.timeout.Seconds()), ql)

	if body, ok := c.cache.Get(ctx, cache.NamespaceOverpass, full); ok {
		if resp, err := decodeResponse(body); err == nil {
			return resp.Elements, nil
		}
		log.Warn().Msg("Ignoring unreadable cached overpass response")
	}

	body, err := c.fetch(ctx, full)
	if err != nil {
		return nil, err
	}

	resp, err := decodeResponse(body)
	if err != nil {
		return nil, err
	}
	if resp.Remark != "" {
		log.Warn().Str("remark", resp.Remark).Msg("Overpass returned a remark")
	}

	if err := c.cache.Set(ctx, cache.NamespaceOverpass, full, body, c.cacheTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to cache overpass response")
	}

	return resp.Elements, nil
}

// decodeResponse parses an Overpass body. A runtime remark means the
// query was aborted server side (timeout or memory) and the elements are
// incomplete.
func decodeResponse(body []byte) (*response, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}
	if strings.HasPrefix(resp.Remark, "runtime error") || strings.HasPrefix(resp.Remark, "runtime remark") {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, resp.Remark)
	}
	return &resp, nil
}

func (c *Client) fetch(ctx context.Context, ql string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{"data": {ql}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveUpstream("overpass", 0)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.ObserveUpstream("overpass", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUpstream, err)
	}

	log.Debug().
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("Overpass query completed")

	return body, nil
}

// BoundaryQuery returns Overpass QL selecting every node of the boundary
// relations named location inside the area named country.
func BoundaryQuery(country, location string) string {
	return fmt.Sprintf(`area["name"="%s"]->.searchArea;
(
  relation["type"="boundary"]["name"="%s"](area.searchArea);
);
(._;>;);
out body;`, escape(country), escape(location))
}

var qlEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escape(s string) string {
	return qlEscaper.Replace(s)
}
