// Package toolbox wires the upstream clients and the response cache from a
// configuration, shared by the CLI and the HTTP server.
package toolbox

import (
	"net/http"
	"time"

	"github.com/woozymasta/geotoolbox/internal/cache"
	"github.com/woozymasta/geotoolbox/internal/config"
	"github.com/woozymasta/geotoolbox/internal/nominatim"
	"github.com/woozymasta/geotoolbox/internal/osm"

	"github.com/rs/zerolog/log"
)

// Toolbox holds the clients built from a configuration.
type Toolbox struct {
	Cache     cache.Store
	Overpass  *osm.Client
	Nominatim *nominatim.Client
}

// NewHTTPClient returns the client used for upstream requests.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        16,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: timeout,
	}
}

// Open builds the cache and both upstream clients. Close releases the cache.
func Open(cfg *config.Config) (*Toolbox, error) {
	var store cache.Store = cache.NewNop()
	if !cfg.Cache.Disabled {
		bs, err := cache.OpenBadger(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		store = bs
	}

	// Overpass enforces its own server side timeout; leave headroom for the transfer.
	overpass := osm.NewClient(cfg.Overpass.URL, NewHTTPClient(cfg.Overpass.Timeout+30*time.Second),
		osm.WithCache(store, cfg.Cache.TTL),
		osm.WithRateLimit(cfg.Overpass.RateLimit),
		osm.WithTimeout(cfg.Overpass.Timeout),
		osm.WithUserAgent(cfg.Nominatim.UserAgent),
	)

	geocoder, err := nominatim.NewClient(cfg.Nominatim.URL, cfg.Nominatim.UserAgent, NewHTTPClient(cfg.Nominatim.Timeout),
		nominatim.WithCache(store, cfg.Cache.TTL),
		nominatim.WithRateLimit(cfg.Nominatim.RateLimit),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	log.Debug().
		Str("overpass", cfg.Overpass.URL).
		Str("nominatim", cfg.Nominatim.URL).
		Bool("cache", !cfg.Cache.Disabled).
		Msg("Upstream clients configured")

	return &Toolbox{Cache: store, Overpass: overpass, Nominatim: geocoder}, nil
}

// Close releases the cache.
func (t *Toolbox) Close() {
	if err := t.Cache.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close response cache")
	}
}
