package nominatim

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/woozymasta/geotoolbox/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newNominatim(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "geotoolbox-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search":
			if r.URL.Query().Get("q") == "Nowhere at all" {
				_, _ = w.Write([]byte(`[]`))
				return
			}
			_, _ = w.Write([]byte(`[{"lat":"51.5073219","lon":"-0.1276474","display_name":"London, Greater London, England, United Kingdom"}]`))
		case "/reverse":
			if r.URL.Query().Get("lat") == "0" {
				_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
				return
			}
			_, _ = w.Write([]byte(`{"lat":"40.7127","lon":"-74.0059","display_name":"City Hall, New York, United States"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithRateLimit(float64(rate.Inf))}, opts...)
	c, err := NewClient(srv.URL+"/", "geotoolbox-test", srv.Client(), opts...)
	require.NoError(t, err)
	return c
}

func TestGeocode(t *testing.T) {
	var hits int32
	c := newTestClient(t, newNominatim(t, &hits))

	p, err := c.Geocode(context.Background(), "London, United Kingdom")
	require.NoError(t, err)
	assert.InDelta(t, 51.5073219, p.Lat, 1e-9)
	assert.InDelta(t, -0.1276474, p.Lon, 1e-9)
	assert.Equal(t, "London, Greater London, England, United Kingdom", p.Address)
}

func TestGeocodeNotFound(t *testing.T) {
	var hits int32
	c := newTestClient(t, newNominatim(t, &hits))

	_, err := c.Geocode(context.Background(), "Nowhere at all")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Geocode(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReverse(t *testing.T) {
	var hits int32
	c := newTestClient(t, newNominatim(t, &hits))

	p, err := c.Reverse(context.Background(), 40.712776, -74.005974)
	require.NoError(t, err)
	assert.Equal(t, "City Hall, New York, United States", p.Address)

	_, err = c.Reverse(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Reverse(context.Background(), 91, 0)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	_, err = c.Reverse(context.Background(), math.NaN(), 0)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestGeocodeCached(t *testing.T) {
	var hits int32
	srv := newNominatim(t, &hits)

	store, err := cache.OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c := newTestClient(t, srv, WithCache(store, time.Hour))
	for i := 0; i < 3; i++ {
		_, err := c.Geocode(context.Background(), "London")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv)
	_, err := c.Geocode(context.Background(), "London")
	assert.ErrorIs(t, err, ErrUpstreamStatus)
}

func TestNewClientRequiresUserAgent(t *testing.T) {
	_, err := NewClient("http://localhost", " ", nil)
	assert.ErrorIs(t, err, ErrNoUserAgent)
}

func TestRateLimitPacesRequests(t *testing.T) {
	var hits int32
	srv := newNominatim(t, &hits)

	c, err := NewClient(srv.URL, "geotoolbox-test", srv.Client(), WithRateLimit(20))
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Reverse(context.Background(), 40.7, -74.0)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestUpstreamFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	t.Cleanup(srv.Close)

	_, err := newTestClient(t, srv).Geocode(context.Background(), "London")
	assert.ErrorIs(t, err, ErrUpstream)

	down := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	down.Close()

	_, err = newTestClient(t, down).Reverse(context.Background(), 51.5, -0.12)
	assert.ErrorIs(t, err, ErrUpstream)
}
