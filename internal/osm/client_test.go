package osm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/woozymasta/geotoolbox/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const overpassBody = `{
  "version": 0.6,
  "elements": [
    {"type": "relation", "id": 65606, "tags": {"name": "London", "type": "boundary"}},
    {"type": "way", "id": 1, "nodes": [10, 11, 12]},
    {"type": "node", "id": 10, "lat": 51.50, "lon": -0.10},
    {"type": "node", "id": 11, "lat": 51.52, "lon": -0.12},
    {"type": "node", "id": 12, "lat": 51.49, "lon": -0.14},
    {"type": "node", "id": 13, "lat": 51.51, "lon": -0.11, "tags": {"place": "city"}},
    {"type": "node", "id": 20, "lat": 42.98, "lon": -81.24},
    {"type": "node", "id": 21, "lat": 42.99, "lon": -81.25}
  ]
}`

func newOverpassServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostForm.Get("data"), "[out:json]")
		assert.Contains(t, r.PostForm.Get("data"), `["name"="London"]`)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(overpassBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientQuery(t *testing.T) {
	var hits int32
	srv := newOverpassServer(t, &hits)

	c := NewClient(srv.URL, srv.Client())
	elements, err := c.Query(context.Background(), BoundaryQuery("United Kingdom", "London"))
	require.NoError(t, err)

	assert.Len(t, elements, 8)
	assert.Equal(t, "relation", elements[0].Type)
	assert.Equal(t, []int64{10, 11, 12}, elements[1].Nodes)
}

func TestClientQueryUsesCache(t *testing.T) {
	var hits int32
	srv := newOverpassServer(t, &hits)

	store, err := cache.OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c := NewClient(srv.URL, srv.Client(), WithCache(store, time.Hour))
	ql := BoundaryQuery("United Kingdom", "London")

	for i := 0; i < 3; i++ {
		_, err := c.Query(context.Background(), ql)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClientQueryStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL, srv.Client()).Query(context.Background(), "node(1);out;")
	assert.ErrorIs(t, err, ErrUpstreamStatus)
}

func TestBoundaryQueryEscapesNames(t *testing.T) {
	ql := BoundaryQuery("United Kingdom", `Bob"s \ Town`)
	assert.Contains(t, ql, `area["name"="United Kingdom"]`)
	assert.Contains(t, ql, `["name"="Bob\"s \\ Town"]`)
	assert.Contains(t, ql, "out body;")
}

func TestClientQueryRuntimeRemarkNotCached(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"elements":[],"remark":"runtime error: Query timed out in \"recurse\" at line 5 after 181 seconds."}`))
	}))
	t.Cleanup(srv.Close)

	store, err := cache.OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c := NewClient(srv.URL, srv.Client(), WithCache(store, time.Hour))
	ql := BoundaryQuery("United Kingdom", "London")

	for i := 0; i < 2; i++ {
		_, err := c.Query(context.Background(), ql)
		assert.ErrorIs(t, err, ErrUpstream)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClientQueryTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil).Query(context.Background(), "node(1);out;")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestClientQueryMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>busy</html>`))
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL, srv.Client()).Query(context.Background(), "node(1);out;")
	assert.ErrorIs(t, err, ErrUpstream)
}
