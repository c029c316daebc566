package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveUpstream(t *testing.T) {
	before := testutil.ToFloat64(upstreamRequests.WithLabelValues("nominatim", "200"))
	ObserveUpstream("nominatim", 200)
	assert.Equal(t, before+1, testutil.ToFloat64(upstreamRequests.WithLabelValues("nominatim", "200")))

	before = testutil.ToFloat64(upstreamRequests.WithLabelValues("overpass", "error"))
	ObserveUpstream("overpass", 0)
	assert.Equal(t, before+1, testutil.ToFloat64(upstreamRequests.WithLabelValues("overpass", "error")))
}

func TestObserveCache(t *testing.T) {
	before := testutil.ToFloat64(cacheLookups.WithLabelValues("geocode", "hit"))
	ObserveCache("geocode", true)
	assert.Equal(t, before+1, testutil.ToFloat64(cacheLookups.WithLabelValues("geocode", "hit")))
}
