package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var square = Polygon{
	{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
	{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}},
}

func TestPolygonContains(t *testing.T) {
	assert.True(t, square.Contains(Point{1, 1}))
	assert.True(t, square.Contains(Point{0, 5}), "edge counts as inside")
	assert.False(t, square.Contains(Point{5, 5}), "hole is outside")
	assert.True(t, square.Contains(Point{4, 5}), "hole edge is boundary")
	assert.False(t, square.Contains(Point{11, 5}))
}

func TestIntersects(t *testing.T) {
	mp := MultiPolygon{square}

	tests := []struct {
		name string
		hull Ring
		want bool
	}{
		{"hull inside", ConvexHull([]Point{{1, 1}, {2, 1}, {1, 2}}), true},
		{"polygon inside hull", ConvexHull([]Point{{-5, -5}, {20, -5}, {20, 20}, {-5, 20}}), true},
		{"edges cross only", ConvexHull([]Point{{-1, 2}, {11, 2}, {11, 3}, {-1, 3}}), true},
		{"disjoint", ConvexHull([]Point{{20, 20}, {21, 20}, {21, 21}}), false},
		{"inside hole", ConvexHull([]Point{{4.5, 4.5}, {5.5, 4.5}, {5, 5.5}}), false},
		{"single point inside", Ring{{3, 3}}, true},
		{"single point outside", Ring{{30, 3}}, false},
		{"segment crossing", Ring{{-5, 1}, {15, 1}}, true},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Intersects(mp, tt.hull))
		})
	}
}

func TestBoxIntersects(t *testing.T) {
	a := Box{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}
	assert.True(t, a.Intersects(Box{MinLon: 1, MinLat: 1, MaxLon: 2, MaxLat: 2}))
	assert.False(t, a.Intersects(Box{MinLon: 1.1, MinLat: 0, MaxLon: 2, MaxLat: 1}))
	assert.True(t, EmptyBox.IsEmpty())
}
