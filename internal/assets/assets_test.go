package assets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIndex(t *testing.T) {
	page, err := BuildIndex("geotoolbox", "1.0.21")
	require.NoError(t, err)

	s := string(page)
	assert.Contains(t, s, "geotoolbox")
	assert.Contains(t, s, "v1.0.21")
	assert.Contains(t, s, "/api/boundary/preview.webp")
	assert.NotContains(t, s, "{{")
	assert.False(t, strings.Contains(s, "\n  "), "page is minified")
}
