package geo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoundsNormalizesCorners(t *testing.T) {
	t.Parallel()

	b := NewBounds(15.3, 44.1, 15.2, 44.0)
	assert.Equal(t, 15.2, b.MinLat())
	assert.Equal(t, 44.0, b.MinLng())
	assert.Equal(t, 15.3, b.MaxLat())
	assert.Equal(t, 44.1, b.MaxLng())
}

func TestBoundsJSONShape(t *testing.T) {
	t.Parallel()

	b := NewBounds(15.2, 44.0, 15.3, 44.1)
	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `[[15.2,44.0],[15.3,44.1]]`, string(data))

	var back Bounds
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, b, back)
}

func TestBoundsOrbConversion(t *testing.T) {
	t.Parallel()

	b := NewBounds(15.2, 44.0, 15.3, 44.1)
	bd := b.Bound()
	assert.Equal(t, 44.0, bd.Min.Lon())
	assert.Equal(t, 15.2, bd.Min.Lat())
	assert.Equal(t, b, FromBound(bd))

	center := b.Center()
	assert.InDelta(t, 44.05, center.Lon(), 1e-9)
	assert.InDelta(t, 15.25, center.Lat(), 1e-9)
}

func TestBoundsFromProjectedIdentity(t *testing.T) {
	t.Parallel()

	b := BoundsFromProjected(44.0, 15.2, 44.1, 15.3, WGS84Identity{})
	assert.Equal(t, NewBounds(15.2, 44.0, 15.3, 44.1), b)
}

func TestBoundsFromProjectedUTM(t *testing.T) {
	t.Parallel()

	proj := UTM{Zone: 38, North: true}
	minX, minY := proj.FromWGS84(44.0, 15.2)
	maxX, maxY := proj.FromWGS84(44.1, 15.3)

	b := BoundsFromProjected(minX, minY, maxX, maxY, proj)
	assert.InDelta(t, 15.2, b.MinLat(), 1e-4)
	assert.InDelta(t, 44.0, b.MinLng(), 1e-4)
	assert.InDelta(t, 15.3, b.MaxLat(), 1e-4)
	assert.InDelta(t, 44.1, b.MaxLng(), 1e-4)
	assert.LessOrEqual(t, b.MinLat(), b.MaxLat())
	assert.LessOrEqual(t, b.MinLng(), b.MaxLng())
}

func TestFallbackBoundsIsValid(t *testing.T) {
	t.Parallel()

	assert.False(t, FallbackBounds.IsZero())
	assert.Less(t, FallbackBounds.MinLat(), FallbackBounds.MaxLat())
	assert.Less(t, FallbackBounds.MinLng(), FallbackBounds.MaxLng())
}
