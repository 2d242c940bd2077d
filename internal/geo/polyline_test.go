package geo

import (
	"navigation-session-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference example from the encoded polyline algorithm documentation.
const referencePath = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

func TestDecodePolylineReference(t *testing.T) {
	points, err := DecodePolyline(referencePath)
	require.NoError(t, err)

	want := []domain.Coordinates{
		{Lat: 38.5, Lng: -120.2},
		{Lat: 40.7, Lng: -120.95},
		{Lat: 43.252, Lng: -126.453},
	}
	require.Len(t, points, len(want))
	for i := range want {
		assert.InDelta(t, want[i].Lat, points[i].Lat, 1e-6, "lat[%d]", i)
		assert.InDelta(t, want[i].Lng, points[i].Lng, 1e-6, "lng[%d]", i)
	}
}

func TestEncodePolylineMatchesReference(t *testing.T) {
	got := EncodePolyline([]domain.Coordinates{
		{Lat: 38.5, Lng: -120.2},
		{Lat: 40.7, Lng: -120.95},
		{Lat: 43.252, Lng: -126.453},
	})
	assert.Equal(t, referencePath, got)
}

func TestDecodePolylineEmpty(t *testing.T) {
	points, err := DecodePolyline("")
	require.NoError(t, err)
	assert.Empty(t, points)
}
