package directions

import (
	"context"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/ports"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleGetRoutesTakesOverviewPolyline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/directions/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "37,-122", q.Get("origin"))
		assert.Equal(t, "37.01,-122.01", q.Get("destination"))
		assert.Equal(t, "driving", q.Get("mode"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"routes": [{
				"summary": "Main St",
				"overview_polyline": {"points": "` + samplePath + `"},
				"legs": [{"distance": {"text": "1.5 km", "value": 1500}, "duration": {"text": "4 mins", "value": 240}}]
			}]
		}`))
	}))
	defer srv.Close()

	p, err := NewGoogleDirectionsProvider("AIza-test", srv.URL, 5*time.Second)
	require.NoError(t, err)

	routes, err := p.GetRoutes(context.Background(), ports.DirectionsRequest{
		Origin:      domain.Coordinates{Lat: 37.0, Lng: -122.0},
		Destination: domain.Coordinates{Lat: 37.01, Lng: -122.01},
	})
	require.NoError(t, err)
	require.Len(t, routes, 1)

	r := routes[0]
	assert.Equal(t, "google", r.Provider)
	assert.Equal(t, "Main St", r.Summary)
	assert.Equal(t, samplePath, r.EncodedPath)
	assert.Equal(t, 1500, r.DistanceMeters)
	assert.Equal(t, 240*time.Second, r.Duration)
	require.Len(t, r.Points, 3)
	assert.InDelta(t, 40.7, r.Points[1].Lat, 1e-6)
}

func TestGoogleGetRoutesSurfacesStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "routes": []}`))
	}))
	defer srv.Close()

	p, err := NewGoogleDirectionsProvider("AIza-test", srv.URL, 5*time.Second)
	require.NoError(t, err)

	_, err = p.GetRoutes(context.Background(), ports.DirectionsRequest{
		Origin:      domain.Coordinates{Lat: 1, Lng: 1},
		Destination: domain.Coordinates{Lat: 2, Lng: 2},
	})
	require.Error(t, err)
}

func TestNewGoogleRequiresKey(t *testing.T) {
	_, err := NewGoogleDirectionsProvider("", "", time.Second)
	require.Error(t, err)
}
