package api

import (
	"bytes"
	"encoding/json"
	"navigation-session-service/internal/adapters/directions"
	"navigation-session-service/internal/adapters/location"
	"navigation-session-service/internal/api/dto"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/geo"
	"navigation-session-service/internal/services"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const testPath = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

func newTestServer(t *testing.T, provider *directions.MockDirectionsProvider) *httptest.Server {
	t.Helper()
	logger := zaptest.NewLogger(t)
	mgr := services.NewManager(services.NavigatorDeps{
		Provider: provider,
		Logger:   logger,
	}, location.DefaultRequest(), nil)

	srv := httptest.NewServer(NewRouter(mgr, logger))
	t.Cleanup(func() {
		srv.Close()
		mgr.Shutdown()
	})
	return srv
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, directions.NewMockDirectionsProvider(testPath))

	res := do(t, http.MethodGet, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, res.Header.Get(requestIDHeader))

	res = do(t, http.MethodPost, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
	assert.Equal(t, http.MethodGet, res.Header.Get("Allow"))
}

func TestSessionFlow(t *testing.T) {
	provider := directions.NewMockDirectionsProvider(testPath)
	srv := newTestServer(t, provider)

	res := do(t, http.MethodPost, srv.URL+"/sessions", nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	created := decode[dto.SessionResponse](t, res)
	require.NotNil(t, created.PermissionRequest)
	assert.Equal(t, 123, created.PermissionRequest.RequestCode)
	assert.Equal(t, "no_origin", created.Phase)

	base := srv.URL + "/sessions/" + created.ID
	lat, lng := 37.0, -122.0

	res = do(t, http.MethodPost, base+"/locations", map[string]any{"lat": lat, "lng": lng})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res = do(t, http.MethodPost, base+"/permissions", map[string]any{"granted": []string{"fine_location"}})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = do(t, http.MethodPost, base+"/locations", map[string]any{"lat": lat, "lng": lng, "accuracy": 5})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, decode[dto.LocationResponse](t, res).Delivered)

	res = do(t, http.MethodPost, base+"/taps", map[string]any{"lat": 37.01, "lng": -122.01})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, decode[dto.TapResponse](t, res).Accepted)

	require.Eventually(t, func() bool {
		res := do(t, http.MethodGet, base, nil)
		return decode[dto.SessionResponse](t, res).RouteStatus == "ready"
	}, 2*time.Second, 20*time.Millisecond)

	res = do(t, http.MethodPost, base+"/taps", map[string]any{"lat": 38.0, "lng": -121.0})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.False(t, decode[dto.TapResponse](t, res).Accepted)
	assert.Equal(t, 1, provider.Calls())

	res = do(t, http.MethodGet, base+"/map", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var m struct {
		Camera   dto.CameraResponse `json:"camera"`
		Features struct {
			Type     string `json:"type"`
			Features []struct {
				Geometry struct {
					Type        string          `json:"type"`
					Coordinates json.RawMessage `json:"coordinates"`
				} `json:"geometry"`
			} `json:"features"`
		} `json:"features"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&m))
	assert.Equal(t, 15.0, m.Camera.Zoom)
	assert.Equal(t, "FeatureCollection", m.Features.Type)
	require.Len(t, m.Features.Features, 3)
	line := m.Features.Features[2].Geometry
	assert.Equal(t, "LineString", line.Type)
	var coords [][2]float64
	require.NoError(t, json.Unmarshal(line.Coordinates, &coords))
	want := [][2]float64{{-120.2, 38.5}, {-120.95, 40.7}, {-126.453, 43.252}}
	require.Len(t, coords, len(want))
	for i := range want {
		assert.InDelta(t, want[i][0], coords[i][0], 1e-6)
		assert.InDelta(t, want[i][1], coords[i][1], 1e-6)
	}

	res = do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res = do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestMapWithDegenerateRoute(t *testing.T) {
	origin := domain.Coordinates{Lat: 37, Lng: -122}

	tests := []struct {
		name     string
		path     string
		wantType string
	}{
		{name: "single point", path: geo.EncodePolyline([]domain.Coordinates{origin}), wantType: "Point"},
		{name: "identical points", path: geo.EncodePolyline([]domain.Coordinates{origin, origin, origin}), wantType: "Point"},
		{name: "empty path", path: "", wantType: "LineString"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, directions.NewMockDirectionsProvider(tt.path))

			res := do(t, http.MethodPost, srv.URL+"/sessions", nil)
			require.Equal(t, http.StatusCreated, res.StatusCode)
			base := srv.URL + "/sessions/" + decode[dto.SessionResponse](t, res).ID

			res = do(t, http.MethodPost, base+"/permissions", map[string]any{"granted": []string{"fine_location"}})
			require.Equal(t, http.StatusOK, res.StatusCode)
			res = do(t, http.MethodPost, base+"/locations", map[string]any{"lat": origin.Lat, "lng": origin.Lng, "accuracy": 5})
			require.Equal(t, http.StatusOK, res.StatusCode)

			// Tapping on the origin yields a route with no second position.
			res = do(t, http.MethodPost, base+"/taps", map[string]any{"lat": origin.Lat, "lng": origin.Lng})
			require.Equal(t, http.StatusOK, res.StatusCode)

			require.Eventually(t, func() bool {
				res := do(t, http.MethodGet, base, nil)
				return decode[dto.SessionResponse](t, res).RouteStatus == "ready"
			}, 2*time.Second, 20*time.Millisecond)

			res = do(t, http.MethodGet, base+"/map", nil)
			require.Equal(t, http.StatusOK, res.StatusCode)
			var m struct {
				Features struct {
					Features []struct {
						Geometry struct {
							Type string `json:"type"`
						} `json:"geometry"`
						Properties map[string]any `json:"properties"`
					} `json:"features"`
				} `json:"features"`
			}
			require.NoError(t, json.NewDecoder(res.Body).Decode(&m))
			require.Len(t, m.Features.Features, 3)
			route := m.Features.Features[2]
			assert.Equal(t, "polyline", route.Properties["kind"])
			assert.Equal(t, tt.wantType, route.Geometry.Type)
		})
	}
}

func TestSessionBadRequests(t *testing.T) {
	srv := newTestServer(t, directions.NewMockDirectionsProvider(testPath))

	res := do(t, http.MethodPost, srv.URL+"/sessions", map[string]any{"permissions": []string{"camera"}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = do(t, http.MethodPost, srv.URL+"/sessions", map[string]any{"permissions": []string{"fine_location"}})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	created := decode[dto.SessionResponse](t, res)
	assert.Nil(t, created.PermissionRequest)
	base := srv.URL + "/sessions/" + created.ID

	res = do(t, http.MethodPost, base+"/taps", map[string]any{"lat": 37.0})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = do(t, http.MethodPost, base+"/taps", map[string]any{"lat": 137.0, "lng": 0})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = do(t, http.MethodPost, base+"/taps", map[string]any{"lat": 1, "lng": 1, "zoom": 3})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = do(t, http.MethodGet, base+"/taps", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	res = do(t, http.MethodGet, srv.URL+"/sessions/unknown/map", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestPlaceSelection(t *testing.T) {
	srv := newTestServer(t, directions.NewMockDirectionsProvider(testPath))

	res := do(t, http.MethodPost, srv.URL+"/places/selections", map[string]any{"place_id": "ChIJ", "name": "Ferry Building"})
	assert.Equal(t, http.StatusAccepted, res.StatusCode)

	res = do(t, http.MethodPost, srv.URL+"/places/selections", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestMiddlewareLogsWithRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := requestIDMiddleware(zap.New(core), loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/brew?cup=1", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["req_id"])
	assert.Equal(t, "/brew?cup=1", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
}
