package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/geo"
	"navigation-session-service/internal/platform/obs"
	"navigation-session-service/internal/ports"
	"net/http"
	"strings"
	"time"
)

// ORSDirectionsProvider implements DirectionsProvider using OpenRouteService.
//
// Routes are requested from /v2/directions/{profile} and returned with
// their geometry as an encoded polyline. The provider is safe for
// concurrent use.
type ORSDirectionsProvider struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	maxAttempts int
	backoff     time.Duration
}

type ORSOption func(*ORSDirectionsProvider)

func WithORSBaseURL(u string) ORSOption {
	return func(o *ORSDirectionsProvider) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithORSHTTPClient(c *http.Client) ORSOption {
	return func(o *ORSDirectionsProvider) { o.session = c }
}

func WithORSRetry(maxAttempts int, backoff time.Duration) ORSOption {
	return func(o *ORSDirectionsProvider) {
		o.maxAttempts = maxAttempts
		o.backoff = backoff
	}
}

func NewORSDirectionsProvider(apiKey string, opts ...ORSOption) (*ORSDirectionsProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	provider := &ORSDirectionsProvider{
		session:     &http.Client{Timeout: 10 * time.Second},
		apiKey:      apiKey,
		baseURL:     "https://api.openrouteservice.org",
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(provider)
	}
	if provider.maxAttempts < 1 {
		provider.maxAttempts = 1
	}

	return provider, nil
}

type orsDirectionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type orsDirectionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

func orsProfile(mode ports.TravelMode) (string, error) {
	switch mode {
	case "", ports.TravelModeDriving:
		return "driving-car", nil
	}
	return "", fmt.Errorf("unsupported travel mode %q", mode)
}

func (o *ORSDirectionsProvider) GetRoutes(
	ctx context.Context,
	req ports.DirectionsRequest,
) (_ []domain.Route, err error) {
	defer obs.Time(ctx, "ors.GetRoutes")(&err)

	profile, err := orsProfile(req.Mode)
	if err != nil {
		return nil, fmt.Errorf("get ORS routes: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, profile)

	payload, err := json.Marshal(orsDirectionsRequest{
		Coordinates: [][]float64{req.Origin.CoordsToList(), req.Destination.CoordsToList()},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr orsDirectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("decode directions response: %w", err)
	}

	if len(dr.Routes) == 0 {
		return nil, ports.ErrNoRoute
	}

	out := make([]domain.Route, 0, len(dr.Routes))
	for i, r := range dr.Routes {
		points, err := geo.DecodePolyline(r.Geometry)
		if err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}

		// ORS returns float metrics; round to nearest integer for domain consistency.
		out = append(out, domain.Route{
			Provider:       "ors",
			EncodedPath:    r.Geometry,
			Points:         points,
			DistanceMeters: int(math.Round(r.Summary.Distance)),
			Duration:       time.Duration(math.Round(r.Summary.Duration)) * time.Second,
		})
	}

	return out, nil
}
