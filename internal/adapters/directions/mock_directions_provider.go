package directions

import (
	"context"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/geo"
	"navigation-session-service/internal/ports"
	"sync"
)

// MockDirectionsProvider returns canned routes and counts calls.
type MockDirectionsProvider struct {
	mu       sync.Mutex
	routes   []domain.Route
	err      error
	calls    int
	requests []ports.DirectionsRequest
	block    chan struct{}
}

// NewMockDirectionsProvider serves one route per encoded path, in order.
func NewMockDirectionsProvider(encodedPaths ...string) *MockDirectionsProvider {
	routes := make([]domain.Route, 0, len(encodedPaths))
	for _, p := range encodedPaths {
		points, err := geo.DecodePolyline(p)
		if err != nil {
			panic(err)
		}
		routes = append(routes, domain.Route{Provider: "mock", EncodedPath: p, Points: points})
	}
	return &MockDirectionsProvider{routes: routes}
}

// NewFailingDirectionsProvider always returns err.
func NewFailingDirectionsProvider(err error) *MockDirectionsProvider {
	return &MockDirectionsProvider{err: err}
}

// Block makes GetRoutes wait until ctx is done or Release is called.
func (p *MockDirectionsProvider) Block() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.block = make(chan struct{})
}

func (p *MockDirectionsProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.block != nil {
		close(p.block)
		p.block = nil
	}
}

func (p *MockDirectionsProvider) GetRoutes(ctx context.Context, req ports.DirectionsRequest) ([]domain.Route, error) {
	p.mu.Lock()
	p.calls++
	p.requests = append(p.requests, req)
	block := p.block
	p.mu.Unlock()

	if block != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-block:
		}
	}

	if p.err != nil {
		return nil, p.err
	}
	if len(p.routes) == 0 {
		return nil, ports.ErrNoRoute
	}

	out := make([]domain.Route, len(p.routes))
	copy(out, p.routes)
	return out, nil
}

func (p *MockDirectionsProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *MockDirectionsProvider) Requests() []ports.DirectionsRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.DirectionsRequest(nil), p.requests...)
}
