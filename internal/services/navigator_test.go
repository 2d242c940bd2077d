package services

import (
	"errors"
	"navigation-session-service/internal/adapters/directions"
	"navigation-session-service/internal/adapters/location"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/geo"
	"navigation-session-service/internal/ports"
	"navigation-session-service/internal/render"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testPath = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

var (
	testOrigin = domain.Coordinates{Lat: 37.0, Lng: -122.0}
	testTap    = domain.Coordinates{Lat: 37.01, Lng: -122.01}
	testStart  = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
)

type testNavigator struct {
	nav    *Navigator
	canvas *render.Canvas
	repo   *memorySessionRepository
	events *recordingPublisher
}

func newTestNavigator(t *testing.T, provider ports.DirectionsProvider, perms ...domain.Permission) testNavigator {
	t.Helper()

	s := domain.NewSession("sess-1", testStart)
	s.Grant(perms...)

	tn := testNavigator{
		canvas: render.NewCanvas(),
		repo:   newMemorySessionRepository(),
		events: &recordingPublisher{},
	}
	tn.nav = NewNavigator(s, tn.canvas, location.NewFeed(location.DefaultRequest()), NavigatorDeps{
		Provider: provider,
		Repo:     tn.repo,
		Events:   tn.events,
		Logger:   zaptest.NewLogger(t),
		Now:      func() time.Time { return testStart },
	})
	require.NoError(t, tn.nav.Start(nil))
	t.Cleanup(tn.nav.Close)
	return tn
}

func fixAt(c domain.Coordinates, offset time.Duration) domain.LocationFix {
	return domain.LocationFix{Position: c, AccuracyMeters: 5, At: testStart.Add(offset)}
}

func currentSession(t *testing.T, n *Navigator) *domain.Session {
	t.Helper()
	s, err := n.Session()
	require.NoError(t, err)
	return s
}

func TestNavigatorDrawsRouteBetweenOriginAndTap(t *testing.T) {
	provider := directions.NewMockDirectionsProvider(testPath)
	tn := newTestNavigator(t, provider, domain.PermissionFineLocation)

	delivered, err := tn.nav.PushLocation(fixAt(testOrigin, 0))
	require.NoError(t, err)
	require.True(t, delivered)

	snap := tn.nav.Map()
	require.NotNil(t, snap.Camera)
	assert.Equal(t, domain.Camera{Target: testOrigin, Zoom: OriginZoom}, *snap.Camera)
	require.Len(t, snap.Markers, 1)
	assert.Equal(t, DriverIcon, snap.Markers[0].Icon)

	accepted, err := tn.nav.Tap(testTap)
	require.NoError(t, err)
	require.True(t, accepted)

	require.Eventually(t, func() bool {
		return len(tn.nav.Map().Polylines) == 1
	}, 2*time.Second, 10*time.Millisecond)

	want, err := geo.DecodePolyline(testPath)
	require.NoError(t, err)

	snap = tn.nav.Map()
	line := snap.Polylines[0]
	assert.Equal(t, want, line.Points)
	assert.Equal(t, RouteWidth, line.Width)
	assert.Equal(t, RouteColor, line.Color)

	require.Len(t, snap.Markers, 2)
	assert.Equal(t, DestinationTitle, snap.Markers[1].Title)
	assert.Equal(t, testTap, snap.Markers[1].Position)
	assert.Equal(t, testTap, snap.Camera.Target)

	s := currentSession(t, tn.nav)
	assert.Equal(t, domain.RouteReady, s.RouteStatus)
	assert.Equal(t, domain.PhaseDestinationSet, s.Phase)

	reqs := provider.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, testOrigin, reqs[0].Origin)
	assert.Equal(t, testTap, reqs[0].Destination)
	assert.Equal(t, ports.TravelModeDriving, reqs[0].Mode)

	// A second tap is discarded and does not reach the provider.
	accepted, err = tn.nav.Tap(domain.Coordinates{Lat: 37.02, Lng: -122.02})
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, 1, provider.Calls())
	assert.Len(t, tn.nav.Map().Polylines, 1)
	assert.Equal(t, testTap, *currentSession(t, tn.nav).Destination)
}

func TestNavigatorLaterFixesDoNotMoveOriginOrAddMarkers(t *testing.T) {
	tn := newTestNavigator(t, directions.NewMockDirectionsProvider(testPath), domain.PermissionFineLocation)

	_, err := tn.nav.PushLocation(fixAt(testOrigin, 0))
	require.NoError(t, err)

	moved := domain.Coordinates{Lat: 37.1, Lng: -122.1}
	delivered, err := tn.nav.PushLocation(fixAt(moved, time.Minute))
	require.NoError(t, err)
	require.True(t, delivered)

	s := currentSession(t, tn.nav)
	assert.Equal(t, testOrigin, *s.Origin)

	snap := tn.nav.Map()
	assert.Len(t, snap.Markers, 1)
	assert.Equal(t, testOrigin, snap.Markers[0].Position)
	assert.Equal(t, testOrigin, snap.Camera.Target)
}

func TestNavigatorTapWithoutOriginShowsNotice(t *testing.T) {
	provider := directions.NewMockDirectionsProvider(testPath)
	tn := newTestNavigator(t, provider, domain.PermissionFineLocation)

	accepted, err := tn.nav.Tap(testTap)
	require.NoError(t, err)
	assert.True(t, accepted)

	snap := tn.nav.Map()
	require.Len(t, snap.Notices, 1)
	assert.Equal(t, NoticeSelectDestination, snap.Notices[0].Message)
	assert.Empty(t, snap.Polylines)
	assert.Equal(t, 0, provider.Calls())

	s := currentSession(t, tn.nav)
	assert.Equal(t, domain.RouteSkipped, s.RouteStatus)
	assert.Nil(t, s.Origin)

	// An origin arriving afterwards does not start a route.
	_, err = tn.nav.PushLocation(fixAt(testOrigin, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, provider.Calls())
	assert.Equal(t, domain.PhaseDestinationSet, currentSession(t, tn.nav).Phase)
}

func TestNavigatorProviderFailureShowsNotice(t *testing.T) {
	provider := directions.NewFailingDirectionsProvider(errors.New("quota exceeded"))
	tn := newTestNavigator(t, provider, domain.PermissionFineLocation)

	_, err := tn.nav.PushLocation(fixAt(testOrigin, 0))
	require.NoError(t, err)
	_, err = tn.nav.Tap(testTap)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return currentSession(t, tn.nav).RouteStatus == domain.RouteFailed
	}, 2*time.Second, 10*time.Millisecond)

	snap := tn.nav.Map()
	assert.Empty(t, snap.Polylines)
	require.Len(t, snap.Notices, 1)
	assert.Equal(t, NoticeRouteUnavailable, snap.Notices[0].Message)
	assert.Contains(t, tn.events.Types(), ports.EventRouteFailed)
}

func TestNavigatorZeroRoutesFails(t *testing.T) {
	tn := newTestNavigator(t, directions.NewMockDirectionsProvider(), domain.PermissionFineLocation)

	_, err := tn.nav.PushLocation(fixAt(testOrigin, 0))
	require.NoError(t, err)
	_, err = tn.nav.Tap(testTap)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return currentSession(t, tn.nav).RouteStatus == domain.RouteFailed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNavigatorRequiresLocationPermission(t *testing.T) {
	tn := newTestNavigator(t, directions.NewMockDirectionsProvider(testPath))

	_, err := tn.nav.PushLocation(fixAt(testOrigin, 0))
	require.ErrorIs(t, err, domain.ErrLocationPermission)

	require.NoError(t, tn.nav.GrantPermissions(domain.PermissionFineLocation, domain.PermissionCoarseLocation))

	delivered, err := tn.nav.PushLocation(fixAt(testOrigin, 0))
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.NotNil(t, currentSession(t, tn.nav).Origin)
}

func TestNavigatorRejectsInvalidCoordinates(t *testing.T) {
	tn := newTestNavigator(t, directions.NewMockDirectionsProvider(testPath), domain.PermissionFineLocation)

	_, err := tn.nav.Tap(domain.Coordinates{Lat: 91, Lng: 0})
	require.ErrorIs(t, err, domain.ErrInvalidCoordinates)

	_, err = tn.nav.PushLocation(fixAt(domain.Coordinates{Lat: 0, Lng: 181}, 0))
	require.ErrorIs(t, err, domain.ErrInvalidCoordinates)
}

func TestNavigatorCloseCancelsInFlightRoute(t *testing.T) {
	provider := directions.NewMockDirectionsProvider(testPath)
	provider.Block()
	tn := newTestNavigator(t, provider, domain.PermissionFineLocation)

	_, err := tn.nav.PushLocation(fixAt(testOrigin, 0))
	require.NoError(t, err)
	_, err = tn.nav.Tap(testTap)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return provider.Calls() == 1 }, 2*time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		tn.nav.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return while a route request was blocked")
	}

	assert.Empty(t, tn.nav.Map().Polylines)

	_, err = tn.nav.Session()
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = tn.nav.Tap(testTap)
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = tn.nav.PushLocation(fixAt(testOrigin, time.Minute))
	assert.ErrorIs(t, err, domain.ErrSessionClosed)

	stored, err := tn.repo.GetSession(t.Context(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RouteCancelled, stored.RouteStatus)
	assert.Nil(t, stored.Route)
}

func TestNavigatorPublishesLifecycleEvents(t *testing.T) {
	tn := newTestNavigator(t, directions.NewMockDirectionsProvider(testPath), domain.PermissionFineLocation)

	_, err := tn.nav.PushLocation(fixAt(testOrigin, 0))
	require.NoError(t, err)
	_, err = tn.nav.Tap(testTap)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return currentSession(t, tn.nav).RouteStatus == domain.RouteReady
	}, 2*time.Second, 10*time.Millisecond)
	tn.nav.Close()

	assert.Equal(t, []string{
		ports.EventSessionCreated,
		ports.EventOriginFixed,
		ports.EventDestinationSelected,
		ports.EventRouteDrawn,
		ports.EventSessionClosed,
	}, tn.events.Types())

	stored, err := tn.repo.GetSession(t.Context(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RouteReady, stored.RouteStatus)
	require.NotNil(t, stored.Route)
	assert.Len(t, stored.Route.Points, 3)
}

func TestNavigatorAnimatesDriverWhenEnabled(t *testing.T) {
	s := domain.NewSession("sess-anim", testStart)
	s.Grant(domain.PermissionFineLocation)
	canvas := render.NewCanvas()

	nav := NewNavigator(s, canvas, location.NewFeed(location.DefaultRequest()), NavigatorDeps{
		Provider:      directions.NewMockDirectionsProvider(testPath),
		Logger:        zaptest.NewLogger(t),
		Now:           func() time.Time { return testStart },
		AnimateMarker: true,
		Animator:      MarkerAnimator{Duration: 20 * time.Millisecond, FrameInterval: time.Millisecond},
	})
	require.NoError(t, nav.Start(nil))
	t.Cleanup(nav.Close)

	_, err := nav.PushLocation(fixAt(testOrigin, 0))
	require.NoError(t, err)

	next := domain.Coordinates{Lat: 37.001, Lng: -122.0}
	_, err = nav.PushLocation(fixAt(next, time.Minute))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		m := nav.Map().Markers
		return len(m) == 1 && geo.Distance(m[0].Position, next) < 0.5
	}, 2*time.Second, 5*time.Millisecond)

	// The origin stays where the first fix put it.
	assert.Equal(t, testOrigin, *currentSession(t, nav).Origin)
}
