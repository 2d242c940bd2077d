package services

import (
	"context"
	"encoding/json"
	"errors"
	"navigation-session-service/internal/adapters/location"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/platform/obs"
	"navigation-session-service/internal/ports"
	"navigation-session-service/internal/render"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultZoom = 2.0
	OriginZoom  = 15.0

	DriverIcon       = "car"
	DestinationTitle = "end"

	RouteWidth = 10.0
	RouteColor = "#000000"

	NoticeSelectDestination = "Please select the destination"
	NoticeRouteUnavailable  = "Route unavailable"
)

const storeTimeout = 5 * time.Second

// NavigatorDeps are the collaborators shared by all sessions.
// Repo and Events are optional.
type NavigatorDeps struct {
	Provider ports.DirectionsProvider
	Repo     ports.SessionRepository
	Events   ports.EventPublisher
	Logger   *zap.Logger
	Now      func() time.Time

	// AnimateMarker moves the driver marker on fixes after the origin.
	AnimateMarker bool
	Animator      MarkerAnimator
}

// Navigator runs one navigation session. All session state is owned by a
// single event-loop goroutine; callers post work to it and wait.
// Route fetching happens off the loop and is cancelled by Close.
type Navigator struct {
	deps   NavigatorDeps
	logger *zap.Logger

	canvas *render.Canvas
	view   ports.MapView
	feed   *location.Feed

	// Owned by the loop.
	session      *domain.Session
	zoom         float64
	driverMarker string

	events chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	background sync.WaitGroup
	animCancel context.CancelFunc
	closeOnce  sync.Once
}

func NewNavigator(s *domain.Session, canvas *render.Canvas, feed *location.Feed, deps NavigatorDeps) *Navigator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &Navigator{
		deps:    deps,
		logger:  deps.Logger.With(zap.String("session_id", s.ID)),
		canvas:  canvas,
		view:    canvas,
		feed:    feed,
		session: s,
		zoom:    DefaultZoom,
		events:  make(chan func()),
		ctx:     obs.WithLogger(ctx, deps.Logger.With(zap.String("session_id", s.ID))),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *Navigator) ID() string { return n.session.ID }

func (n *Navigator) run() {
	defer close(n.done)
	for {
		select {
		case fn := <-n.events:
			fn()
		case <-n.ctx.Done():
			return
		}
	}
}

// do runs fn on the loop and waits for it.
func (n *Navigator) do(fn func()) error {
	ran := make(chan struct{})
	select {
	case n.events <- func() { fn(); close(ran) }:
	case <-n.ctx.Done():
		return domain.ErrSessionClosed
	}

	select {
	case <-ran:
		return nil
	case <-n.done:
		return domain.ErrSessionClosed
	}
}

// post queues fn on the loop without waiting. Dropped after Close.
func (n *Navigator) post(fn func()) {
	select {
	case n.events <- fn:
	case <-n.ctx.Done():
	}
}

// Start applies the map style and subscribes to the location feed when
// location permission is already granted.
func (n *Navigator) Start(style json.RawMessage) error {
	return n.do(func() {
		if style != nil {
			n.view.SetStyle(style)
		}
		n.subscribeIfGranted()
		n.store()
		n.publish(ports.EventSessionCreated, map[string]any{
			"location_granted": n.session.LocationGranted(),
		})
	})
}

// GrantPermissions records a permission grant and subscribes the feed once
// fine location is available.
func (n *Navigator) GrantPermissions(perms ...domain.Permission) error {
	return n.do(func() {
		n.session.Grant(perms...)
		n.session.UpdatedAt = n.deps.Now()
		n.subscribeIfGranted()
		n.store()
	})
}

func (n *Navigator) subscribeIfGranted() {
	if !n.session.LocationGranted() || n.feed.Subscribed() {
		return
	}
	n.feed.Subscribe(func(fix domain.LocationFix) {
		n.post(func() { n.handleLocation(fix) })
	})
}

// PushLocation offers a raw fix to the session's feed. It reports whether
// the fix passed the feed's interval and displacement filters.
func (n *Navigator) PushLocation(fix domain.LocationFix) (bool, error) {
	if n.ctx.Err() != nil {
		return false, domain.ErrSessionClosed
	}
	if !fix.Position.Valid() {
		return false, domain.ErrInvalidCoordinates
	}
	if !n.feed.Subscribed() {
		return false, domain.ErrLocationPermission
	}
	if fix.At.IsZero() {
		fix.At = n.deps.Now()
	}

	delivered := n.feed.Offer(fix)
	if delivered {
		// Wait for the loop to apply the fix so callers observe it.
		if err := n.do(func() {}); err != nil {
			return false, err
		}
	}
	return delivered, nil
}

func (n *Navigator) handleLocation(fix domain.LocationFix) {
	now := n.deps.Now()

	if n.session.ObserveFix(fix, now) {
		origin := *n.session.Origin
		n.zoom = OriginZoom
		n.view.MoveCamera(domain.Camera{Target: origin, Zoom: n.zoom})
		if n.driverMarker == "" {
			n.driverMarker = n.view.AddMarker(domain.Marker{Position: origin, Icon: DriverIcon})
		}
		n.logger.Info("origin fixed",
			zap.Float64("lat", origin.Lat),
			zap.Float64("lng", origin.Lng),
		)
		n.store()
		n.publish(ports.EventOriginFixed, map[string]any{"lat": origin.Lat, "lng": origin.Lng})
		return
	}

	if n.deps.AnimateMarker && n.driverMarker != "" {
		n.animateDriver(fix.Position)
	}
}

// Tap selects the destination. Taps after the first are ignored and
// reported as not accepted.
func (n *Navigator) Tap(c domain.Coordinates) (bool, error) {
	if !c.Valid() {
		return false, domain.ErrInvalidCoordinates
	}

	var accepted bool
	err := n.do(func() { accepted = n.handleTap(c) })
	return accepted, err
}

func (n *Navigator) handleTap(c domain.Coordinates) bool {
	if !n.session.SelectDestination(c, n.deps.Now()) {
		n.logger.Debug("tap ignored, destination already set")
		return false
	}

	n.view.AddMarker(domain.Marker{Position: c, Title: DestinationTitle})
	n.view.MoveCamera(domain.Camera{Target: c, Zoom: n.zoom})
	n.publish(ports.EventDestinationSelected, map[string]any{"lat": c.Lat, "lng": c.Lng})

	n.requestRoute()
	return true
}

func (n *Navigator) requestRoute() {
	now := n.deps.Now()

	if !n.session.Routable() {
		n.view.ShowNotice(NoticeSelectDestination)
		n.session.SetRoute(nil, domain.RouteSkipped, now)
		n.store()
		return
	}

	n.session.SetRoute(nil, domain.RoutePending, now)
	n.store()

	req := ports.DirectionsRequest{
		Origin:      *n.session.Origin,
		Destination: *n.session.Destination,
		Mode:        ports.TravelModeDriving,
	}

	n.background.Add(1)
	go func() {
		defer n.background.Done()
		routes, err := n.deps.Provider.GetRoutes(n.ctx, req)
		n.post(func() { n.applyRoute(routes, err) })
	}()
}

func (n *Navigator) applyRoute(routes []domain.Route, err error) {
	if n.ctx.Err() != nil {
		return
	}
	now := n.deps.Now()

	if err == nil && len(routes) == 0 {
		err = ports.ErrNoRoute
	}
	if err != nil {
		n.logger.Error("route computation failed", zap.Error(err))
		n.view.ShowNotice(NoticeRouteUnavailable)
		n.session.SetRoute(nil, domain.RouteFailed, now)
		n.store()
		n.publish(ports.EventRouteFailed, map[string]any{"error": err.Error()})
		return
	}

	route := routes[0]
	n.view.AddPolyline(domain.Polyline{
		Points: route.Points,
		Width:  RouteWidth,
		Color:  RouteColor,
	})
	n.session.SetRoute(&route, domain.RouteReady, now)

	n.logger.Info("route drawn",
		zap.String("provider", route.Provider),
		zap.Int("points", len(route.Points)),
		zap.Int("distance_m", route.DistanceMeters),
	)
	n.store()
	n.publish(ports.EventRouteDrawn, map[string]any{
		"points":     len(route.Points),
		"distance_m": route.DistanceMeters,
		"duration_s": int64(route.Duration / time.Second),
	})
}

func (n *Navigator) animateDriver(target domain.Coordinates) {
	if n.animCancel != nil {
		n.animCancel()
	}
	marker, ok := n.markerByID(n.driverMarker)
	if !ok {
		return
	}

	var path []domain.Coordinates
	if n.session.Route != nil {
		path = n.session.Route.Points
	}

	ctx, cancel := context.WithCancel(n.ctx)
	n.animCancel = cancel

	n.background.Add(1)
	go func() {
		defer n.background.Done()
		if err := n.deps.Animator.Animate(ctx, n.canvas, marker, target, path); err != nil && !errors.Is(err, context.Canceled) {
			n.logger.Warn("marker animation stopped", zap.Error(err))
		}
	}()
}

func (n *Navigator) markerByID(id string) (domain.Marker, bool) {
	for _, m := range n.canvas.Snapshot().Markers {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Marker{}, false
}

// Session returns a copy of the current session state.
func (n *Navigator) Session() (*domain.Session, error) {
	var out *domain.Session
	err := n.do(func() { out = n.session.Clone() })
	return out, err
}

// Map returns what has been drawn on the session's map.
func (n *Navigator) Map() render.Snapshot {
	return n.canvas.Snapshot()
}

// Close unsubscribes the location feed, cancels any in-flight route
// request, and stops the loop. A route still pending is stored as
// cancelled. It is safe to call more than once.
func (n *Navigator) Close() {
	n.closeOnce.Do(func() {
		n.feed.Unsubscribe()
		n.cancel()
		<-n.done
		n.background.Wait()

		// The loop has exited, so session state is ours.
		if n.session.RouteStatus == domain.RoutePending {
			n.session.SetRoute(nil, domain.RouteCancelled, n.deps.Now())
			n.store()
		}

		n.publish(ports.EventSessionClosed, nil)
		n.logger.Info("session closed")
	})
}

func (n *Navigator) store() {
	if n.deps.Repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := n.deps.Repo.SaveSession(ctx, n.session.Clone()); err != nil {
		n.logger.Warn("session snapshot not saved", zap.Error(err))
	}
}

func (n *Navigator) publish(eventType string, data map[string]any) {
	if n.deps.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	evt := ports.SessionEvent{
		Type:      eventType,
		SessionID: n.session.ID,
		At:        n.deps.Now(),
		Data:      data,
	}
	if err := n.deps.Events.Publish(ctx, evt); err != nil {
		n.logger.Warn("session event not published", zap.String("type", eventType), zap.Error(err))
	}
}
