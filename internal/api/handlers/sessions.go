package handlers

import (
	"navigation-session-service/internal/api/dto"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/platform/obs"
	"navigation-session-service/internal/render"
	"navigation-session-service/internal/services"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
)

type SessionHandler struct {
	Manager *services.Manager
}

// Create starts a navigation session. Sessions created without fine
// location access get a permission request back and wait for a grant.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.CreateSessionRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	perms, ok := parsePermissions(req.Permissions)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "unknown permission")
		return
	}

	nav, permReq, err := h.Manager.Create(perms...)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	s, err := nav.Session()
	if err != nil {
		writeSessionError(w, r, err)
		return
	}

	res := toSessionResponse(s, true)
	if permReq != nil {
		res.PermissionRequest = &dto.PermissionRequestResponse{
			RequestCode: permReq.RequestCode,
			Permissions: permissionNames(permReq.Permissions),
		}
	}
	writeJSON(w, r, http.StatusCreated, res)
}

// Session serves GET and DELETE on /sessions/{id}.
func (h *SessionHandler) Session(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet, http.MethodDelete) {
		return
	}
	id := r.PathValue("id")

	if r.Method == http.MethodDelete {
		if err := h.Manager.Close(r.Context(), id); err != nil {
			writeSessionError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s, live, err := h.Manager.Lookup(r.Context(), id)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toSessionResponse(s, live))
}

func (h *SessionHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	nav, err := h.Manager.Get(r.PathValue("id"))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}

	var req dto.PermissionsRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	perms, ok := parsePermissions(req.Granted)
	if !ok || len(perms) == 0 {
		writeError(w, r, http.StatusBadRequest, "granted must list known permissions")
		return
	}

	if err := nav.GrantPermissions(perms...); err != nil {
		writeSessionError(w, r, err)
		return
	}
	s, err := nav.Session()
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toSessionResponse(s, true))
}

// Locations accepts one raw device fix.
func (h *SessionHandler) Locations(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	nav, err := h.Manager.Get(r.PathValue("id"))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}

	var req dto.LocationRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(w, r, http.StatusBadRequest, "lat and lng are required")
		return
	}

	fix := domain.LocationFix{
		Position:       domain.Coordinates{Lat: *req.Lat, Lng: *req.Lng},
		AccuracyMeters: req.Accuracy,
		Bearing:        req.Bearing,
		SpeedMPS:       req.Speed,
	}
	if req.At != nil {
		fix.At = *req.At
	}

	delivered, err := nav.PushLocation(fix)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.LocationResponse{Delivered: delivered})
}

// Taps selects the destination. Only the first tap of a session counts.
func (h *SessionHandler) Taps(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	nav, err := h.Manager.Get(r.PathValue("id"))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}

	var req dto.TapRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(w, r, http.StatusBadRequest, "lat and lng are required")
		return
	}

	accepted, err := nav.Tap(domain.Coordinates{Lat: *req.Lat, Lng: *req.Lng})
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	if !accepted {
		obs.Logger(r.Context()).Debug("tap discarded", zap.String("session_id", nav.ID()))
	}
	writeJSON(w, r, http.StatusOK, dto.TapResponse{Accepted: accepted})
}

// Map returns the session's overlays as a GeoJSON feature collection.
func (h *SessionHandler) Map(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	nav, err := h.Manager.Get(r.PathValue("id"))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	res, err := toMapResponse(nav.Map())
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func parsePermissions(names []string) ([]domain.Permission, bool) {
	out := make([]domain.Permission, 0, len(names))
	for _, n := range names {
		p, ok := domain.ParsePermission(n)
		if !ok {
			return nil, false
		}
		out = append(out, p)
	}
	return out, true
}

func permissionNames(perms []domain.Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out
}

func toCoordinates(c *domain.Coordinates) *dto.Coordinates {
	if c == nil {
		return nil
	}
	return &dto.Coordinates{Lat: c.Lat, Lng: c.Lng}
}

func toSessionResponse(s *domain.Session, live bool) dto.SessionResponse {
	granted := make([]string, 0, len(s.Permissions))
	for p, ok := range s.Permissions {
		if ok {
			granted = append(granted, string(p))
		}
	}
	sort.Strings(granted)

	res := dto.SessionResponse{
		ID:          s.ID,
		Phase:       s.Phase.String(),
		Live:        live,
		Origin:      toCoordinates(s.Origin),
		Destination: toCoordinates(s.Destination),
		RouteStatus: string(s.RouteStatus),
		Permissions: granted,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}

	if s.Route != nil {
		points := make([]dto.Coordinates, 0, len(s.Route.Points))
		for _, p := range s.Route.Points {
			points = append(points, dto.Coordinates{Lat: p.Lat, Lng: p.Lng})
		}
		res.Route = &dto.RouteResponse{
			Provider:        s.Route.Provider,
			Summary:         s.Route.Summary,
			EncodedPath:     s.Route.EncodedPath,
			Points:          points,
			DistanceMeters:  s.Route.DistanceMeters,
			DurationSeconds: int64(s.Route.Duration / time.Second),
		}
	}
	return res
}

func toMapResponse(snap render.Snapshot) (dto.MapResponse, error) {
	features, err := snap.FeatureCollection()
	if err != nil {
		return dto.MapResponse{}, err
	}
	res := dto.MapResponse{
		Notices:  make([]dto.NoticeResponse, 0, len(snap.Notices)),
		Style:    snap.Style,
		Features: features,
	}
	if snap.Camera != nil {
		res.Camera = &dto.CameraResponse{
			Target: dto.Coordinates{Lat: snap.Camera.Target.Lat, Lng: snap.Camera.Target.Lng},
			Zoom:   snap.Camera.Zoom,
		}
	}
	for _, n := range snap.Notices {
		res.Notices = append(res.Notices, dto.NoticeResponse{Message: n.Message, At: n.At})
	}
	return res, nil
}
