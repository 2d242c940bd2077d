package ports

import (
	"encoding/json"
	"navigation-session-service/internal/domain"
)

// Port: the map surface a session draws on.
type MapView interface {
	MoveCamera(cam domain.Camera)
	AddMarker(m domain.Marker) string
	AddPolyline(p domain.Polyline) string
	ShowNotice(msg string)
	SetStyle(style json.RawMessage)
}
