package render

import (
	"encoding/json"
	"fmt"
	"navigation-session-service/internal/domain"
	"sync"
	"time"
)

// Notice is a short user-facing message shown over the map.
type Notice struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Canvas is an in-memory map surface. It records overlays in draw order
// and is safe for concurrent use.
type Canvas struct {
	mu        sync.RWMutex
	camera    *domain.Camera
	markers   []domain.Marker
	polylines []domain.Polyline
	notices   []Notice
	style     json.RawMessage
	seq       int
	now       func() time.Time
}

func NewCanvas() *Canvas {
	return &Canvas{now: time.Now}
}

func (c *Canvas) nextID(kind string) string {
	c.seq++
	return fmt.Sprintf("%s-%d", kind, c.seq)
}

func (c *Canvas) MoveCamera(cam domain.Camera) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.camera = &cam
}

func (c *Canvas) AddMarker(m domain.Marker) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m.ID == "" {
		m.ID = c.nextID("marker")
	}
	c.markers = append(c.markers, m)
	return m.ID
}

// MoveMarker repositions an existing marker. It reports false for unknown IDs.
func (c *Canvas) MoveMarker(id string, pos domain.Coordinates, rotation float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.markers {
		if c.markers[i].ID == id {
			c.markers[i].Position = pos
			c.markers[i].Rotation = rotation
			return true
		}
	}
	return false
}

func (c *Canvas) AddPolyline(p domain.Polyline) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.ID == "" {
		p.ID = c.nextID("polyline")
	}
	p.Points = append([]domain.Coordinates(nil), p.Points...)
	c.polylines = append(c.polylines, p)
	return p.ID
}

func (c *Canvas) ShowNotice(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, Notice{Message: msg, At: c.now()})
}

func (c *Canvas) SetStyle(style json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.style = style
}

// Snapshot returns a copy of everything drawn so far.
func (c *Canvas) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Markers:   append([]domain.Marker(nil), c.markers...),
		Polylines: make([]domain.Polyline, 0, len(c.polylines)),
		Notices:   append([]Notice(nil), c.notices...),
		Style:     c.style,
	}
	if c.camera != nil {
		cam := *c.camera
		s.Camera = &cam
	}
	for _, p := range c.polylines {
		p.Points = append([]domain.Coordinates(nil), p.Points...)
		s.Polylines = append(s.Polylines, p)
	}
	return s
}
