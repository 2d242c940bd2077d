package dto

import (
	"encoding/json"
	"time"

	"github.com/peterstace/simplefeatures/geom"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type CreateSessionRequest struct {
	Permissions []string `json:"permissions"`
}

type PermissionsRequest struct {
	Granted []string `json:"granted"`
}

type PermissionRequestResponse struct {
	RequestCode int      `json:"request_code"`
	Permissions []string `json:"permissions"`
}

type RouteResponse struct {
	Provider        string        `json:"provider"`
	Summary         string        `json:"summary,omitempty"`
	EncodedPath     string        `json:"encoded_path"`
	Points          []Coordinates `json:"points"`
	DistanceMeters  int           `json:"distance_meters"`
	DurationSeconds int64         `json:"duration_seconds"`
}

type SessionResponse struct {
	ID          string         `json:"id"`
	Phase       string         `json:"phase"`
	Live        bool           `json:"live"`
	Origin      *Coordinates   `json:"origin"`
	Destination *Coordinates   `json:"destination"`
	RouteStatus string         `json:"route_status"`
	Route       *RouteResponse `json:"route,omitempty"`
	Permissions []string       `json:"permissions"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	PermissionRequest *PermissionRequestResponse `json:"permission_request,omitempty"`
}

// Lat and Lng are pointers so a missing field is not read as 0.
type LocationRequest struct {
	Lat      *float64   `json:"lat"`
	Lng      *float64   `json:"lng"`
	Accuracy float64    `json:"accuracy"`
	Bearing  float64    `json:"bearing"`
	Speed    float64    `json:"speed"`
	At       *time.Time `json:"at"`
}

type LocationResponse struct {
	Delivered bool `json:"delivered"`
}

type TapRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type TapResponse struct {
	Accepted bool `json:"accepted"`
}

type CameraResponse struct {
	Target Coordinates `json:"target"`
	Zoom   float64     `json:"zoom"`
}

type NoticeResponse struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type MapResponse struct {
	Camera   *CameraResponse                `json:"camera"`
	Notices  []NoticeResponse               `json:"notices"`
	Style    json.RawMessage                `json:"style,omitempty"`
	Features geom.GeoJSONFeatureCollection `json:"features"`
}
