package services

import (
	"context"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/geo"
	"time"
)

const (
	DefaultAnimationDuration = 3 * time.Second
	DefaultFrameInterval     = 100 * time.Millisecond
	DefaultOnPathTolerance   = 50.0
)

// MarkerMover is the part of the map surface the animator drives.
type MarkerMover interface {
	MoveMarker(id string, pos domain.Coordinates, rotation float64) bool
}

type AnimationFrame struct {
	Fraction float64
	Position domain.Coordinates
	Rotation float64
}

// MarkerAnimator slides a marker toward a target along the great circle
// and turns it toward the travel heading. Zero values fall back to the
// defaults above.
type MarkerAnimator struct {
	Duration        time.Duration
	FrameInterval   time.Duration
	OnPathTolerance float64

	// OnPath is called when the target lies on the drawn route.
	// Nil means nothing happens.
	OnPath func(target domain.Coordinates)
}

func (a MarkerAnimator) duration() time.Duration {
	if a.Duration <= 0 {
		return DefaultAnimationDuration
	}
	return a.Duration
}

func (a MarkerAnimator) frameInterval() time.Duration {
	if a.FrameInterval <= 0 {
		return DefaultFrameInterval
	}
	return a.FrameInterval
}

func (a MarkerAnimator) tolerance() float64 {
	if a.OnPathTolerance <= 0 {
		return DefaultOnPathTolerance
	}
	return a.OnPathTolerance
}

// Frames returns the positions the marker passes through, first frame at
// the marker's current position and last frame at target.
func (a MarkerAnimator) Frames(marker domain.Marker, target domain.Coordinates) []AnimationFrame {
	steps := int(a.duration() / a.frameInterval())
	if steps < 1 {
		steps = 1
	}

	start := marker.Position
	startRotation := marker.Rotation
	bearing := geo.Heading(start, target)

	frames := make([]AnimationFrame, 0, steps+1)
	for i := 0; i <= steps; i++ {
		v := float64(i) / float64(steps)
		rot := startRotation
		if v > 0 {
			rot = v*bearing + (1-v)*startRotation
		}
		frames = append(frames, AnimationFrame{
			Fraction: v,
			Position: geo.Interpolate(start, target, v),
			Rotation: rot,
		})
	}
	return frames
}

// OnRoute reports whether target is within the tolerance of path.
func (a MarkerAnimator) OnRoute(target domain.Coordinates, path []domain.Coordinates) bool {
	return geo.IsLocationOnPath(target, path, a.tolerance())
}

// Animate plays the frames on view, one per frame interval. It returns
// ctx.Err() if cancelled before the last frame.
func (a MarkerAnimator) Animate(ctx context.Context, view MarkerMover, marker domain.Marker, target domain.Coordinates, path []domain.Coordinates) error {
	if len(path) > 0 && a.OnRoute(target, path) && a.OnPath != nil {
		a.OnPath(target)
	}

	ticker := time.NewTicker(a.frameInterval())
	defer ticker.Stop()

	for _, f := range a.Frames(marker, target) {
		view.MoveMarker(marker.ID, f.Position, f.Rotation)
		if f.Fraction >= 1 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
