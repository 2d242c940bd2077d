package location

import (
	"context"
	"encoding/json"
	"fmt"
	"navigation-session-service/internal/domain"
	"os"
	"time"
)

type fixRecord struct {
	Lat      float64    `json:"lat"`
	Lng      float64    `json:"lng"`
	Accuracy float64    `json:"accuracy"`
	Bearing  float64    `json:"bearing"`
	Speed    float64    `json:"speed"`
	At       *time.Time `json:"at"`
}

// ReplaySource emits recorded fixes, one per interval.
type ReplaySource struct {
	fixes []domain.LocationFix
	now   func() time.Time
}

func NewReplaySource(fixes []domain.LocationFix) *ReplaySource {
	return &ReplaySource{fixes: fixes, now: time.Now}
}

// LoadReplayFile reads a JSON array of {lat, lng, accuracy, bearing, speed, at}.
func LoadReplayFile(path string) (*ReplaySource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load replay: read %q: %w", path, err)
	}

	var records []fixRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("load replay: parse json: %w", err)
	}

	fixes := make([]domain.LocationFix, 0, len(records))
	for i, r := range records {
		c := domain.Coordinates{Lat: r.Lat, Lng: r.Lng}
		if !c.Valid() {
			return nil, fmt.Errorf("load replay: fix %d: %w", i+1, domain.ErrInvalidCoordinates)
		}
		fix := domain.LocationFix{
			Position:       c,
			AccuracyMeters: r.Accuracy,
			Bearing:        r.Bearing,
			SpeedMPS:       r.Speed,
		}
		if r.At != nil {
			fix.At = *r.At
		}
		fixes = append(fixes, fix)
	}

	return NewReplaySource(fixes), nil
}

func (r *ReplaySource) Len() int { return len(r.fixes) }

// Run emits fixes to sink every interval until exhausted or ctx is done.
// The first fix is emitted immediately. Fixes without a timestamp are
// stamped with the emission time.
func (r *ReplaySource) Run(ctx context.Context, interval time.Duration, sink func(domain.LocationFix)) error {
	if len(r.fixes) == 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i, fix := range r.fixes {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		if fix.At.IsZero() {
			fix.At = r.now()
		}
		sink(fix)
	}
	return nil
}
