package location

import (
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/geo"
	"sync"
	"time"
)

type Priority int

const (
	PriorityHighAccuracy Priority = iota
	PriorityBalancedPower
)

// Fixes less accurate than this are dropped under PriorityHighAccuracy.
const highAccuracyLimitMeters = 100.0

// Request describes how often and how precisely fixes are wanted.
type Request struct {
	Interval             time.Duration
	FastestInterval      time.Duration
	SmallestDisplacement float64
	Priority             Priority
}

func DefaultRequest() Request {
	return Request{
		Interval:             10 * time.Second,
		FastestInterval:      5 * time.Second,
		SmallestDisplacement: 10,
		Priority:             PriorityHighAccuracy,
	}
}

type Callback func(fix domain.LocationFix)

// Feed filters raw fixes according to a Request and delivers the
// survivors to at most one subscriber.
// There is no retry; a dropped fix is gone.
type Feed struct {
	req Request

	mu   sync.Mutex
	cb   Callback
	last *domain.LocationFix
}

func NewFeed(req Request) *Feed {
	return &Feed{req: req}
}

// Subscribe installs cb, replacing any previous subscriber.
func (f *Feed) Subscribe(cb Callback) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cb = cb
}

func (f *Feed) Unsubscribe() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cb = nil
}

func (f *Feed) Subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb != nil
}

// Offer passes fix to the subscriber if it survives filtering.
func (f *Feed) Offer(fix domain.LocationFix) bool {
	f.mu.Lock()
	cb := f.cb
	if cb == nil || !f.accept(fix) {
		f.mu.Unlock()
		return false
	}
	accepted := fix
	f.last = &accepted
	f.mu.Unlock()

	cb(fix)
	return true
}

func (f *Feed) accept(fix domain.LocationFix) bool {
	if !fix.Position.Valid() {
		return false
	}
	if f.req.Priority == PriorityHighAccuracy && fix.AccuracyMeters > highAccuracyLimitMeters {
		return false
	}
	if f.last == nil {
		return true
	}
	if !fix.At.IsZero() && !f.last.At.IsZero() && fix.At.Sub(f.last.At) < f.req.FastestInterval {
		return false
	}
	return geo.Distance(f.last.Position, fix.Position) >= f.req.SmallestDisplacement
}
