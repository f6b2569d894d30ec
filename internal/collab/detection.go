// Package collab holds the collaborators the chat core reads from or
// notifies: live object detections, vehicle telemetry and outbound
// notifications.
package collab

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultDetectionExpiry = 10 * time.Second
	// DefaultSessionRetention is how long a session that stops reporting
	// keeps its last snapshot before the sweep drops it.
	DefaultSessionRetention = 5 * time.Minute
)

type Detection struct {
	Name       string    `json:"name"`
	Confidence float64   `json:"confidence"`
	BBox       []float64 `json:"bbox"`
}

type snapshot struct {
	detections []Detection
	at         time.Time
}

// DetectionStore keeps the latest detections per session. Snapshots older
// than Expiry read as empty; sessions idle for the retention period are
// swept in the background.
type DetectionStore struct {
	cache  *expirable.LRU[string, snapshot]
	expiry time.Duration

	Now func() time.Time
}

func NewDetectionStore(capacity int, expiry, retention time.Duration) *DetectionStore {
	if expiry <= 0 {
		expiry = DefaultDetectionExpiry
	}
	if retention <= 0 {
		retention = DefaultSessionRetention
	}
	return &DetectionStore{
		cache:  expirable.NewLRU[string, snapshot](capacity, nil, retention),
		expiry: expiry,
		Now:    time.Now,
	}
}

func (s *DetectionStore) Update(session string, detections []Detection) {
	s.cache.Add(session, snapshot{
		detections: append([]Detection(nil), detections...),
		at:         s.Now(),
	})
}

// Current returns the session's detections, or nil if none are fresh.
func (s *DetectionStore) Current(session string) []Detection {
	if session == "" {
		return nil
	}
	snap, ok := s.cache.Get(session)
	if !ok || s.Now().Sub(snap.at) > s.expiry {
		return nil
	}
	return append([]Detection(nil), snap.detections...)
}

// Find returns the first current detection whose name contains object,
// ignoring case.
func (s *DetectionStore) Find(session, object string) (Detection, bool) {
	object = strings.ToLower(object)
	for _, d := range s.Current(session) {
		if strings.Contains(strings.ToLower(d.Name), object) {
			return d, true
		}
	}
	return Detection{}, false
}

// Count counts current detections matching object; an empty object counts all.
func (s *DetectionStore) Count(session, object string) int {
	dets := s.Current(session)
	if object == "" {
		return len(dets)
	}
	object = strings.ToLower(object)
	n := 0
	for _, d := range dets {
		if strings.Contains(strings.ToLower(d.Name), object) {
			n++
		}
	}
	return n
}

func (s *DetectionStore) Summary(session string) string {
	dets := s.Current(session)
	if len(dets) == 0 {
		return "No objects detected in current field of view"
	}

	counts := make(map[string]int)
	var order []string
	for _, d := range dets {
		if counts[d.Name] == 0 {
			order = append(order, d.Name)
		}
		counts[d.Name]++
	}

	parts := make([]string, 0, len(order))
	for _, name := range order {
		if counts[name] == 1 {
			parts = append(parts, "1 "+name)
		} else {
			parts = append(parts, fmt.Sprintf("%d %ss", counts[name], name))
		}
	}
	return "Currently seeing: " + strings.Join(parts, ", ")
}

type DetectionStats struct {
	ActiveSessions  int `json:"active_sessions"`
	TotalDetections int `json:"total_detections"`
}

func (s *DetectionStore) Stats() DetectionStats {
	keys := s.cache.Keys()
	stats := DetectionStats{ActiveSessions: len(keys)}
	for _, k := range keys {
		if snap, ok := s.cache.Peek(k); ok {
			stats.TotalDetections += len(snap.detections)
		}
	}
	return stats
}
