package collab

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestDetectionStore(now *time.Time) *DetectionStore {
	s := NewDetectionStore(16, 0, time.Hour)
	s.Now = func() time.Time { return *now }
	return s
}

func TestDetectionStoreStaleness(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	now := start
	s := newTestDetectionStore(&now)

	s.Update("alice", []Detection{{Name: "person", Confidence: 0.9}})

	now = start.Add(10 * time.Second)
	assert.Len(t, s.Current("alice"), 1)

	now = start.Add(11 * time.Second)
	assert.Empty(t, s.Current("alice"))
	assert.Empty(t, s.Current(""))
	assert.Empty(t, s.Current("bob"))
}

func TestDetectionStoreQueries(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s := newTestDetectionStore(&now)

	s.Update("alice", []Detection{
		{Name: "person"}, {Name: "Cup"}, {Name: "person"}, {Name: "dining table"},
	})

	d, ok := s.Find("alice", "cup")
	assert.True(t, ok)
	assert.Equal(t, "Cup", d.Name)

	_, ok = s.Find("alice", "dog")
	assert.False(t, ok)

	assert.Equal(t, 2, s.Count("alice", "Person"))
	assert.Equal(t, 4, s.Count("alice", ""))
	assert.Equal(t, "Currently seeing: 2 persons, 1 Cup, 1 dining table", s.Summary("alice"))
	assert.Equal(t, "No objects detected in current field of view", s.Summary("bob"))

	assert.Equal(t, DetectionStats{ActiveSessions: 1, TotalDetections: 4}, s.Stats())
}

func TestDetectionStoreCopiesInput(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s := newTestDetectionStore(&now)

	in := []Detection{{Name: "person"}}
	s.Update("alice", in)
	in[0].Name = "changed"

	assert.Equal(t, "person", s.Current("alice")[0].Name)
}
