package collab

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNoTelemetry = errors.New("no telemetry available")

// Telemetry is a flat snapshot of the vehicle's sensors.
type Telemetry struct {
	Battery            int       `json:"battery"`
	TemperatureRange   string    `json:"temperature_range"`
	LowestTemperature  int       `json:"lowest_temperature"`
	HighestTemperature int       `json:"highest_temperature"`
	Height             int       `json:"height"`
	Speed              int       `json:"speed"`
	FlightTime         int       `json:"flight_time"`
	Barometer          float64   `json:"barometer"`
	ReportedAt         time.Time `json:"reported_at"`
}

type TelemetrySource interface {
	Snapshot(ctx context.Context) (*Telemetry, error)
}

// LatestTelemetry holds the last snapshot pushed by the vehicle bridge.
// Snapshots older than MaxAge are reported as unavailable.
type LatestTelemetry struct {
	mu     sync.RWMutex
	latest *Telemetry
	MaxAge time.Duration

	Now func() time.Time
}

func NewLatestTelemetry(maxAge time.Duration) *LatestTelemetry {
	return &LatestTelemetry{MaxAge: maxAge, Now: time.Now}
}

func (l *LatestTelemetry) Update(t Telemetry) {
	if t.ReportedAt.IsZero() {
		t.ReportedAt = l.Now()
	}
	l.mu.Lock()
	l.latest = &t
	l.mu.Unlock()
}

func (l *LatestTelemetry) Snapshot(ctx context.Context) (*Telemetry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.latest == nil {
		return nil, ErrNoTelemetry
	}
	if l.MaxAge > 0 && l.Now().Sub(l.latest.ReportedAt) > l.MaxAge {
		return nil, ErrNoTelemetry
	}
	t := *l.latest
	return &t, nil
}
