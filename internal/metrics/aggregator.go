package metrics

import (
	"sync"

	"github.com/smukkama/fleetzone-server/internal/database"
)

// IdentityKey deduplicates "unique moto" sightings. The key is the exact
// (class, bbox) pair: two detections with identical class and identical
// coordinates are the same identity. Deliberately position-exact, not
// geometry-tolerant.
type IdentityKey struct {
	ClassID        int
	X1, Y1, X2, Y2 int
}

// Aggregator owns the rolling fps window, the identity set and the running
// detection total. These are the only shared mutable resources in the
// pipeline and are mutated exclusively through Observe.
type Aggregator struct {
	mu         sync.Mutex
	windowSize int
	fpsWindow  []float64
	identities map[IdentityKey]struct{}
	total      int64
}

func NewAggregator(windowSize int) *Aggregator {
	return &Aggregator{
		windowSize: windowSize,
		fpsWindow:  make([]float64, 0, windowSize),
		identities: make(map[IdentityKey]struct{}),
	}
}

// Observe records one detection and stamps it with the updated counters:
// total_detections and unique_motos are filled from the aggregator's own
// state, detection_rate stays whatever the capture loop reported. The fps
// value joins the rolling window, evicting the oldest entry on overflow.
func (a *Aggregator) Observe(d *database.Detection) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++

	key := IdentityKey{
		ClassID: d.ClassID,
		X1:      d.X1,
		Y1:      d.Y1,
		X2:      d.X2,
		Y2:      d.Y2,
	}
	a.identities[key] = struct{}{}

	a.fpsWindow = append(a.fpsWindow, d.FPS)
	if len(a.fpsWindow) > a.windowSize {
		a.fpsWindow = a.fpsWindow[1:]
	}

	d.TotalDetections = a.total
	d.UniqueMotos = int64(len(a.identities))
}

// AvgFPS returns the mean of the most recent min(windowSize, count) fps
// values, 0 when nothing has been observed.
func (a *Aggregator) AvgFPS() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.fpsWindow) == 0 {
		return 0
	}

	var sum float64
	for _, fps := range a.fpsWindow {
		sum += fps
	}
	return sum / float64(len(a.fpsWindow))
}

// TotalDetections returns the running detection total for this session.
func (a *Aggregator) TotalDetections() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

// UniqueMotos returns the number of distinct identity keys observed.
func (a *Aggregator) UniqueMotos() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int64(len(a.identities))
}

// Snapshot is the derived metrics view returned by GET /metrics.
type Snapshot struct {
	TotalEvents      int64   `json:"total_events"`
	UniqueClasses    int64   `json:"unique_classes"`
	UniqueMotos      int64   `json:"unique_motos"`
	AvgFPSLast60     float64 `json:"avg_fps_last_60"`
	AvgDetectionRate float64 `json:"avg_detection_rate"`
	ActiveAlerts     int64   `json:"active_alerts"`
}
