package metrics

import (
	"math"
	"testing"

	"github.com/smukkama/fleetzone-server/internal/database"
)

func TestAggregator_ObserveStampsCounters(t *testing.T) {
	agg := NewAggregator(60)

	d := &database.Detection{ClassID: 3, X1: 10, Y1: 20, X2: 110, Y2: 220, FPS: 30}
	agg.Observe(d)

	if d.TotalDetections != 1 {
		t.Errorf("Expected total_detections 1, got %d", d.TotalDetections)
	}
	if d.UniqueMotos != 1 {
		t.Errorf("Expected unique_motos 1, got %d", d.UniqueMotos)
	}
}

func TestAggregator_UniqueMotosExactKey(t *testing.T) {
	agg := NewAggregator(60)

	// Same class and same bbox twice is one identity.
	agg.Observe(&database.Detection{ClassID: 3, X1: 10, Y1: 20, X2: 110, Y2: 220})
	agg.Observe(&database.Detection{ClassID: 3, X1: 10, Y1: 20, X2: 110, Y2: 220})
	// Different bbox is a second identity.
	last := &database.Detection{ClassID: 3, X1: 11, Y1: 20, X2: 110, Y2: 220}
	agg.Observe(last)

	if agg.UniqueMotos() != 2 {
		t.Errorf("Expected 2 unique motos, got %d", agg.UniqueMotos())
	}
	if agg.TotalDetections() != 3 {
		t.Errorf("Expected 3 total detections, got %d", agg.TotalDetections())
	}
	if last.UniqueMotos != 2 {
		t.Errorf("Expected stamped unique_motos 2, got %d", last.UniqueMotos)
	}
}

func TestAggregator_AvgFPSEmpty(t *testing.T) {
	agg := NewAggregator(60)

	if got := agg.AvgFPS(); got != 0 {
		t.Errorf("Expected avg fps 0 with no observations, got %f", got)
	}
}

func TestAggregator_AvgFPSRollingWindow(t *testing.T) {
	agg := NewAggregator(60)

	// 65 observations with fps 1..65: only 6..65 stay in the window.
	for i := 1; i <= 65; i++ {
		agg.Observe(&database.Detection{ClassID: 3, X1: i, FPS: float64(i)})
	}

	want := 35.5
	if got := agg.AvgFPS(); math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected avg fps %.1f, got %f", want, got)
	}
	if agg.TotalDetections() != 65 {
		t.Errorf("Expected 65 total detections, got %d", agg.TotalDetections())
	}
}

func TestAggregator_TotalMonotonic(t *testing.T) {
	agg := NewAggregator(60)

	var prev int64
	for i := 0; i < 10; i++ {
		d := &database.Detection{ClassID: 3, X1: 5, Y1: 5, X2: 6, Y2: 6}
		agg.Observe(d)
		if d.TotalDetections <= prev {
			t.Fatalf("Total went from %d to %d", prev, d.TotalDetections)
		}
		prev = d.TotalDetections
	}
}
