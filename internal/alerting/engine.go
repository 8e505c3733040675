package alerting

import (
	"fmt"
	"time"

	"github.com/smukkama/fleetzone-server/internal/database"
)

const (
	lowConfidenceThreshold  = 0.4
	highConfidenceThreshold = 0.9
	milestoneFloor          = 20
	milestoneInterval       = 10
)

// Engine evaluates each incoming detection against a fixed rule set. Rules
// are independent: several can fire for one event, none deduplicate across
// events. The engine itself is stateless; the detection carries the counter
// state the milestone rules need.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate returns zero or more alerts for a detection. The caller persists
// and publishes them.
func (e *Engine) Evaluate(d *database.Detection) []*database.Alert {
	now := time.Now().UTC()
	var alerts []*database.Alert

	if d.Confidence < lowConfidenceThreshold {
		alerts = append(alerts, &database.Alert{
			CreatedAt: now,
			AlertType: database.AlertLowConfidence,
			Message:   fmt.Sprintf("Low confidence detection: %.2f", d.Confidence),
			Severity:  database.SeverityWarning,
		})
	}

	if d.Confidence > highConfidenceThreshold {
		alerts = append(alerts, &database.Alert{
			CreatedAt: now,
			AlertType: database.AlertHighConfidence,
			Message:   fmt.Sprintf("Moto detected with high confidence: %.2f", d.Confidence),
			Severity:  database.SeverityInfo,
		})
	}

	if d.TotalDetections > milestoneFloor && d.TotalDetections%milestoneInterval == 0 {
		alerts = append(alerts, &database.Alert{
			CreatedAt: now,
			AlertType: database.AlertMilestone,
			Message:   fmt.Sprintf("Milestone reached: %d detections processed", d.TotalDetections),
			Severity:  database.SeverityInfo,
		})
	}

	if d.TotalDetections == 1 {
		alerts = append(alerts, &database.Alert{
			CreatedAt: now,
			AlertType: database.AlertSystemStart,
			Message:   "FleetZone pipeline started - first detection registered",
			Severity:  database.SeverityInfo,
		})
	}

	return alerts
}
