package protocol

import (
	"time"

	"github.com/smukkama/fleetzone-server/internal/database"
)

// Inbound payloads from the capture loop and the IoT feeders. The feed is
// internal and coarsely trusted: missing numeric fields default to zero,
// missing strings to "unknown", a short or absent bbox is zero-padded.
// Normalization never rejects a syntactically valid payload.

// DetectionMetrics is the optional metrics block attached by the capture
// loop. avg_fps and detection_rate are wall-clock session state owned by the
// capture loop and are stored verbatim; the detection totals it reports are
// informational only; the aggregator owns the authoritative counters.
type DetectionMetrics struct {
	AvgFPS          float64 `json:"avg_fps"`
	TotalDetections int64   `json:"total_detections"`
	UniqueMotos     int64   `json:"unique_motos"`
	DetectionRate   float64 `json:"detection_rate"`
}

// DetectionSubmission is the body of POST /detections.
type DetectionSubmission struct {
	Frame      int               `json:"frame"`
	ClassID    int               `json:"class"`
	ClassName  string            `json:"class_name"`
	Confidence float64           `json:"confidence"`
	BBox       []int             `json:"bbox"`
	Area       int               `json:"area"`
	Metrics    *DetectionMetrics `json:"metrics"`
}

// Normalize produces a fully-typed detection from a permissive submission.
// now becomes the server-assigned created_at. The aggregator counters
// (total_detections, unique_motos) are filled in later, at write time.
func (s *DetectionSubmission) Normalize(now time.Time) *database.Detection {
	d := &database.Detection{
		CreatedAt:  now,
		Frame:      s.Frame,
		ClassID:    s.ClassID,
		ClassName:  s.ClassName,
		Confidence: s.Confidence,
		Area:       s.Area,
	}

	if d.Frame < 0 {
		d.Frame = 0
	}
	if d.ClassName == "" {
		d.ClassName = "unknown"
	}

	bbox := make([]int, 4)
	copy(bbox, s.BBox)
	d.X1, d.Y1, d.X2, d.Y2 = bbox[0], bbox[1], bbox[2], bbox[3]

	if d.Area == 0 {
		d.Area = (d.X2 - d.X1) * (d.Y2 - d.Y1)
	}

	if s.Metrics != nil {
		d.FPS = s.Metrics.AvgFPS
		d.DetectionRate = s.Metrics.DetectionRate
	}
	if d.FPS < 0 {
		d.FPS = 0
	}

	return d
}

// SensorTelemetry is the body of POST /iot/sensor.
type SensorTelemetry struct {
	SensorID       string  `json:"sensor_id"`
	MotoID         string  `json:"moto_id"`
	Location       string  `json:"location"`
	Timestamp      string  `json:"timestamp"`
	IsActive       bool    `json:"is_active"`
	BatteryLevel   float64 `json:"battery_level"`
	SignalStrength float64 `json:"signal_strength"`
	Temperature    float64 `json:"temperature"`
	Humidity       float64 `json:"humidity"`
	Vibration      float64 `json:"vibration"`
}

// Normalize produces the device row for a sensor report. Sensor status is
// derived from is_active.
func (s *SensorTelemetry) Normalize(now time.Time) *database.Device {
	ts := parseTimestamp(s.Timestamp, now)

	status := database.DeviceStatusIdle
	if s.IsActive {
		status = database.DeviceStatusActive
	}

	battery := s.BatteryLevel
	signal := s.SignalStrength
	temp := s.Temperature
	humidity := s.Humidity
	vibration := s.Vibration

	return &database.Device{
		DeviceID:       orUnknown(s.SensorID),
		DeviceType:     database.DeviceTypeSensor,
		Location:       orUnknown(s.Location),
		Status:         status,
		CreatedAt:      ts,
		LastSeen:       ts,
		BatteryLevel:   &battery,
		SignalStrength: &signal,
		Temperature:    &temp,
		Humidity:       &humidity,
		Vibration:      &vibration,
	}
}

// ActuatorTelemetry is the body of POST /iot/actuator.
type ActuatorTelemetry struct {
	ActuatorID  string  `json:"actuator_id"`
	Location    string  `json:"location"`
	Timestamp   string  `json:"timestamp"`
	Status      string  `json:"status"`
	LastAction  string  `json:"last_action"`
	PowerLevel  float64 `json:"power_level"`
	Temperature float64 `json:"temperature"`
}

// Normalize produces the device row for an actuator report. Actuator status
// is taken verbatim from the caller.
func (a *ActuatorTelemetry) Normalize(now time.Time) *database.Device {
	ts := parseTimestamp(a.Timestamp, now)

	status := a.Status
	if status == "" {
		status = database.DeviceStatusIdle
	}

	power := a.PowerLevel
	temp := a.Temperature

	d := &database.Device{
		DeviceID:    orUnknown(a.ActuatorID),
		DeviceType:  database.DeviceTypeActuator,
		Location:    orUnknown(a.Location),
		Status:      status,
		CreatedAt:   ts,
		LastSeen:    ts,
		PowerLevel:  &power,
		Temperature: &temp,
	}
	if a.LastAction != "" {
		action := a.LastAction
		d.LastAction = &action
	}
	return d
}

func parseTimestamp(value string, now time.Time) time.Time {
	if value == "" {
		return now
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return now
	}
	return ts
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
