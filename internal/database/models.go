package database

import (
	"encoding/json"
	"time"
)

// Detection is one stored object-detection event. Rows are immutable once
// written; identity is the storage-assigned ID.
type Detection struct {
	ID              int64     `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Frame           int       `json:"frame"`
	ClassID         int       `json:"class"`
	ClassName       string    `json:"class_name"`
	Confidence      float64   `json:"confidence"`
	X1              int       `json:"x1"`
	Y1              int       `json:"y1"`
	X2              int       `json:"x2"`
	Y2              int       `json:"y2"`
	Area            int       `json:"area"`
	FPS             float64   `json:"fps"`
	TotalDetections int64     `json:"total_detections"`
	UniqueMotos     int64     `json:"unique_motos"`
	DetectionRate   float64   `json:"detection_rate"`
}

// Alert types fired by the alert engine.
const (
	AlertLowConfidence  = "LOW_CONFIDENCE"
	AlertHighConfidence = "HIGH_CONFIDENCE"
	AlertMilestone      = "MILESTONE"
	AlertSystemStart    = "SYSTEM_START"
)

const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Alert is created by the alert engine and mutated only by Resolve.
type Alert struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	AlertType string    `json:"alert_type"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Resolved  bool      `json:"resolved"`
}

const (
	DeviceTypeSensor   = "sensor"
	DeviceTypeActuator = "actuator"
)

const (
	DeviceStatusActive = "active"
	DeviceStatusIdle   = "idle"
)

// Device is the latest-state row for an IoT sensor or actuator. Each
// telemetry report overwrites the previous snapshot; history lives in
// DeviceEvent rows only. Telemetry fields are pointers because sensors and
// actuators report disjoint subsets.
type Device struct {
	DeviceID       string    `json:"device_id"`
	DeviceType     string    `json:"device_type"`
	Location       string    `json:"location"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	LastSeen       time.Time `json:"last_seen"`
	BatteryLevel   *float64  `json:"battery_level,omitempty"`
	SignalStrength *float64  `json:"signal_strength,omitempty"`
	Temperature    *float64  `json:"temperature,omitempty"`
	Humidity       *float64  `json:"humidity,omitempty"`
	Vibration      *float64  `json:"vibration,omitempty"`
	PowerLevel     *float64  `json:"power_level,omitempty"`
	LastAction     *string   `json:"last_action,omitempty"`
}

const (
	DeviceEventSensorData   = "sensor_data"
	DeviceEventActuatorData = "actuator_data"
)

// DeviceEvent is one append-only audit entry of raw device telemetry.
// Processed is reserved for future consumers and always false at creation.
type DeviceEvent struct {
	ID        int64           `json:"id"`
	DeviceID  string          `json:"device_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"event_data"`
	Timestamp time.Time       `json:"timestamp"`
	Processed bool            `json:"processed"`
}
