package database

// Store is the durable record of detections, alerts and device telemetry.
//
// Detections and device events are append-only: once an append returns
// without error the row is visible to every subsequent read, and no update
// or delete path exists for it. Alerts are mutated only through
// ResolveAlert. Devices are upserted whole.
type Store interface {
	// AppendDetection stores a detection and returns its assigned id.
	// A failure here must propagate to the caller; an unacknowledged
	// write is never silently dropped.
	AppendDetection(d *Detection) (int64, error)
	// RecentDetections returns the newest limit detections, newest first.
	RecentDetections(limit int) ([]*Detection, error)
	CountDetections() (int64, error)
	// CountDistinctClasses counts distinct class names across all
	// stored detections.
	CountDistinctClasses() (int64, error)
	// AvgDetectionRate averages all positive detection_rate values.
	// Returns 0 when no positive samples exist.
	AvgDetectionRate() (float64, error)

	InsertAlert(a *Alert) (int64, error)
	// UnresolvedAlerts returns unresolved alerts, newest first.
	UnresolvedAlerts(limit int) ([]*Alert, error)
	// ResolveAlert marks an alert resolved. Resolving an unknown or
	// already-resolved id is a no-op, not an error.
	ResolveAlert(id int64) error
	CountUnresolvedAlerts() (int64, error)

	// UpsertDevice replaces the latest-state row for d.DeviceID.
	UpsertDevice(d *Device) error
	// ListDevices returns all devices ordered by type, then id.
	ListDevices() ([]*Device, error)
	AppendDeviceEvent(e *DeviceEvent) (int64, error)
	// RecentDeviceEvents returns the newest limit events, newest first.
	RecentDeviceEvents(limit int) ([]*DeviceEvent, error)

	Close() error
}
