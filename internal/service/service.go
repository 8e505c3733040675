package service

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/smukkama/fleetzone-server/internal/alerting"
	"github.com/smukkama/fleetzone-server/internal/broadcast"
	"github.com/smukkama/fleetzone-server/internal/database"
	"github.com/smukkama/fleetzone-server/internal/metrics"
	"github.com/smukkama/fleetzone-server/internal/notification"
	"github.com/smukkama/fleetzone-server/internal/protocol"
)

const (
	DefaultHistoryLimit     = 100
	DefaultDeviceEventLimit = 50
	unresolvedAlertCap      = 20
)

/// Service owns the whole ingestion pipeline: store, aggregator, alert
// engine, device registry behavior and broadcaster. One instance per
// process; disabled capabilities are nil.
type Service struct {
	store    database.Store
	agg      *metrics.Aggregator
	alerts   *alerting.Engine
	pub      broadcast.Publisher
	notifier *notification.EmailNotifier

	// ingestMu serializes the detection ingest path so the aggregator
	// counters and the stored counter columns stay consistent under
	// concurrent submissions.
	ingestMu sync.Mutex
}

type Options struct {
	Store    database.Store
	Agg      *metrics.Aggregator
	Alerts   *alerting.Engine
	Pub      broadcast.Publisher
	Notifier *notification.EmailNotifier
}

func New(opts Options) *Service {
	s := &Service{
		store:    opts.Store,
		agg:      opts.Agg,
		alerts:   opts.Alerts,
		pub:      opts.Pub,
		notifier: opts.Notifier,
	}
	if s.pub == nil {
		s.pub = broadcast.NewFanout(0)
	}
	return s
}

// IngestDetection normalizes and durably stores a detection, updates the
// rolling metrics, fires alerts and broadcasts. A storage failure is a hard
// error: the caller never gets an acknowledgment for an unwritten event.
// Once accepted there is no cancellation; the pipeline always completes.
func (s *Service) IngestDetection(sub *protocol.DetectionSubmission) (*database.Detection, error) {
	start := time.Now()
	d := sub.Normalize(time.Now().UTC())

	s.ingestMu.Lock()
	s.agg.Observe(d)
	id, err := s.store.AppendDetection(d)
	s.ingestMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to store detection: %w", err)
	}
	d.ID = id
	metrics.DetectionsIngested.Inc()

	if s.alerts != nil {
		for _, alert := range s.alerts.Evaluate(d) {
			alertID, err := s.store.InsertAlert(alert)
			if err != nil {
				// The detection is already durable; failing the request
				// now would make the caller resubmit a stored event.
				log.Printf("Failed to persist %s alert: %v", alert.AlertType, err)
				continue
			}
			alert.ID = alertID
			metrics.AlertsFired.WithLabelValues(alert.AlertType).Inc()
			s.pub.Publish(broadcast.TopicAlert, alert)

			if s.notifier != nil && alert.Severity == database.SeverityWarning {
				if err := s.notifier.SendAlert(alert); err != nil {
					log.Printf("Failed to send alert email: %v", err)
				}
			}
		}
	}

	s.pub.Publish(broadcast.TopicDetection, d)
	metrics.IngestDuration.Observe(time.Since(start).Seconds())

	return d, nil
}

// Snapshot assembles the derived metrics view: counts and averages from the
// store, the fps window and identity set from the aggregator.
func (s *Service) Snapshot() (*metrics.Snapshot, error) {
	totalEvents, err := s.store.CountDetections()
	if err != nil {
		return nil, fmt.Errorf("failed to count detections: %w", err)
	}

	uniqueClasses, err := s.store.CountDistinctClasses()
	if err != nil {
		return nil, fmt.Errorf("failed to count classes: %w", err)
	}

	avgRate, err := s.store.AvgDetectionRate()
	if err != nil {
		return nil, fmt.Errorf("failed to average detection rate: %w", err)
	}

	activeAlerts, err := s.store.CountUnresolvedAlerts()
	if err != nil {
		return nil, fmt.Errorf("failed to count unresolved alerts: %w", err)
	}

	return &metrics.Snapshot{
		TotalEvents:      totalEvents,
		UniqueClasses:    uniqueClasses,
		UniqueMotos:      s.agg.UniqueMotos(),
		AvgFPSLast60:     s.agg.AvgFPS(),
		AvgDetectionRate: avgRate,
		ActiveAlerts:     activeAlerts,
	}, nil
}

// History returns the most recent detections, newest first.
func (s *Service) History(limit int) ([]*database.Detection, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.store.RecentDetections(limit)
}

// UnresolvedAlerts returns unresolved alerts, newest first, capped at 20.
func (s *Service) UnresolvedAlerts() ([]*database.Alert, error) {
	return s.store.UnresolvedAlerts(unresolvedAlertCap)
}

// ResolveAlert marks an alert resolved. Resolving twice, or resolving an
// unknown id, succeeds as a no-op.
func (s *Service) ResolveAlert(id int64) error {
	return s.store.ResolveAlert(id)
}

// IngestSensor upserts the sensor's device row, appends the audit event and
// broadcasts the report.
func (s *Service) IngestSensor(sub *protocol.SensorTelemetry) (*database.Device, error) {
	device := sub.Normalize(time.Now().UTC())

	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sensor payload: %w", err)
	}

	if err := s.ingestDevice(device, database.DeviceEventSensorData, payload); err != nil {
		return nil, err
	}

	s.pub.Publish(broadcast.TopicIoTSensor, device)
	return device, nil
}

// IngestActuator upserts the actuator's device row, appends the audit event
// and broadcasts the report.
func (s *Service) IngestActuator(sub *protocol.ActuatorTelemetry) (*database.Device, error) {
	device := sub.Normalize(time.Now().UTC())

	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to encode actuator payload: %w", err)
	}

	if err := s.ingestDevice(device, database.DeviceEventActuatorData, payload); err != nil {
		return nil, err
	}

	s.pub.Publish(broadcast.TopicIoTActuator, device)
	return device, nil
}

func (s *Service) ingestDevice(device *database.Device, eventType string, payload []byte) error {
	if err := s.store.UpsertDevice(device); err != nil {
		return fmt.Errorf("failed to upsert device %s: %w", device.DeviceID, err)
	}

	event := &database.DeviceEvent{
		DeviceID:  device.DeviceID,
		EventType: eventType,
		Payload:   payload,
		Timestamp: device.LastSeen,
	}
	if _, err := s.store.AppendDeviceEvent(event); err != nil {
		return fmt.Errorf("failed to store device event: %w", err)
	}

	metrics.DeviceReports.WithLabelValues(device.DeviceType).Inc()
	return nil
}

// Devices returns all known devices ordered by type, then id.
func (s *Service) Devices() ([]*database.Device, error) {
	return s.store.ListDevices()
}

// DeviceEvents returns the most recent device events, newest first.
func (s *Service) DeviceEvents(limit int) ([]*database.DeviceEvent, error) {
	if limit <= 0 {
		limit = DefaultDeviceEventLimit
	}
	return s.store.RecentDeviceEvents(limit)
}

// Close releases the store.
func (s *Service) Close() error {
	return s.store.Close()
}
