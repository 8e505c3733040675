package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
)

// DB wraps the Postgres connection and implements Store.
type DB struct {
	*sql.DB
}

var _ Store = (*DB)(nil)

// Connect establishes a connection to the database
func Connect(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &DB{db}, nil
}

// RunMigrations executes all SQL migration files in order
func (db *DB) RunMigrations(migrationsDir string) error {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			sqlFiles = append(sqlFiles, file.Name())
		}
	}
	sort.Strings(sqlFiles)

	for _, filename := range sqlFiles {
		fmt.Printf("Running migration: %s\n", filename)

		filePath := filepath.Join(migrationsDir, filename)
		content, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}
	}

	fmt.Println("All migrations completed successfully")
	return nil
}

// AppendDetection inserts a detection row and returns its id.
func (db *DB) AppendDetection(d *Detection) (int64, error) {
	query := `
		INSERT INTO detections (
			created_at, frame, class, class_name, confidence,
			x1, y1, x2, y2, area,
			fps, total_detections, unique_motos, detection_rate
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	var id int64
	err := db.QueryRow(
		query,
		d.CreatedAt,
		d.Frame,
		d.ClassID,
		d.ClassName,
		d.Confidence,
		d.X1,
		d.Y1,
		d.X2,
		d.Y2,
		d.Area,
		d.FPS,
		d.TotalDetections,
		d.UniqueMotos,
		d.DetectionRate,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert detection: %w", err)
	}

	return id, nil
}

// RecentDetections retrieves the newest limit detections, newest first.
func (db *DB) RecentDetections(limit int) ([]*Detection, error) {
	query := `
		SELECT id, created_at, frame, class, class_name, confidence,
		       x1, y1, x2, y2, area,
		       fps, total_detections, unique_motos, detection_rate
		FROM detections
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var detections []*Detection
	for rows.Next() {
		var d Detection
		if err := rows.Scan(
			&d.ID,
			&d.CreatedAt,
			&d.Frame,
			&d.ClassID,
			&d.ClassName,
			&d.Confidence,
			&d.X1,
			&d.Y1,
			&d.X2,
			&d.Y2,
			&d.Area,
			&d.FPS,
			&d.TotalDetections,
			&d.UniqueMotos,
			&d.DetectionRate,
		); err != nil {
			return nil, err
		}
		detections = append(detections, &d)
	}

	return detections, rows.Err()
}

// CountDetections returns the total number of stored detections.
func (db *DB) CountDetections() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM detections`).Scan(&count)
	return count, err
}

// CountDistinctClasses counts distinct class names across stored detections.
func (db *DB) CountDistinctClasses() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(DISTINCT class_name) FROM detections`).Scan(&count)
	return count, err
}

// AvgDetectionRate averages all positive detection_rate values.
func (db *DB) AvgDetectionRate() (float64, error) {
	var avg sql.NullFloat64
	err := db.QueryRow(`SELECT AVG(detection_rate) FROM detections WHERE detection_rate > 0`).Scan(&avg)
	if err != nil {
		return 0, err
	}
	return avg.Float64, nil
}

// InsertAlert inserts a new alert and returns its id.
func (db *DB) InsertAlert(a *Alert) (int64, error) {
	query := `
		INSERT INTO alerts (created_at, alert_type, message, severity, resolved)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := db.QueryRow(query, a.CreatedAt, a.AlertType, a.Message, a.Severity, a.Resolved).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert alert: %w", err)
	}

	return id, nil
}

// UnresolvedAlerts retrieves unresolved alerts, newest first.
func (db *DB) UnresolvedAlerts(limit int) ([]*Alert, error) {
	query := `
		SELECT id, created_at, alert_type, message, severity, resolved
		FROM alerts
		WHERE resolved = FALSE
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.CreatedAt, &a.AlertType, &a.Message, &a.Severity, &a.Resolved); err != nil {
			return nil, err
		}
		alerts = append(alerts, &a)
	}

	return alerts, rows.Err()
}

// ResolveAlert marks an alert resolved. Unknown ids are a no-op.
func (db *DB) ResolveAlert(id int64) error {
	_, err := db.Exec(`UPDATE alerts SET resolved = TRUE WHERE id = $1`, id)
	return err
}

// CountUnresolvedAlerts returns the number of unresolved alerts.
func (db *DB) CountUnresolvedAlerts() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM alerts WHERE resolved = FALSE`).Scan(&count)
	return count, err
}

// UpsertDevice inserts or replaces the latest-state row for a device.
// created_at is preserved across upserts; everything else reflects the
// most recent telemetry report.
func (db *DB) UpsertDevice(d *Device) error {
	query := `
		INSERT INTO iot_devices (
			device_id, device_type, location, status, created_at, last_seen,
			battery_level, signal_strength, temperature, humidity, vibration,
			power_level, last_action
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (device_id) DO UPDATE
		SET device_type = EXCLUDED.device_type,
		    location = EXCLUDED.location,
		    status = EXCLUDED.status,
		    last_seen = EXCLUDED.last_seen,
		    battery_level = EXCLUDED.battery_level,
		    signal_strength = EXCLUDED.signal_strength,
		    temperature = EXCLUDED.temperature,
		    humidity = EXCLUDED.humidity,
		    vibration = EXCLUDED.vibration,
		    power_level = EXCLUDED.power_level,
		    last_action = EXCLUDED.last_action
	`

	_, err := db.Exec(query,
		d.DeviceID,
		d.DeviceType,
		d.Location,
		d.Status,
		d.CreatedAt,
		d.LastSeen,
		d.BatteryLevel,
		d.SignalStrength,
		d.Temperature,
		d.Humidity,
		d.Vibration,
		d.PowerLevel,
		d.LastAction,
	)
	return err
}

// ListDevices retrieves all devices ordered by type, then id.
func (db *DB) ListDevices() ([]*Device, error) {
	query := `
		SELECT device_id, device_type, location, status, created_at, last_seen,
		       battery_level, signal_strength, temperature, humidity, vibration,
		       power_level, last_action
		FROM iot_devices
		ORDER BY device_type, device_id
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*Device
	for rows.Next() {
		var d Device
		if err := rows.Scan(
			&d.DeviceID,
			&d.DeviceType,
			&d.Location,
			&d.Status,
			&d.CreatedAt,
			&d.LastSeen,
			&d.BatteryLevel,
			&d.SignalStrength,
			&d.Temperature,
			&d.Humidity,
			&d.Vibration,
			&d.PowerLevel,
			&d.LastAction,
		); err != nil {
			return nil, err
		}
		devices = append(devices, &d)
	}

	return devices, rows.Err()
}

// AppendDeviceEvent inserts an audit entry for a telemetry report.
func (db *DB) AppendDeviceEvent(e *DeviceEvent) (int64, error) {
	query := `
		INSERT INTO iot_events (device_id, event_type, event_data, timestamp, processed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := db.QueryRow(query, e.DeviceID, e.EventType, string(e.Payload), e.Timestamp, e.Processed).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert device event: %w", err)
	}

	return id, nil
}

// RecentDeviceEvents retrieves the newest limit device events, newest first.
func (db *DB) RecentDeviceEvents(limit int) ([]*DeviceEvent, error) {
	query := `
		SELECT id, device_id, event_type, event_data, timestamp, processed
		FROM iot_events
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*DeviceEvent
	for rows.Next() {
		var e DeviceEvent
		var payload string
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.EventType, &payload, &e.Timestamp, &e.Processed); err != nil {
			return nil, err
		}
		e.Payload = []byte(payload)
		events = append(events, &e)
	}

	return events, rows.Err()
}
