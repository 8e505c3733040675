package database

import (
	"testing"
	"time"
)

func TestMemoryStore_AppendAndRecent(t *testing.T) {
	store := NewMemoryStore()

	for i := 1; i <= 5; i++ {
		id, err := store.AppendDetection(&Detection{Frame: i, ClassName: "motorbike"})
		if err != nil {
			t.Fatalf("AppendDetection failed: %v", err)
		}
		if id == 0 {
			t.Fatal("Expected non-zero id")
		}
	}

	recent, err := store.RecentDetections(3)
	if err != nil {
		t.Fatalf("RecentDetections failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 detections, got %d", len(recent))
	}
	// Newest first.
	if recent[0].Frame != 5 || recent[2].Frame != 3 {
		t.Errorf("Expected frames 5..3, got %d..%d", recent[0].Frame, recent[2].Frame)
	}

	count, err := store.CountDetections()
	if err != nil {
		t.Fatalf("CountDetections failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected count 5, got %d", count)
	}
}

func TestMemoryStore_DistinctClassesAndAvgRate(t *testing.T) {
	store := NewMemoryStore()

	store.AppendDetection(&Detection{ClassName: "motorbike", DetectionRate: 2.0})
	store.AppendDetection(&Detection{ClassName: "motorbike", DetectionRate: 0})
	store.AppendDetection(&Detection{ClassName: "helmet", DetectionRate: 4.0})

	classes, err := store.CountDistinctClasses()
	if err != nil {
		t.Fatalf("CountDistinctClasses failed: %v", err)
	}
	if classes != 2 {
		t.Errorf("Expected 2 distinct classes, got %d", classes)
	}

	// Zero rates are excluded from the mean.
	rate, err := store.AvgDetectionRate()
	if err != nil {
		t.Fatalf("AvgDetectionRate failed: %v", err)
	}
	if rate != 3.0 {
		t.Errorf("Expected avg rate 3.0, got %f", rate)
	}
}

func TestMemoryStore_ResolveAlertIdempotent(t *testing.T) {
	store := NewMemoryStore()

	id, err := store.InsertAlert(&Alert{AlertType: AlertLowConfidence, Severity: SeverityWarning})
	if err != nil {
		t.Fatalf("InsertAlert failed: %v", err)
	}

	if err := store.ResolveAlert(id); err != nil {
		t.Fatalf("ResolveAlert failed: %v", err)
	}
	// Second resolve and unknown id are both no-ops.
	if err := store.ResolveAlert(id); err != nil {
		t.Fatalf("Second ResolveAlert failed: %v", err)
	}
	if err := store.ResolveAlert(99999); err != nil {
		t.Fatalf("ResolveAlert on unknown id failed: %v", err)
	}

	count, err := store.CountUnresolvedAlerts()
	if err != nil {
		t.Fatalf("CountUnresolvedAlerts failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 unresolved alerts, got %d", count)
	}

	unresolved, err := store.UnresolvedAlerts(20)
	if err != nil {
		t.Fatalf("UnresolvedAlerts failed: %v", err)
	}
	if len(unresolved) != 0 {
		t.Errorf("Expected no unresolved alerts, got %d", len(unresolved))
	}
}

func TestMemoryStore_UnresolvedAlertsNewestFirst(t *testing.T) {
	store := NewMemoryStore()

	first, _ := store.InsertAlert(&Alert{Message: "first"})
	store.InsertAlert(&Alert{Message: "second"})
	store.ResolveAlert(first)
	store.InsertAlert(&Alert{Message: "third"})

	unresolved, err := store.UnresolvedAlerts(20)
	if err != nil {
		t.Fatalf("UnresolvedAlerts failed: %v", err)
	}
	if len(unresolved) != 2 {
		t.Fatalf("Expected 2 unresolved alerts, got %d", len(unresolved))
	}
	if unresolved[0].Message != "third" || unresolved[1].Message != "second" {
		t.Errorf("Expected newest first, got %s then %s", unresolved[0].Message, unresolved[1].Message)
	}
}

func TestMemoryStore_UpsertDevice(t *testing.T) {
	store := NewMemoryStore()

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	battery := 85.0
	err := store.UpsertDevice(&Device{
		DeviceID:     "SENSOR_01",
		DeviceType:   DeviceTypeSensor,
		Status:       DeviceStatusActive,
		CreatedAt:    created,
		LastSeen:     created,
		BatteryLevel: &battery,
	})
	if err != nil {
		t.Fatalf("UpsertDevice failed: %v", err)
	}

	lowBattery := 40.0
	later := created.Add(time.Hour)
	err = store.UpsertDevice(&Device{
		DeviceID:     "SENSOR_01",
		DeviceType:   DeviceTypeSensor,
		Status:       DeviceStatusIdle,
		CreatedAt:    later,
		LastSeen:     later,
		BatteryLevel: &lowBattery,
	})
	if err != nil {
		t.Fatalf("Second UpsertDevice failed: %v", err)
	}

	devices, err := store.ListDevices()
	if err != nil {
		t.Fatalf("ListDevices failed: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("Expected 1 device, got %d", len(devices))
	}

	d := devices[0]
	if d.Status != DeviceStatusIdle {
		t.Errorf("Expected status idle after second report, got %s", d.Status)
	}
	if *d.BatteryLevel != 40.0 {
		t.Errorf("Expected battery 40.0, got %f", *d.BatteryLevel)
	}
	// created_at survives the overwrite.
	if !d.CreatedAt.Equal(created) {
		t.Errorf("Expected created_at %v, got %v", created, d.CreatedAt)
	}
	if !d.LastSeen.Equal(later) {
		t.Errorf("Expected last_seen %v, got %v", later, d.LastSeen)
	}
}

func TestMemoryStore_ListDevicesOrder(t *testing.T) {
	store := NewMemoryStore()

	store.UpsertDevice(&Device{DeviceID: "SENSOR_02", DeviceType: DeviceTypeSensor})
	store.UpsertDevice(&Device{DeviceID: "ACTUATOR_01", DeviceType: DeviceTypeActuator})
	store.UpsertDevice(&Device{DeviceID: "SENSOR_01", DeviceType: DeviceTypeSensor})

	devices, err := store.ListDevices()
	if err != nil {
		t.Fatalf("ListDevices failed: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("Expected 3 devices, got %d", len(devices))
	}
	want := []string{"ACTUATOR_01", "SENSOR_01", "SENSOR_02"}
	for i, id := range want {
		if devices[i].DeviceID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, devices[i].DeviceID)
		}
	}
}

func TestMemoryStore_DeviceEvents(t *testing.T) {
	store := NewMemoryStore()

	store.AppendDeviceEvent(&DeviceEvent{DeviceID: "SENSOR_01", EventType: DeviceEventSensorData})
	store.AppendDeviceEvent(&DeviceEvent{DeviceID: "ACTUATOR_01", EventType: DeviceEventActuatorData})

	events, err := store.RecentDeviceEvents(50)
	if err != nil {
		t.Fatalf("RecentDeviceEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].DeviceID != "ACTUATOR_01" {
		t.Errorf("Expected newest event first, got %s", events[0].DeviceID)
	}
	if events[0].Processed {
		t.Error("New events must start unprocessed")
	}
}
