package database

import (
	"sort"
	"sync"
)

// MemoryStore is an in-process Store used by tests and single-binary
// deployments that run without Postgres. It keeps the same append-only
// semantics: detection and device-event slices only ever grow.
type MemoryStore struct {
	mu         sync.RWMutex
	detections []*Detection
	alerts     []*Alert
	devices    map[string]*Device
	events     []*DeviceEvent
	nextID     int64
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		devices: make(map[string]*Device),
		nextID:  1,
	}
}

func (m *MemoryStore) AppendDetection(d *Detection) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *d
	stored.ID = m.nextID
	m.nextID++
	m.detections = append(m.detections, &stored)
	return stored.ID, nil
}

func (m *MemoryStore) RecentDetections(limit int) ([]*Detection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.detections) {
		limit = len(m.detections)
	}

	result := make([]*Detection, 0, limit)
	for i := len(m.detections) - 1; i >= len(m.detections)-limit; i-- {
		dup := *m.detections[i]
		result = append(result, &dup)
	}
	return result, nil
}

func (m *MemoryStore) CountDetections() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.detections)), nil
}

func (m *MemoryStore) CountDistinctClasses() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	classes := make(map[string]struct{})
	for _, d := range m.detections {
		classes[d.ClassName] = struct{}{}
	}
	return int64(len(classes)), nil
}

func (m *MemoryStore) AvgDetectionRate() (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sum float64
	var n int
	for _, d := range m.detections {
		if d.DetectionRate > 0 {
			sum += d.DetectionRate
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

func (m *MemoryStore) InsertAlert(a *Alert) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *a
	stored.ID = m.nextID
	m.nextID++
	m.alerts = append(m.alerts, &stored)
	return stored.ID, nil
}

func (m *MemoryStore) UnresolvedAlerts(limit int) ([]*Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Alert
	for i := len(m.alerts) - 1; i >= 0 && len(result) < limit; i-- {
		if m.alerts[i].Resolved {
			continue
		}
		dup := *m.alerts[i]
		result = append(result, &dup)
	}
	return result, nil
}

func (m *MemoryStore) ResolveAlert(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.alerts {
		if a.ID == id {
			a.Resolved = true
			return nil
		}
	}
	// Unknown id is a no-op so resolve stays idempotent.
	return nil
}

func (m *MemoryStore) CountUnresolvedAlerts() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, a := range m.alerts {
		if !a.Resolved {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) UpsertDevice(d *Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *d
	if existing, ok := m.devices[d.DeviceID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	m.devices[d.DeviceID] = &stored
	return nil
}

func (m *MemoryStore) ListDevices() ([]*Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Device, 0, len(m.devices))
	for _, d := range m.devices {
		dup := *d
		result = append(result, &dup)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DeviceType != result[j].DeviceType {
			return result[i].DeviceType < result[j].DeviceType
		}
		return result[i].DeviceID < result[j].DeviceID
	})
	return result, nil
}

func (m *MemoryStore) AppendDeviceEvent(e *DeviceEvent) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *e
	stored.ID = m.nextID
	m.nextID++
	m.events = append(m.events, &stored)
	return stored.ID, nil
}

func (m *MemoryStore) RecentDeviceEvents(limit int) ([]*DeviceEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.events) {
		limit = len(m.events)
	}

	result := make([]*DeviceEvent, 0, limit)
	for i := len(m.events) - 1; i >= len(m.events)-limit; i-- {
		dup := *m.events[i]
		result = append(result, &dup)
	}
	return result, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
