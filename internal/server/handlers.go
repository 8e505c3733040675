package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/smukkama/fleetzone-server/internal/broadcast"
	"github.com/smukkama/fleetzone-server/internal/database"
	"github.com/smukkama/fleetzone-server/internal/protocol"
	"github.com/smukkama/fleetzone-server/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler holds the HTTP surface over the service. hub is nil when
// broadcasting is disabled.
type Handler struct {
	svc           *service.Service
	hub           *broadcast.Hub
	clientBuffer  int
	historyOnJoin int
}

func NewHandler(svc *service.Service, hub *broadcast.Hub, clientBuffer, historyOnJoin int) *Handler {
	return &Handler{
		svc:           svc,
		hub:           hub,
		clientBuffer:  clientBuffer,
		historyOnJoin: historyOnJoin,
	}
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) postDetection(w http.ResponseWriter, r *http.Request) {
	var sub protocol.DetectionSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, err := h.svc.IngestDetection(&sub); err != nil {
		log.Printf("Detection ingest failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store detection")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (h *Handler) getMetrics(w http.ResponseWriter, _ *http.Request) {
	snapshot, err := h.svc.Snapshot()
	if err != nil {
		log.Printf("Metrics snapshot failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute metrics")
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.History(queryLimit(r, service.DefaultHistoryLimit))
	if err != nil {
		log.Printf("History query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}

	if history == nil {
		history = []*database.Detection{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *Handler) getAlerts(w http.ResponseWriter, _ *http.Request) {
	alerts, err := h.svc.UnresolvedAlerts()
	if err != nil {
		log.Printf("Alerts query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read alerts")
		return
	}

	if alerts == nil {
		alerts = []*database.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *Handler) resolveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert id")
		return
	}

	// Resolving an unknown or already-resolved alert is a success so the
	// operation stays idempotent.
	if err := h.svc.ResolveAlert(id); err != nil {
		log.Printf("Alert resolve failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve alert")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) postSensor(w http.ResponseWriter, r *http.Request) {
	var sub protocol.SensorTelemetry
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, err := h.svc.IngestSensor(&sub); err != nil {
		log.Printf("Sensor ingest failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store sensor report")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (h *Handler) postActuator(w http.ResponseWriter, r *http.Request) {
	var sub protocol.ActuatorTelemetry
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, err := h.svc.IngestActuator(&sub); err != nil {
		log.Printf("Actuator ingest failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store actuator report")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (h *Handler) getDevices(w http.ResponseWriter, _ *http.Request) {
	devices, err := h.svc.Devices()
	if err != nil {
		log.Printf("Devices query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read devices")
		return
	}

	if devices == nil {
		devices = []*database.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

func (h *Handler) getDeviceEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.DeviceEvents(queryLimit(r, service.DefaultDeviceEventLimit))
	if err != nil {
		log.Printf("Device events query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read device events")
		return
	}

	if events == nil {
		events = []*database.DeviceEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	client := broadcast.NewClient(uuid.New().String(), h.hub, conn, h.clientBuffer)
	if err := h.hub.Register(client); err != nil {
		log.Printf("Observer rejected: %v", err)
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	// One-shot catch-up with recent history, best effort.
	go h.sendInitialHistory(client)
}

func (h *Handler) sendInitialHistory(client *broadcast.Client) {
	recent, err := h.svc.History(h.historyOnJoin)
	if err != nil || len(recent) == 0 {
		return
	}

	body, err := broadcast.EncodeEnvelope(broadcast.TopicHistory, recent)
	if err != nil {
		return
	}

	// Best effort; a saturated or gone client catches up over HTTP.
	h.hub.SendTo(client.ID, body)
}

func queryLimit(r *http.Request, fallback int) int {
	value := r.URL.Query().Get("limit")
	if value == "" {
		return fallback
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
