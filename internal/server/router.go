package server

import (
	"github.com/gorilla/mux"
)

// NewRouter wires every operation of the HTTP surface. The websocket
// endpoint is only mounted when broadcasting is enabled.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.health).Methods("GET")

	r.HandleFunc("/detections", h.postDetection).Methods("POST")
	r.HandleFunc("/metrics", h.getMetrics).Methods("GET")
	r.HandleFunc("/history", h.getHistory).Methods("GET")

	r.HandleFunc("/alerts", h.getAlerts).Methods("GET")
	r.HandleFunc("/alerts/{id:[0-9]+}/resolve", h.resolveAlert).Methods("POST")

	r.HandleFunc("/iot/sensor", h.postSensor).Methods("POST")
	r.HandleFunc("/iot/actuator", h.postActuator).Methods("POST")
	r.HandleFunc("/iot/devices", h.getDevices).Methods("GET")
	r.HandleFunc("/iot/events", h.getDeviceEvents).Methods("GET")

	if h.hub != nil {
		r.HandleFunc("/ws", h.serveWebsocket).Methods("GET")
	}

	return r
}
