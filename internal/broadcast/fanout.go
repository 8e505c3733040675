package broadcast

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/smukkama/fleetzone-server/internal/metrics"
)

// Topics published by the pipeline.
const (
	TopicDetection   = "detection"
	TopicAlert       = "alert"
	TopicIoTSensor   = "iot_sensor"
	TopicIoTActuator = "iot_actuator"
	TopicHistory     = "history"
)

// Envelope is the wire format delivered to observers.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// EncodeEnvelope marshals a topic and payload into the observer wire format.
func EncodeEnvelope(topic string, payload interface{}) ([]byte, error) {
	return json.Marshal(Envelope{Type: topic, Payload: payload})
}

// Publisher is what the ingestion pipeline sees: fire-and-forget publication
// with delivery failures fully contained on the broadcast side.
type Publisher interface {
	Publish(topic string, payload interface{})
}

// Sink is one delivery channel (websocket hub, Redis channel, Kafka topic).
type Sink interface {
	Name() string
	Send(topic string, message []byte) error
}

// Fanout runs one worker goroutine per sink over a bounded queue, so a slow
// or failing sink can never propagate backpressure into ingestion. When a
// sink's queue is full the message is dropped for that sink, not queued
// unboundedly.
type Fanout struct {
	workers []*sinkWorker
	wg      sync.WaitGroup
}

type sinkMessage struct {
	topic string
	body  []byte
}

type sinkWorker struct {
	sink  Sink
	queue chan sinkMessage
}

func NewFanout(queueSize int, sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		w := &sinkWorker{
			sink:  s,
			queue: make(chan sinkMessage, queueSize),
		}
		f.workers = append(f.workers, w)
		f.wg.Add(1)
		go f.run(w)
	}
	return f
}

func (f *Fanout) run(w *sinkWorker) {
	defer f.wg.Done()
	for msg := range w.queue {
		if err := w.sink.Send(msg.topic, msg.body); err != nil {
			log.Printf("Broadcast to %s failed: %v", w.sink.Name(), err)
			metrics.BroadcastDropped.WithLabelValues(w.sink.Name()).Inc()
		}
	}
}

// Publish encodes the payload once and enqueues it for every sink.
func (f *Fanout) Publish(topic string, payload interface{}) {
	if len(f.workers) == 0 {
		return
	}

	body, err := EncodeEnvelope(topic, payload)
	if err != nil {
		log.Printf("Failed to encode broadcast payload: %v", err)
		return
	}

	for _, w := range f.workers {
		select {
		case w.queue <- sinkMessage{topic: topic, body: body}:
		default:
			metrics.BroadcastDropped.WithLabelValues(w.sink.Name()).Inc()
		}
	}
}

// Close drains and stops all sink workers.
func (f *Fanout) Close() {
	for _, w := range f.workers {
		close(w.queue)
	}
	f.wg.Wait()
}
