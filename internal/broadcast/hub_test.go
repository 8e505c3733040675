package broadcast

import (
	"testing"
)

func testClient(id string, buffer int) *Client {
	return &Client{ID: id, Send: make(chan []byte, buffer)}
}

func TestHub_Register(t *testing.T) {
	h := NewHub(10)

	if err := h.Register(testClient("obs1", 4)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if h.Count() != 1 {
		t.Errorf("Expected 1 observer, got %d", h.Count())
	}
}

func TestHub_RegisterMaxObservers(t *testing.T) {
	h := NewHub(2)

	h.Register(testClient("obs1", 4))
	h.Register(testClient("obs2", 4))

	err := h.Register(testClient("obs3", 4))
	if err != ErrMaxObserversReached {
		t.Errorf("Expected ErrMaxObserversReached, got %v", err)
	}
}

func TestHub_UnregisterTwice(t *testing.T) {
	h := NewHub(10)

	c := testClient("obs1", 4)
	h.Register(c)
	h.Unregister("obs1")
	h.Unregister("obs1")

	if h.Count() != 0 {
		t.Errorf("Expected 0 observers, got %d", h.Count())
	}
	if _, open := <-c.Send; open {
		t.Error("Expected send channel closed after unregister")
	}
}

func TestHub_SendDropsSaturatedObserver(t *testing.T) {
	h := NewHub(10)

	healthy := testClient("healthy", 4)
	saturated := testClient("saturated", 1)
	h.Register(healthy)
	h.Register(saturated)

	// Fill the saturated observer's buffer.
	saturated.Send <- []byte("backlog")

	if err := h.Send(TopicDetection, []byte("event")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if h.Count() != 1 {
		t.Errorf("Expected saturated observer dropped, count %d", h.Count())
	}

	select {
	case msg := <-healthy.Send:
		if string(msg) != "event" {
			t.Errorf("Expected event payload, got %s", msg)
		}
	default:
		t.Error("Healthy observer received nothing")
	}
}

func TestHub_SendTo(t *testing.T) {
	h := NewHub(10)

	c := testClient("obs1", 1)
	h.Register(c)

	if !h.SendTo("obs1", []byte("hello")) {
		t.Error("Expected SendTo to succeed")
	}
	// Buffer is now full.
	if h.SendTo("obs1", []byte("again")) {
		t.Error("Expected SendTo to fail on full buffer")
	}
	if h.SendTo("missing", []byte("hello")) {
		t.Error("Expected SendTo to fail for unknown observer")
	}
	// Unlike Send, SendTo never drops the observer.
	if h.Count() != 1 {
		t.Errorf("Expected observer retained, count %d", h.Count())
	}
}
