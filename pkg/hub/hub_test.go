package hub

import (
	"encoding/json"
	"testing"
	"time"
)

// fakeClient registers a bare client without a websocket connection.
func fakeClient(t *testing.T, h *Hub) *Client {
	t.Helper()
	c := &Client{hub: h, send: make(chan []byte, 4)}
	h.register <- c
	return c
}

func TestHubFanOut(t *testing.T) {
	h := New(nil)
	go h.Run()

	a := fakeClient(t, h)
	b := fakeClient(t, h)

	waitForClients(t, h, 2)

	h.Publish(Event{SessionID: "s1", Role: "user", Text: "hello", Final: true})

	for _, c := range []*Client{a, b} {
		select {
		case data := <-c.send:
			var event Event
			if err := json.Unmarshal(data, &event); err != nil {
				t.Fatalf("broadcast is not JSON: %v", err)
			}
			if event.Text != "hello" || event.Role != "user" || !event.Final {
				t.Errorf("event = %+v", event)
			}
			if event.Timestamp.IsZero() {
				t.Error("timestamp not stamped")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("client never received broadcast")
		}
	}
}

func TestHubUnregister(t *testing.T) {
	h := New(nil)
	go h.Run()

	c := fakeClient(t, h)
	waitForClients(t, h, 1)

	h.unregister <- c
	waitForClients(t, h, 0)

	if _, ok := <-c.send; ok {
		t.Error("send channel not closed on unregister")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	h := New(nil)
	go h.Run()

	slow := &Client{hub: h, send: make(chan []byte)} // unbuffered, never read
	h.register <- slow
	waitForClients(t, h, 1)

	h.Publish(Event{Text: "drop me"})
	waitForClients(t, h, 0)
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", h.ClientCount(), want)
}
