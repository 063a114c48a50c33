package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"fieldroute/internal/config"
	"fieldroute/internal/store"
)

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker()
	a := b.Subscribe("run-1")
	c := b.Subscribe("run-1")
	other := b.Subscribe("run-2")

	b.Publish("run-1", RunEvent{Type: "run.progress"})

	for _, ch := range []chan RunEvent{a, c} {
		select {
		case evt := <-ch:
			if evt.Type != "run.progress" {
				t.Fatalf("event = %+v", evt)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
	select {
	case evt := <-other:
		t.Fatalf("wrong run got event %+v", evt)
	default:
	}

	b.Unsubscribe("run-1", a)
	if _, ok := <-a; ok {
		t.Fatal("unsubscribed channel should be closed")
	}
	b.Unsubscribe("run-1", c)
	b.Unsubscribe("run-2", other)
}

func TestBrokerPublishNeverBlocks(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("run-1")
	// Fill the buffer and keep publishing; a slow subscriber must not stall.
	for i := 0; i < 100; i++ {
		b.Publish("run-1", RunEvent{Type: "run.progress"})
	}
	b.Unsubscribe("run-1", ch)
}

func TestStreamDeliversTerminalEvent(t *testing.T) {
	s := &Server{
		Cfg:    &config.Config{SpeedMph: 30, MaxTimeSeconds: 2, DayStart: "08:00", ProgressEventsPerSec: 100},
		Store:  store.NewMemory(),
		Broker: NewBroker(),
	}
	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/runs/run-x/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v (resp %+v)", err, resp)
	}
	defer conn.Close()

	// Publish until the handler's subscription picks it up.
	done := make(chan struct{})
	defer close(done)
	go func() {
		tick := time.NewTicker(10 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				s.Broker.Publish("run-x", RunEvent{Type: "run.completed", Data: map[string]any{"runId": "run-x"}})
			}
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var evt RunEvent
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read: %v", err)
	}
	if evt.Type != "run.completed" {
		t.Fatalf("event = %+v", evt)
	}
	if evt.Data["runId"] != "run-x" {
		t.Fatalf("data = %+v", evt.Data)
	}
}
