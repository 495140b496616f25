package main

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/hlsorigin/livemodel"
	"github.com/ausocean/hlsorigin/playlist"
)

func TestEventBridgeBroadcastsToConnectedClient(t *testing.T) {
	log := logging.New(logging.Info, io.Discard, true)
	bridge := newEventBridge(log)

	srv := httptest.NewServer(bridge)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	// Give ServeHTTP a moment to register the client before we broadcast.
	time.Sleep(50 * time.Millisecond)

	events := make(chan playlist.Event, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bridge.Watch(ctx, "reef1", events)

	events <- playlist.Event{Kind: playlist.SegmentAdded, Segment: &livemodel.LiveSegment{Index: 3, Filename: "seg3.ts"}}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if !strings.Contains(string(data), `"stream":"reef1"`) {
		t.Errorf("message missing stream field: %s", data)
	}
	if !strings.Contains(string(data), `"kind":"segmentAdded"`) {
		t.Errorf("message missing kind field: %s", data)
	}
	if !strings.Contains(string(data), `"segmentFile":"seg3.ts"`) {
		t.Errorf("message missing segmentFile field: %s", data)
	}
}

func TestEventBridgeWatchStopsOnChannelClose(t *testing.T) {
	log := logging.New(logging.Info, io.Discard, true)
	bridge := newEventBridge(log)

	events := make(chan playlist.Event)
	done := make(chan struct{})
	go func() {
		bridge.Watch(context.Background(), "reef1", events)
		close(done)
	}()
	close(events)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after channel close")
	}
}

func TestEventBridgeWatchStopsOnContextCancel(t *testing.T) {
	log := logging.New(logging.Info, io.Discard, true)
	bridge := newEventBridge(log)

	events := make(chan playlist.Event)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		bridge.Watch(ctx, "reef1", events)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after context cancel")
	}
}
