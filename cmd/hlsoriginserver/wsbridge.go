/*
DESCRIPTION
  wsbridge.go - eventBridge: fans out every registered stream's playlist
  lifecycle events (Events() channel) to connected /events websocket
  clients, following the WSClient read/write pump pattern.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024-2026 the Australian Ocean Lab (AusOcean).

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  This is distributed in the hope that it will be useful, but WITHOUT
  ANY WARRANTY; without even the implied warranty of MERCHANTABILITY
  or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public
  License for more details.

  You should have received a copy of the GNU General Public License in
  gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/hlsorigin/playlist"
)

var eventKindNames = map[playlist.EventKind]string{
	playlist.SegmentAdded:    "segmentAdded",
	playlist.SegmentRemoved:  "segmentRemoved",
	playlist.PlaylistUpdated: "playlistUpdated",
	playlist.StreamEnded:     "streamEnded",
}

// wsMessage is the JSON shape delivered to every connected /events client.
type wsMessage struct {
	Stream        string `json:"stream"`
	Kind          string `json:"kind"`
	SegmentIndex  int64  `json:"segmentIndex,omitempty"`
	SegmentFile   string `json:"segmentFile,omitempty"`
}

// wsClient is one connected /events subscriber.
type wsClient struct {
	conn *websocket.Conn
	send chan wsMessage
}

// eventBridge upgrades HTTP connections to websockets and relays every
// subscribed stream's lifecycle events to all connected clients.
type eventBridge struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}

	log logging.Logger
}

func newEventBridge(log logging.Logger) *eventBridge {
	return &eventBridge{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
		log:     log,
	}
}

// Watch subscribes the bridge to stream's event channel; it runs until
// ctx is cancelled or the channel closes (i.e. EndStream was called).
func (b *eventBridge) Watch(ctx context.Context, streamName string, events <-chan playlist.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			msg := wsMessage{Stream: streamName, Kind: eventKindNames[ev.Kind]}
			if ev.Segment != nil {
				msg.SegmentIndex = ev.Segment.Index
				msg.SegmentFile = ev.Segment.Filename
			}
			b.broadcast(msg)
		}
	}
}

func (b *eventBridge) broadcast(msg wsMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		select {
		case c.send <- msg:
		default:
			// Slow client; drop rather than block the muxing path.
		}
	}
}

// ServeHTTP upgrades the request to a websocket and streams lifecycle
// events to it until the client disconnects.
func (b *eventBridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Error("failed to upgrade websocket connection", "error", err)
		return
	}
	c := &wsClient{conn: conn, send: make(chan wsMessage, 256)}

	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()

	go b.writePump(c)
	b.readPump(c)
}

func (b *eventBridge) readPump(c *wsClient) {
	defer b.unregister(c)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *eventBridge) writePump(c *wsClient) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (b *eventBridge) unregister(c *wsClient) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
}
