// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// StreamMessage is one frame pushed to websocket clients.
type StreamMessage struct {
	Type string `json:"type"` // scan, transform
	Data any    `json:"data"`
}

type streamConn struct {
	conn *websocket.Conn
	mu   sync.Mutex // serialises writes
}

func (c *streamConn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// streamHub fans every received message out to all websocket clients.
type streamHub struct {
	mu    sync.Mutex
	conns map[*streamConn]struct{}
}

func newStreamHub() *streamHub {
	return &streamHub{conns: make(map[*streamConn]struct{})}
}

func (h *streamHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *streamHub) add(c *streamConn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

func (h *streamHub) remove(c *streamConn) {
	h.mu.Lock()
	_, ok := h.conns[c]
	delete(h.conns, c)
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

// broadcast sends msg to every client; clients that fail are dropped.
func (h *streamHub) broadcast(msg StreamMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("stream: json marshal error: %v", err)
		return
	}

	h.mu.Lock()
	conns := make([]*streamConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.write(data); err != nil {
			log.Printf("stream: write error, dropping client: %v", err)
			h.remove(c)
		}
	}
}

// closeAll disconnects every client.
func (h *streamHub) closeAll() {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[*streamConn]struct{})
	h.mu.Unlock()
	for c := range conns {
		c.conn.Close()
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects. Incoming messages are read and discarded.
func (h *streamHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("stream: websocket upgrade error: %v", err)
		return
	}
	c := &streamConn{conn: conn}
	h.add(c)
	log.Printf("stream: client connected from %s", r.RemoteAddr)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("stream: websocket error: %v", err)
			}
			break
		}
	}
	h.remove(c)
	log.Printf("stream: client %s disconnected", r.RemoteAddr)
}
