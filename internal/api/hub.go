/*
Package api
File: hub.go
Description:
    The WebSocket Hub is the renderer side of the engine.

    The engine never draws anything; it emits domain events. The Hub receives
    those events through Notify, wraps them in the standard Message envelope
    and writes them to the socket of every connected browser, which decides
    what to draw and which sound to play.

    Architecture:
    - Hub: The singleton manager. Implements events.Notifier.
    - Client: Represents one browser connection.
    - ServeWs: Upgrades a GET request to a WebSocket and sends the first snapshot.
*/

package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/everforgeworks/chaos-engine/internal/events"
)

// Message defines the standard JSON envelope for all real-time communication.
type Message struct {
	Type    string `json:"type"`    // Event type (e.g. "clicked", "snapshot")
	Payload any    `json:"payload"` // The event itself, or a full snapshot
	Sender  string `json:"sender"`  // Origin: "engine" or "server"
}

// Client represents a single connected browser tab.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte // Buffered channel for outbound messages
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients map[*Client]bool

	// Outbound messages for every client. Buffered so Notify never blocks the engine.
	Broadcast chan []byte

	register   chan *Client
	unregister chan *Client
	done       chan struct{} // Closed when Run returns
	log        *slog.Logger
}

// NewHub creates a new Hub. Run must be started before clients connect.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		Broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Notify forwards a domain event to every client.
// Called with the engine lock held, so it must not block: a full queue drops the event.
func (h *Hub) Notify(e events.Event) {
	b, err := json.Marshal(Message{Type: string(e.Type), Payload: e, Sender: "engine"})
	if err != nil {
		h.log.Error("marshal event", "type", e.Type, "err", err)
		return
	}
	select {
	case h.Broadcast <- b:
	default:
		h.log.Warn("broadcast queue full, event dropped", "type", e.Type)
	}
}

// Run is the main event loop for the Hub. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.log.Debug("ws client registered", "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// A full send buffer means the client hung or disconnected.
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// ServeWs upgrades the connection, queues the greeting, and registers the client.
func ServeWs(hub *Hub, upgrader *websocket.Upgrader, greeting []byte, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Warn("ws upgrade failed", "err", err)
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256)}
	if greeting != nil {
		client.send <- greeting
	}
	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection so close frames are noticed.
// Actions arrive over REST; inbound socket messages are ignored.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("ws read", "err", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	defer c.conn.Close()

	// Exits when c.send is closed.
	for message := range c.send {
		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		if err := w.Close(); err != nil {
			return
		}
	}
}
