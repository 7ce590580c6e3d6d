package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Hub keeps websocket clients grouped by join code and pushes
// invalidation pings to them. It implements Notifier.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

type Client struct {
	hub      *Hub
	id       string
	socket   *websocket.Conn
	send     chan []byte
	gameCode string
	playerID uint
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type outbound struct {
	code string
	data []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			log.WithFields(log.Fields{
				"client": client.id, "code": client.gameCode, "player_id": client.playerID, "total": total,
			}).Debug("client registered")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.WithFields(log.Fields{
					"client": client.id, "code": client.gameCode, "player_id": client.playerID, "total": len(h.clients),
				}).Debug("client unregistered")
			}
			h.mutex.Unlock()

		case msg := <-h.broadcast:
			h.mutex.Lock()
			sent := 0
			for client := range h.clients {
				if client.gameCode != msg.code {
					continue
				}
				select {
				case client.send <- msg.data:
					sent++
				default:
					log.WithField("client", client.id).Warn("send buffer full, dropping client")
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
			log.WithFields(log.Fields{"code": msg.code, "clients": sent}).Debug("invalidation delivered")
		}
	}
}

// Notify queues an invalidation for every client watching code. If the
// queue is full the signal is dropped; clients also poll.
func (h *Hub) Notify(code string) {
	h.BroadcastToGame(code, "invalidate", nil)
}

func (h *Hub) BroadcastToGame(code string, messageType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: messageType, Payload: payload})
	if err != nil {
		log.WithError(err).Error("failed to marshal hub message")
		return
	}

	select {
	case h.broadcast <- outbound{code: NormalizeCode(code), data: data}:
	default:
		log.WithField("code", code).Warn("hub broadcast queue full, dropping message")
	}
}

func (h *Hub) ConnectedPlayers(code string) []uint {
	code = NormalizeCode(code)

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var playerIDs []uint
	for client := range h.clients {
		if client.gameCode == code {
			playerIDs = append(playerIDs, client.playerID)
		}
	}
	return playerIDs
}

func (h *Hub) RegisterClient(conn *websocket.Conn, code string, playerID uint) *Client {
	client := &Client{
		hub:      h,
		id:       uuid.NewString(),
		socket:   conn,
		send:     make(chan []byte, sendBuffer),
		gameCode: NormalizeCode(code),
		playerID: playerID,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	c.socket.SetReadLimit(maxMessageSize)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).WithField("client", c.id).Warn("websocket read error")
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.WithError(err).WithField("client", c.id).Debug("ignoring malformed message")
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage answers application-level pings. The socket is otherwise
// push-only; state changes go through the HTTP API.
func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		data, _ := json.Marshal(Message{Type: "pong"})
		c.hub.sendTo(c, data)
	default:
		log.WithFields(log.Fields{"client": c.id, "type": msg.Type}).Debug("unknown message type")
	}
}

func (h *Hub) sendTo(client *Client, data []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if !h.clients[client] {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}
