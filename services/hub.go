package services

import (
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub is the fan-out router for the single poll room. Connections register
// on upgrade but only receive broadcasts once they have sent joinRoom;
// moderation can detach a connection from the room without closing it.
type Hub struct {
	clients    map[*Client]bool
	byID       map[string]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex

	pollService *PollService
}

// Client is one websocket connection attached to the hub.
type Client struct {
	hub      *Hub
	id       string
	socket   *websocket.Conn
	send     chan []byte
	inRoom   bool   // guarded by hub.mu
	userType string // guarded by hub.mu; set by joinRoom
}

func NewHub(pollService *PollService) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		byID:        make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		pollService: pollService,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.byID[client.id] = client
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("Client registered: %s - Total clients: %d", client.id, total)

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				delete(h.byID, client.id)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			if ok {
				// outside the lock: the service may broadcast while cleaning up
				h.pollService.HandleDisconnect(client.id)
				log.Printf("Client unregistered: %s - Total clients: %d", client.id, total)
			}
		}
	}
}

// Broadcast sends an event to every connection currently joined to the room.
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, err := json.Marshal(Message{Type: event, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s broadcast: %v", event, err)
		return
	}

	h.mu.Lock()
	var dropped []string
	for client := range h.clients {
		if !client.inRoom {
			continue
		}
		select {
		case client.send <- data:
		default:
			log.Printf("Client %s send buffer full, dropping connection", client.id)
			h.dropClientLocked(client)
			dropped = append(dropped, client.id)
		}
	}
	h.mu.Unlock()

	for _, id := range dropped {
		h.pollService.HandleDisconnect(id)
	}
}

// Unicast sends an event to one connection by id.
func (h *Hub) Unicast(connID string, event string, payload interface{}) {
	data, err := json.Marshal(Message{Type: event, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s unicast: %v", event, err)
		return
	}

	h.mu.Lock()
	client, ok := h.byID[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	var dropped string
	select {
	case client.send <- data:
	default:
		log.Printf("Client %s send buffer full, dropping connection", client.id)
		h.dropClientLocked(client)
		dropped = client.id
	}
	h.mu.Unlock()

	if dropped != "" {
		h.pollService.HandleDisconnect(dropped)
	}
}

// dropClientLocked removes a stalled client from the hub maps. Callers must
// hold h.mu and release the session mapping afterwards, outside the lock.
func (h *Hub) dropClientLocked(client *Client) {
	delete(h.clients, client)
	delete(h.byID, client.id)
	close(client.send)
}

// Detach removes a connection from the room without closing the socket; the
// client is expected to navigate away on its own.
func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.byID[connID]; ok {
		client.inRoom = false
	}
}

// RegisterClient attaches an upgraded connection to the hub and starts its
// read and write pumps.
func (h *Hub) RegisterClient(conn *websocket.Conn) *Client {
	client := &Client{
		hub:    h,
		id:     uuid.NewString(),
		socket: conn,
		send:   make(chan []byte, 256),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) unregisterClient(client *Client) {
	h.unregister <- client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregisterClient(c)
		c.socket.Close()
	}()

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Printf("Error unmarshaling message from %s: %v", c.id, err)
			continue
		}

		c.handleMessage(env)
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		w, err := c.socket.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

// handleMessage dispatches one inbound event. This is a best-effort relay:
// events that fail validation are dropped with no error channel back.
func (c *Client) handleMessage(env Envelope) {
	switch env.Type {
	case "ping":
		data, _ := json.Marshal(Message{Type: "pong", Payload: "pong"})
		select {
		case c.send <- data:
		default:
		}

	case EventJoinRoom:
		var p JoinRoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.UserType == "" {
			return
		}
		c.hub.mu.Lock()
		c.inRoom = true
		c.userType = p.UserType
		c.hub.mu.Unlock()
		c.hub.pollService.JoinRoom(c.id, p.UserType, p.StudentID, p.Name, c.hub)

	case EventChatMessage:
		var p ChatMessagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || strings.TrimSpace(p.Text) == "" {
			return
		}
		c.hub.Broadcast(EventChatMessage, p)

	case EventKickParticipant:
		var p KickParticipantPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.StudentID == "" {
			return
		}
		c.hub.mu.Lock()
		isTeacher := c.userType == "teacher"
		c.hub.mu.Unlock()
		if !isTeacher {
			log.Printf("Ignoring kick from non-teacher connection %s", c.id)
			return
		}
		c.hub.pollService.KickStudent(p.StudentID, c.hub)

	case EventSubmitAnswer:
		var p SubmitAnswerPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.StudentID == "" || p.QuestionID == "" {
			return
		}
		c.hub.pollService.SubmitAnswer(p.StudentID, p.QuestionID, p.Answer, c.hub)

	case EventRequestResults:
		var p RequestResultsPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.QuestionID == "" {
			return
		}
		// unknown ids still get a reply (with null results) so a waiting
		// client never hangs on the request
		c.hub.Unicast(c.id, EventQuestionResults, c.hub.pollService.QuestionResults(p.QuestionID))

	default:
		log.Printf("Unknown message type: %s from %s", env.Type, c.id)
	}
}
