package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// target identifies the audience of a broadcast: one branch room, one public
// table room, or one role room.
type target struct {
	branchID uuid.UUID
	tableID  uuid.UUID
	role     string
}

type broadcastEvent struct {
	target target
	event  Event
}

// Hub maintains the set of active clients and broadcasts messages to them.
// Cashier/kitchen screens subscribe to their branch room, customer-facing
// table displays subscribe to a public table room, and role-wide alerts go
// to role rooms.
type Hub struct {
	branchRooms map[uuid.UUID]map[*Client]bool
	tableRooms  map[uuid.UUID]map[*Client]bool
	roleRooms   map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastEvent

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		branchRooms: make(map[uuid.UUID]map[*Client]bool),
		tableRooms:  make(map[uuid.UUID]map[*Client]bool),
		roleRooms:   make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *broadcastEvent, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.addClient(client)
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeClient(client)
			h.mu.Unlock()

		case ev := <-h.broadcast:
			h.mu.Lock()
			h.deliver(ev)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) addClient(c *Client) {
	if c.public {
		if h.tableRooms[c.tableID] == nil {
			h.tableRooms[c.tableID] = make(map[*Client]bool)
		}
		h.tableRooms[c.tableID][c] = true
		return
	}
	if h.branchRooms[c.branchID] == nil {
		h.branchRooms[c.branchID] = make(map[*Client]bool)
	}
	h.branchRooms[c.branchID][c] = true
	if h.roleRooms[c.role] == nil {
		h.roleRooms[c.role] = make(map[*Client]bool)
	}
	h.roleRooms[c.role][c] = true
}

func (h *Hub) removeClient(c *Client) {
	removed := false
	if c.public {
		if clients, ok := h.tableRooms[c.tableID]; ok && clients[c] {
			delete(clients, c)
			removed = true
			if len(clients) == 0 {
				delete(h.tableRooms, c.tableID)
			}
		}
	} else {
		if clients, ok := h.branchRooms[c.branchID]; ok && clients[c] {
			delete(clients, c)
			removed = true
			if len(clients) == 0 {
				delete(h.branchRooms, c.branchID)
			}
		}
		if clients, ok := h.roleRooms[c.role]; ok {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.roleRooms, c.role)
			}
		}
	}
	if removed {
		close(c.send)
	}
}

func (h *Hub) deliver(ev *broadcastEvent) {
	message, err := json.Marshal(ev.event)
	if err != nil {
		log.Printf("ERROR: marshal ws event: %v", err)
		return
	}

	var clients map[*Client]bool
	switch {
	case ev.target.role != "":
		clients = h.roleRooms[ev.target.role]
	case ev.target.tableID != uuid.Nil:
		clients = h.tableRooms[ev.target.tableID]
	default:
		clients = h.branchRooms[ev.target.branchID]
	}

	for client := range clients {
		select {
		case client.send <- message:
		default:
			// Client's send buffer is full, close and unregister
			close(client.send)
			delete(clients, client)
		}
	}
}

// EmitToBranch sends an event to all staff clients in a branch room.
// Best-effort: if the hub buffer is full the event is dropped and logged.
func (h *Hub) EmitToBranch(branchID uuid.UUID, eventName string, payload interface{}) {
	h.emit(target{branchID: branchID}, eventName, payload)
}

// EmitToPublicTable sends an event to the customer-facing display of a table.
func (h *Hub) EmitToPublicTable(tableID uuid.UUID, eventName string, payload interface{}) {
	h.emit(target{tableID: tableID}, eventName, payload)
}

// EmitToRole sends an event to every connected client holding a role.
func (h *Hub) EmitToRole(role string, eventName string, payload interface{}) {
	h.emit(target{role: role}, eventName, payload)
}

func (h *Hub) emit(t target, eventName string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal ws payload for %s: %v", eventName, err)
		return
	}
	select {
	case h.broadcast <- &broadcastEvent{target: t, event: Event{Type: eventName, Payload: data}}:
	default:
		log.Printf("ERROR: ws broadcast buffer full, dropping %s", eventName)
	}
}
