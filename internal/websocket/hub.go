package websocket

import "log"

// notification carries serialized payload bytes addressed to a set of users.
type notification struct {
	recipientIDs []uint
	payload      []byte
}

// Hub maintains the set of connected clients and pushes notifications to them.
// One connection per user; a new connection replaces the old one.
type Hub struct {
	clients map[uint]*Client

	register   chan *Client
	unregister chan *Client

	// Notifications aimed at specific users.
	notify chan notification
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uint]*Client),
		notify:     make(chan notification, 256),
	}
}

// DeliverToUsers queues payload for push to every connected user in
// recipientIDs. The send is non-blocking so the caller (the Kafka consumer)
// never stalls on a slow hub.
func (h *Hub) DeliverToUsers(recipientIDs []uint, payload []byte) {
	select {
	case h.notify <- notification{recipientIDs: recipientIDs, payload: payload}:
	default:
		log.Printf("Warning: hub notify channel is full, dropping notification for %d recipients", len(recipientIDs))
	}
}

// Run starts the hub and listens for events on its channels.
func (h *Hub) Run() {
	log.Println("WebSocket Hub Run loop started.")
	for {
		select {
		case client := <-h.register:
			if existingClient, ok := h.clients[client.UserID]; ok {
				log.Printf("Warning: user %d already connected, replacing the old connection.", client.UserID)
				close(existingClient.send)
			}
			h.clients[client.UserID] = client
			log.Printf("Client registered: UserID %d", client.UserID)

		case client := <-h.unregister:
			// Only remove the stored client if it is the one unregistering; a
			// newer connection for the same user must not be torn down.
			if storedClient, ok := h.clients[client.UserID]; ok && storedClient == client {
				delete(h.clients, client.UserID)
				close(client.send)
				log.Printf("Client unregistered: UserID %d", client.UserID)
			}

		case n := <-h.notify:
			for _, recipientID := range n.recipientIDs {
				client, ok := h.clients[recipientID]
				if !ok {
					// User is not connected to this hub instance.
					continue
				}
				select {
				case client.send <- n.payload:
				default:
					// A full send buffer means the client is slow or gone.
					log.Printf("Warning: send channel for UserID %d is full, removing client.", recipientID)
					close(client.send)
					delete(h.clients, recipientID)
				}
			}
		}
	}
}
