package web

import (
	"sync"
	"sync/atomic"
)

// Hub tracks live sessions and fans messages out to all of them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once

	count atomic.Int64
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run serves register, unregister and broadcast requests until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int64(len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
				h.count.Store(int64(len(h.clients)))
			}

		case message := <-h.broadcast:
			h.fanOut(message)

		case <-h.quit:
			// deliver what was queued before shutdown
			for pending := true; pending; {
				select {
				case message := <-h.broadcast:
					h.fanOut(message)
				default:
					pending = false
				}
			}
			for client := range h.clients {
				delete(h.clients, client)
				client.closeSend()
			}
			h.count.Store(0)
			return
		}
	}
}

func (h *Hub) fanOut(message []byte) {
	for client := range h.clients {
		if !client.queue(message) {
			// slow client, drop it
			delete(h.clients, client)
			client.closeSend()
		}
	}
	h.count.Store(int64(len(h.clients)))
}

// Broadcast queues message for every connected client.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// Shutdown disconnects every client and stops Run. Run must have been started.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.done
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	return int(h.count.Load())
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
