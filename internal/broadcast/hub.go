package broadcast

import (
	"log"
	"sync"
)

// Hub owns the set of connected viewers. A single run goroutine holds
// the client map; registration, removal and broadcasts arrive as
// messages. A client whose write fails is dropped on the spot so one
// dead connection cannot stall the stream for everyone else.
type Hub struct {
	logger *log.Logger

	register   chan *Client
	unregister chan *Client
	sends      chan []byte
	counts     chan chan int

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewHub(logger *log.Logger) *Hub {
	h := &Hub{
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sends:      make(chan []byte, 256),
		counts:     make(chan chan int),
		stopCh:     make(chan struct{}),
	}
	h.wg.Add(1)
	go h.run()
	return h
}

// Stop disconnects every client and ends the run loop.
func (h *Hub) Stop() {
	close(h.stopCh)
	h.wg.Wait()
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopCh:
		c.close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopCh:
		c.close()
	}
}

// Broadcast queues payload for delivery to every connected client.
func (h *Hub) Broadcast(payload []byte) {
	select {
	case h.sends <- payload:
	case <-h.stopCh:
	}
}

// Count reports how many clients are connected.
func (h *Hub) Count() int {
	reply := make(chan int, 1)
	select {
	case h.counts <- reply:
		return <-reply
	case <-h.stopCh:
		return 0
	}
}

func (h *Hub) run() {
	defer h.wg.Done()

	clients := make(map[*Client]struct{})
	for {
		select {
		case c := <-h.register:
			clients[c] = struct{}{}
			h.logger.Printf("broadcast: client %s connected (%d total)", c.id, len(clients))

		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				h.logger.Printf("broadcast: client %s disconnected (%d total)", c.id, len(clients))
			}
			c.close()

		case payload := <-h.sends:
			for c := range clients {
				if err := c.send(payload); err != nil {
					h.logger.Printf("broadcast: dropping client %s: %v", c.id, err)
					delete(clients, c)
					c.close()
				}
			}

		case reply := <-h.counts:
			reply <- len(clients)

		case <-h.stopCh:
			for c := range clients {
				c.close()
			}
			return
		}
	}
}
