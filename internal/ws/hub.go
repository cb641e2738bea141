package ws

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventAssetUploaded = "asset_uploaded"
	EventAssetDeleted  = "asset_deleted"
	EventPartUpdated   = "part_updated"
)

// Event is one asset/metadata mutation broadcast to connected clients so they
// can refresh their folder listing.
type Event struct {
	Type    string `json:"type"`
	Ts      string `json:"ts"`
	Seq     int64  `json:"seq"`
	Folder  string `json:"folder,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

type Message struct {
	Seq    int64
	Folder string
	Data   []byte
}

const replayBufferSize = 256

// Hub fans mutation events out to subscribers. A small replay buffer lets a
// reconnecting client catch up from its last seen sequence number.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	seq     int64
	buffer  []Message
}

type Client struct {
	folder string
	send   chan Message
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Subscribe registers a client scoped to one storage folder. The client only
// receives events for that folder, plus unscoped broadcasts.
func (h *Hub) Subscribe(folder string) *Client {
	client, _ := h.SubscribeFrom(folder, 0)
	return client
}

// SubscribeFrom registers a client and returns buffered events newer than
// afterSeq, restricted to the client's folder.
func (h *Hub) SubscribeFrom(folder string, afterSeq int64) (client *Client, backlog []Message) {
	c := &Client{folder: folder, send: make(chan Message, 128)}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}

	if afterSeq > 0 && len(h.buffer) > 0 {
		out := make([]Message, 0, len(h.buffer))
		for _, msg := range h.buffer {
			if msg.Seq > afterSeq && visibleTo(c.folder, msg.Folder) {
				out = append(out, msg)
			}
		}
		backlog = out
	}
	return c, backlog
}

// visibleTo decides delivery: unscoped events reach everyone, folder-scoped
// events reach only that folder's subscribers.
func visibleTo(subscriberFolder, eventFolder string) bool {
	return eventFolder == "" || eventFolder == subscriberFolder
}

func (c *Client) Messages() <-chan Message {
	return c.send
}

func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) Publish(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	evt.Seq = h.seq
	evt.Ts = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	msg := Message{Seq: evt.Seq, Folder: evt.Folder, Data: data}

	h.buffer = append(h.buffer, msg)
	if len(h.buffer) > replayBufferSize {
		h.buffer = h.buffer[len(h.buffer)-replayBufferSize:]
	}

	for c := range h.clients {
		if !visibleTo(c.folder, msg.Folder) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			// Slow consumer: drop the event rather than block the publisher.
		}
	}
}
