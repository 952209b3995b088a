// Package sse implements a Server-Sent Events broker that tells editor
// clients when the tag schemas change.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Event types published by the schema watcher.
const (
	EventSchemaReloaded = "schema.reloaded"
	EventSchemaError    = "schema.error"
)

const (
	clientBuffer      = 64
	defaultKeepAlive  = 30 * time.Second
	keepAliveComment  = ": keep-alive\n\n"
	publishQueueDepth = 256
)

// Broker fans schema events out to connected editors.
//
// One goroutine owns the client set and the last schema event. A client
// that connects after a reload receives that event first, so it never has
// to guess which schema generation it is looking at.
type Broker struct {
	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	countReqCh    chan chan int

	// KeepAlive is the interval between comment frames on idle streams.
	// Zero disables them.
	KeepAlive time.Duration

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker and starts its event loop.
func NewBroker() *Broker {
	b := &Broker{
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, publishQueueDepth),
		countReqCh:    make(chan chan int),
		KeepAlive:     defaultKeepAlive,
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func isSchemaEvent(typ string) bool {
	return typ == EventSchemaReloaded || typ == EventSchemaError
}

func (b *Broker) run() {
	defer close(b.stopped)

	var (
		clients = make(map[chan []byte]struct{})
		seq     uint64
		last    []byte
	)

	frame := func(event Event) ([]byte, bool) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return nil, false
		}
		seq++
		return []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload)), true
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}
			if last != nil {
				ch <- last
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			raw, ok := frame(event)
			if !ok {
				continue
			}
			if isSchemaEvent(event.Type) {
				last = raw
			}
			for ch := range clients {
				select {
				case ch <- raw:
				default:
					// Slow client; drop rather than stall the loop.
				}
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the event loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. The returned channel already holds the
// latest schema event, if any was published.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish queues an event for every connected client.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishSchemaReload announces a new registry with the given tag names.
func (b *Broker) PublishSchemaReload(path string, tags []string) {
	if tags == nil {
		tags = []string{}
	}
	b.Publish(Event{Type: EventSchemaReloaded, Data: map[string]any{"path": path, "tags": tags}})
}

// PublishSchemaError announces a failed reload; clients keep the previous schemas.
func (b *Broker) PublishSchemaError(path string, err error) {
	b.Publish(Event{Type: EventSchemaError, Data: map[string]string{"path": path, "error": err.Error()}})
}

// ServeHTTP streams events to one client (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	var tick <-chan time.Time
	if b.KeepAlive > 0 {
		t := time.NewTicker(b.KeepAlive)
		defer t.Stop()
		tick = t.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			if _, err := w.Write([]byte(keepAliveComment)); err != nil {
				return
			}
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
