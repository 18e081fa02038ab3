package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/flowzoneai/flowzone/internal/logger"
	"github.com/flowzoneai/flowzone/internal/session"
)

// Broadcaster fans tracker events out to connected SSE clients. It implements
// session.Sink, so the tracker pushes events directly; no store polling.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[chan session.Event]bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewBroadcaster creates a broadcaster with no clients.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[chan session.Event]bool),
		stopCh:  make(chan struct{}),
	}
}

// Start launches the heartbeat loop.
func (b *Broadcaster) Start(ctx context.Context) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.sendHeartbeats(ctx)
	}()
}

// Stop terminates the heartbeat loop and closes all client channels.
func (b *Broadcaster) Stop() {
	close(b.stopCh)
	b.wg.Wait()

	b.mu.Lock()
	for ch := range b.clients {
		close(ch)
		delete(b.clients, ch)
	}
	b.mu.Unlock()
}

// Emit broadcasts a tracker event to every client. Satisfies session.Sink.
func (b *Broadcaster) Emit(e session.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.clients {
		select {
		case ch <- e:
		default:
			// Slow client, drop the event rather than block the tracker
			logger.Debug().Str("type", string(e.Type)).Msg("SSE client channel full, dropping event")
		}
	}
}

// Subscribe registers a new client channel.
func (b *Broadcaster) Subscribe() chan session.Event {
	ch := make(chan session.Event, 100)
	b.mu.Lock()
	b.clients[ch] = true
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a client channel.
func (b *Broadcaster) Unsubscribe(ch chan session.Event) {
	b.mu.Lock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Broadcaster) sendHeartbeats(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stopCh:
			return
		case <-ticker.C:
			b.Emit(session.Event{Type: "heartbeat", At: time.Now().UTC()})
		}
	}
}

// ServeHTTP streams tracker events to the client until it disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	writeSSEEvent(w, session.Event{Type: "connected", Message: "Connected to flowzone dashboard", At: time.Now().UTC()})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			writeSSEEvent(w, e)
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, e session.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}

	_, _ = fmt.Fprintf(w, "event: %s\n", e.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
