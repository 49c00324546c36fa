package sse

import "sync"

// simple hub for SSE, keyed by run id

var (
	mu    sync.Mutex
	conns = map[string][]chan string{}
)

// Subscribe registers a client for id, returns the channel and an
// unsubscribe function.
func Subscribe(id string) (chan string, func()) {
	ch := make(chan string, 16)

	mu.Lock()
	conns[id] = append(conns[id], ch)
	mu.Unlock()

	cancel := func() {
		mu.Lock()
		defer mu.Unlock()
		list := conns[id]
		for i, c := range list {
			if c == ch {
				conns[id] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}

	return ch, cancel
}

// Publish sends a message to all subscribers of the run id.
func Publish(id, msg string) {
	mu.Lock()
	list := append([]chan string(nil), conns[id]...)
	mu.Unlock()

	for _, ch := range list {
		select {
		case ch <- msg:
		default:
			// drop if the subscriber's channel is full
		}
	}
}
