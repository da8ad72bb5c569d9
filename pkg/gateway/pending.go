package gateway

import "sync"

// pendingReplies correlates in-flight requests with their replies. Each
// request registers a buffered channel under its correlation id; the reply
// consumer resolves it exactly once.
type pendingReplies struct {
	mu      sync.Mutex
	waiting map[string]chan []byte
}

func newPendingReplies() *pendingReplies {
	return &pendingReplies{waiting: make(map[string]chan []byte)}
}

func (p *pendingReplies) add(id string) chan []byte {
	ch := make(chan []byte, 1)
	p.mu.Lock()
	p.waiting[id] = ch
	p.mu.Unlock()
	return ch
}

// resolve delivers a reply to the waiting caller. Replies for unknown or
// already-dropped correlation ids report false and are discarded.
func (p *pendingReplies) resolve(id string, payload []byte) bool {
	p.mu.Lock()
	ch, ok := p.waiting[id]
	if ok {
		delete(p.waiting, id)
	}
	p.mu.Unlock()
	if !ok {
		return false
	}
	ch <- payload
	return true
}

func (p *pendingReplies) drop(id string) {
	p.mu.Lock()
	delete(p.waiting, id)
	p.mu.Unlock()
}
