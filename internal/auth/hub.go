package auth

import "sync"

// hub fans auth events out to subscribers in subscription order.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Event)
	keys []int
}

func (h *hub) subscribe(fn func(Event)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[int]func(Event))
	}
	id := h.next
	h.next++
	h.subs[id] = fn
	h.keys = append(h.keys, id)

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
		for i, k := range h.keys {
			if k == id {
				h.keys = append(h.keys[:i], h.keys[i+1:]...)
				break
			}
		}
	}
}

func (h *hub) publish(ev Event) {
	h.mu.Lock()
	fns := make([]func(Event), 0, len(h.keys))
	for _, k := range h.keys {
		fns = append(fns, h.subs[k])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
