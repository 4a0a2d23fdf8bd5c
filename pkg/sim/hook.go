package sim

// Hook is a synchronous observer list. Listeners run in subscription order
// on the goroutine that fires the hook.
type Hook struct {
	nextID    int
	listeners []listener
}

type listener struct {
	id int
	fn func()
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is a no-op.
func (h *Hook) Subscribe(fn func()) func() {
	h.nextID++
	id := h.nextID
	h.listeners = append(h.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range h.listeners {
			if l.id == id {
				h.listeners = append(h.listeners[:i:i], h.listeners[i+1:]...)
				return
			}
		}
	}
}

// Fire calls every listener.
func (h *Hook) Fire() {
	for _, l := range h.listeners {
		l.fn()
	}
}

func (h *Hook) Len() int {
	return len(h.listeners)
}
