package chat

import "sync"

// convLocks serializes appends per conversation id. Concurrent requests
// against the same conversation queue behind one mutex, so the persisted
// turn sequence is total and gap-free; requests on different conversations
// never contend.
type convLocks struct {
	mu    sync.Mutex
	locks map[string]*convLock
}

type convLock struct {
	mu   sync.Mutex
	refs int
}

func newConvLocks() *convLocks {
	return &convLocks{locks: make(map[string]*convLock)}
}

// acquire blocks until the conversation's lock is held and returns the
// release function. Entries are reference-counted and removed once idle so
// the map does not grow with conversation count.
func (c *convLocks) acquire(id string) func() {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &convLock{}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, id)
		}
		c.mu.Unlock()
	}
}
