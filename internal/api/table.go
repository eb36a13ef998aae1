package api

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// table owns the correlation state for in-flight requests: the pending set
// of ids still awaiting a reply and the response table of filed replies not
// yet claimed. All access funnels through it; the mutex keeps filing and
// claiming atomic between the dispatch loop and callers. An id is never in
// both maps at once.
type table struct {
	mu      sync.Mutex
	pending map[uuid.UUID]chan struct{}
	filed   map[uuid.UUID]json.RawMessage
}

func newTable() *table {
	return &table{
		pending: make(map[uuid.UUID]chan struct{}),
		filed:   make(map[uuid.UUID]json.RawMessage),
	}
}

// register mints a request id unique against both the pending set and the
// response table and adds it to the pending set. The returned channel is
// closed when the matching reply is filed.
func (t *table) register() (uuid.UUID, <-chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := uuid.New()
	for {
		_, isPending := t.pending[id]
		_, isFiled := t.filed[id]
		if !isPending && !isFiled {
			break
		}
		id = uuid.New()
	}

	ch := make(chan struct{})
	t.pending[id] = ch
	return id, ch
}

// file stores the reply for a pending id, removes the id from the pending
// set, and wakes its waiter. Returns false when the id is not pending,
// which covers late, duplicate, and foreign replies.
func (t *table) file(id uuid.UUID, payload json.RawMessage) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, ok := t.pending[id]
	if !ok {
		return false
	}
	delete(t.pending, id)
	t.filed[id] = payload
	close(ch)
	return true
}

// known reports whether the id is currently pending or filed.
func (t *table) known(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.pending[id]; ok {
		return true
	}
	_, ok := t.filed[id]
	return ok
}

// claim pops the filed reply for id. Returns false when the reply is gone,
// meaning another claimant raced it away.
func (t *table) claim(id uuid.UUID) (json.RawMessage, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	payload, ok := t.filed[id]
	if !ok {
		return nil, false
	}
	delete(t.filed, id)
	return payload, true
}

// deregister drops the id from both maps. Used when a call gives up on its
// reply, so a late answer is dropped as unexpected instead of leaking.
func (t *table) deregister(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.pending, id)
	delete(t.filed, id)
}
