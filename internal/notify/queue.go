package notify

import (
	"sync"
)

// Queue holds reminder notifications awaiting operator action. Pending ids
// keep insertion order and are surfaced one at a time; acknowledged ids go
// into the notified set and are never queued again for the process lifetime.
type Queue struct {
	mu       sync.Mutex
	pending  []string
	inQueue  map[string]struct{}
	notified map[string]struct{}
}

func NewQueue() *Queue {
	return &Queue{
		inQueue:  make(map[string]struct{}),
		notified: make(map[string]struct{}),
	}
}

// Enqueue merges ids into the pending list. Ids already pending or already
// notified are skipped; existing order is preserved.
func (q *Queue) Enqueue(ids []string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range ids {
		if _, ok := q.inQueue[id]; ok {
			continue
		}
		if _, ok := q.notified[id]; ok {
			continue
		}
		q.inQueue[id] = struct{}{}
		q.pending = append(q.pending, id)
	}
}

// Front returns the earliest pending id.
func (q *Queue) Front() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return "", false
	}
	return q.pending[0], true
}

// Pending returns a copy of the pending ids in order.
func (q *Queue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := make([]string, len(q.pending))
	copy(ids, q.pending)
	return ids
}

// Acknowledge removes id from the pending list and permanently marks it as
// notified. Safe to call for ids that were never queued.
func (q *Queue) Acknowledge(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notified[id] = struct{}{}
	if _, ok := q.inQueue[id]; !ok {
		return
	}
	delete(q.inQueue, id)
	for i, pending := range q.pending {
		if pending == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			break
		}
	}
}

// Notified reports whether id has already been acknowledged.
func (q *Queue) Notified(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.notified[id]
	return ok
}
