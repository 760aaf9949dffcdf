package deferred

import "sync"

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// Discipline selects which item Queue.RemoveNext returns.
type Discipline int

const (
	// FIFO removes the oldest item first.
	FIFO Discipline = iota
	// LIFO removes the most recently appended item first.
	LIFO
)

// String returns a human-readable representation of the discipline.
func (d Discipline) String() string {
	switch d {
	case FIFO:
		return "FIFO"
	case LIFO:
		return "LIFO"
	default:
		return "Unknown"
	}
}

// Collector receives the result of a deferred job on the foreground goroutine.
type Collector func(value interface{}, err error)

// Item is a completed job waiting to be collected.
type Item struct {
	TaskName  string
	Collector Collector
	Value     interface{}
	Err       error
}

// Queue is a mutex guarded list of completed items.
// Workers append, the foreground removes.
type Queue struct {
	mu         sync.Mutex
	items      []Item
	discipline Discipline
}

// NewQueue creates an empty queue with the given removal discipline.
func NewQueue(d Discipline) *Queue {
	return &Queue{
		items:      make([]Item, 0, defaultQueueCap),
		discipline: d,
	}
}

// Discipline returns the removal discipline.
func (q *Queue) Discipline() Discipline {
	return q.discipline
}

// Append adds an item at the tail.
func (q *Queue) Append(item Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
}

// RemoveNext removes one item according to the discipline.
// Returns false if the queue is empty.
func (q *Queue) RemoveNext() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	if n == 0 {
		return Item{}, false
	}

	var item Item
	if q.discipline == LIFO {
		item = q.items[n-1]
		q.items[n-1] = Item{}
		q.items = q.items[:n-1]
	} else {
		item = q.items[0]
		// Zero out the slot so the collector and value can be collected.
		q.items[0] = Item{}
		q.items = q.items[1:]
	}
	q.maybeCompactLocked()

	return item, true
}

// CountWithName returns how many queued items carry the given task name.
func (q *Queue) CountWithName(name string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for i := range q.items {
		if q.items[i].TaskName == name {
			count++
		}
	}
	return count
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) maybeCompactLocked() {
	n := len(q.items)
	c := cap(q.items)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.items = make([]Item, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := c / 2
	if newCap < defaultQueueCap {
		newCap = defaultQueueCap
	}
	if newCap < n {
		newCap = n
	}

	compacted := make([]Item, n, newCap)
	copy(compacted, q.items)
	q.items = compacted
}
