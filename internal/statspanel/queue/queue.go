package queue

import (
	"sync"

	"github.com/statspanel/statspanel/internal/statspanel/domain"
)

// Queue is the unbounded in-memory FIFO buffer between the request handlers
// producing result events and the single aggregation worker consuming them.
// Enqueue never blocks, so accepting a webhook stays off the aggregation path.
// Many producers may append concurrently; the worker is the only consumer.
type Queue struct {
	mu    sync.Mutex
	items []*domain.ResultEvent
}

func New() *Queue {
	return &Queue{}
}

// Enqueue appends an event at the tail.
func (q *Queue) Enqueue(event *domain.ResultEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, event)
}

// TryDequeue removes and returns the head event, or false if the queue is
// empty.
func (q *Queue) TryDequeue() (*domain.ResultEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
