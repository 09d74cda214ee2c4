package lookup

import (
	"sync"

	"github.com/cesargomez89/movielog/internal/domain"
)

// Queue is the delivery channel between producers and the polling consumer.
// It is strictly LIFO so the consumer always prefers the freshest snapshot
// when overlapping searches complete out of order. It is the only mutable
// state shared across goroutines in the pipeline.
type Queue struct {
	mu    sync.Mutex
	items [][]domain.MovieBag
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push places one result snapshot on the queue.
func (q *Queue) Push(snapshot []domain.MovieBag) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, snapshot)
}

// TryPop removes and returns the newest snapshot without blocking. The
// second return is false when the queue is empty.
func (q *Queue) TryPop() ([]domain.MovieBag, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	last := len(q.items) - 1
	snapshot := q.items[last]
	q.items[last] = nil
	q.items = q.items[:last]
	return snapshot, true
}

// Len returns the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
