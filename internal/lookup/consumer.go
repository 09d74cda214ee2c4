package lookup

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/movielog/internal/domain"
)

// Consumer polls the queue on a fixed short cadence and hands each snapshot
// to the caller's apply function, replacing the candidate view wholesale.
// The dequeue is non-blocking: an empty tick just yields.
type Consumer struct {
	queue    *Queue
	interval time.Duration
	apply    func([]domain.MovieBag)

	id   string
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewConsumer(queue *Queue, interval time.Duration, apply func([]domain.MovieBag)) *Consumer {
	return &Consumer{
		queue:    queue,
		interval: interval,
		apply:    apply,
		id:       uuid.New().String(),
		stop:     make(chan struct{}),
	}
}

// ID is the cancellation id of the scheduled poll loop.
func (c *Consumer) ID() string {
	return c.id
}

func (c *Consumer) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				if snapshot, ok := c.queue.TryPop(); ok {
					c.apply(snapshot)
				}
			}
		}
	}()
}

// Stop cancels the poll loop and waits for it to exit.
func (c *Consumer) Stop() {
	c.once.Do(func() {
		close(c.stop)
	})
	c.wg.Wait()
}
