package lookup

import "sync"

// Future is the completion handle of one producer run. It completes with
// nil or with exactly one categorized failure.
type Future struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Done is closed when the run has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Err blocks until the run finishes and returns its outcome.
func (f *Future) Err() error {
	<-f.done
	return f.err
}

func (f *Future) complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}
