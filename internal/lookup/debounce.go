package lookup

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Debouncer delays an action until input has quiesced for a fixed interval.
// Each Notify cancels any pending submission and reschedules, so rapid
// keystroke-equivalent notifications collapse into a single action.
type Debouncer struct {
	mu        sync.Mutex
	delay     time.Duration
	timer     *time.Timer
	pendingID string
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Notify schedules fn to run after the debounce interval, superseding any
// pending submission. It returns the cancellation id of the scheduled run.
func (d *Debouncer) Notify(fn func()) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	id := uuid.New().String()
	d.pendingID = id
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A later Notify or Cancel supersedes this run.
		if d.pendingID != id {
			d.mu.Unlock()
			return
		}
		d.pendingID = ""
		d.mu.Unlock()
		fn()
	})
	return id
}

// Cancel aborts the pending submission, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pendingID = ""
}
