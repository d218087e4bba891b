package services

import (
	"sync"
	"time"
)

// questionTimer is the single-slot countdown for the one open question.
// Arming it replaces any previously armed timer, mirroring the
// single-active-question invariant. The fire callback still runs with the
// question id the timer was armed for; callers must re-check poll state
// before acting on it, since Stop cannot win a race with a timer that has
// already fired.
type questionTimer struct {
	mu    sync.Mutex
	timer *time.Timer
}

func (t *questionTimer) Arm(questionID string, d time.Duration, fire func(questionID string)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, func() { fire(questionID) })
}

func (t *questionTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
