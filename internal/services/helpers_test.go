package services_test

import (
	"sync"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"github.com/benmeehan/iot-link/internal/constants"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// advance steps fc by step whenever something waits on it, until the test ends.
func advance(t *testing.T, fc *testingclock.FakeClock, step time.Duration) {
	t.Helper()
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-done:
				return
			default:
			}
			if fc.HasWaiters() {
				fc.Step(step)
			}
			time.Sleep(time.Millisecond)
		}
	}()
	t.Cleanup(func() {
		close(done)
		<-stopped
	})
}

// waitForWaiter blocks until something waits on fc or five seconds pass.
func waitForWaiter(fc *testingclock.FakeClock) {
	deadline := time.Now().Add(5 * time.Second)
	for !fc.HasWaiters() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
}

type recordingRecorder struct {
	mu       sync.Mutex
	outcomes []constants.LinkOutcome
	polls    []int
	cleanups []string
}

func (r *recordingRecorder) ObserveAttempt(outcome constants.LinkOutcome, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingRecorder) ObservePolls(polls int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls = append(r.polls, polls)
}

func (r *recordingRecorder) IncCleanupFailure(step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanups = append(r.cleanups, step)
}
