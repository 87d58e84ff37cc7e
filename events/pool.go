package events

import (
	"time"

	"github.com/SzematPro/ai-task-manager/domain"
)

const (
	defaultQueueConcurrency = 8
	queuePerCPU             = 10
	maxQueueConcurrency     = 64

	defaultBufferPerWorker = 128
	defaultSendTimeout     = 60 * time.Second
	defaultHandoffTimeout  = 15 * time.Millisecond
)

type publishJob struct {
	env domain.EventEnvelope
}

// queueConcurrencyForCPU scales the worker count with the CPU count.
func queueConcurrencyForCPU(cpu int) int {
	if cpu < 1 {
		return defaultQueueConcurrency
	}
	return min(cpu*queuePerCPU, maxQueueConcurrency)
}

// tryEnqueueJob hands job to the workers, waiting at most handoff when the
// buffer is full. It reports false when the job was not accepted.
func tryEnqueueJob(jobs chan publishJob, job publishJob, handoff time.Duration) bool {
	if jobs == nil {
		return false
	}

	if ok, closed := trySendNonBlocking(jobs, job); closed {
		return false
	} else if ok {
		return true
	}

	if handoff <= 0 {
		return false
	}

	timer := time.NewTimer(handoff)
	defer timer.Stop()

	ok, closed := sendWithTimer(jobs, job, timer.C)
	if closed {
		return false
	}
	return ok
}

func trySendNonBlocking(ch chan publishJob, job publishJob) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case ch <- job:
		return true, false
	default:
		return false, false
	}
}

func sendWithTimer(ch chan publishJob, job publishJob, timer <-chan time.Time) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case ch <- job:
		return true, false
	case <-timer:
		return false, false
	}
}
