package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/SzematPro/ai-task-manager/domain"
)

type fakeQueue struct {
	mu        sync.Mutex
	inFlight  int
	max       int
	count     int
	failAt    int
	sleep     time.Duration
	messages  []string
	createErr error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{failAt: -1, sleep: 1 * time.Millisecond}
}

func (f *fakeQueue) EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error) {
	f.mu.Lock()
	idx := f.count
	f.count++
	f.inFlight++
	if f.inFlight > f.max {
		f.max = f.inFlight
	}
	f.mu.Unlock()

	if f.sleep > 0 {
		select {
		case <-time.After(f.sleep):
		case <-ctx.Done():
			f.mu.Lock()
			f.inFlight--
			f.mu.Unlock()
			return azqueue.EnqueueMessagesResponse{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	if f.failAt >= 0 && idx == f.failAt {
		return azqueue.EnqueueMessagesResponse{}, errors.New("enqueue failure")
	}
	f.messages = append(f.messages, content)
	return azqueue.EnqueueMessagesResponse{}, nil
}

func (f *fakeQueue) Create(ctx context.Context, o *azqueue.CreateOptions) (azqueue.CreateResponse, error) {
	return azqueue.CreateResponse{}, f.createErr
}

func (f *fakeQueue) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func testEvent(t *testing.T, id string) domain.Event {
	t.Helper()
	ev, err := domain.NewEvent(domain.EventTaskCreated, domain.Task{ID: id, Title: "Task " + id})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	return ev
}

func TestQueueConcurrencyForCPU(t *testing.T) {
	tests := []struct {
		name string
		cpu  int
		want int
	}{
		{name: "below minimum", cpu: 0, want: defaultQueueConcurrency},
		{name: "single cpu", cpu: 1, want: queuePerCPU},
		{name: "multi cpu scale", cpu: 4, want: 40},
		{name: "cap applied", cpu: 32, want: maxQueueConcurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := queueConcurrencyForCPU(tt.cpu)
			if got != tt.want {
				t.Fatalf("queueConcurrencyForCPU(%d) = %d, want %d", tt.cpu, got, tt.want)
			}
		})
	}
}

func TestPublisherSendsEnvelopes(t *testing.T) {
	fq := newFakeQueue()
	fq.sleep = 5 * time.Millisecond
	logger, _ := test.NewNullLogger()
	p := newQueuePublisher(fq, Options{Workers: 4, Buffer: 16}, logger)

	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		p.Publish(context.Background(), "user-1", testEvent(t, id))
	}
	p.Close()

	msgs := fq.sent()
	if len(msgs) != 8 {
		t.Fatalf("expected 8 messages, got %d", len(msgs))
	}
	if fq.max < 2 {
		t.Fatalf("expected concurrent sends, max in flight: %d", fq.max)
	}
	var env domain.EventEnvelope
	if err := sonic.UnmarshalString(msgs[0], &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.UserID != "user-1" || env.Event.Type != domain.EventTaskCreated || env.Event.TaskID == "" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestPublisherSequentialWhenConfigured(t *testing.T) {
	fq := newFakeQueue()
	logger, _ := test.NewNullLogger()
	p := newQueuePublisher(fq, Options{Workers: 1, Buffer: 8}, logger)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		p.Publish(context.Background(), "user", testEvent(t, id))
	}
	p.Close()

	if fq.max != 1 {
		t.Fatalf("expected sequential sends, observed max in flight: %d", fq.max)
	}
	if fq.count != 5 {
		t.Fatalf("expected 5 sends, got %d", fq.count)
	}
}

func TestPublisherLogsSendFailures(t *testing.T) {
	fq := newFakeQueue()
	fq.failAt = 0
	logger, hook := test.NewNullLogger()
	p := newQueuePublisher(fq, Options{Workers: 1, Buffer: 4}, logger)
	p.Publish(context.Background(), "user", testEvent(t, "a"))
	p.Publish(context.Background(), "user", testEvent(t, "b"))
	p.Close()

	if len(fq.sent()) != 1 {
		t.Fatalf("expected the second event to be sent, got %d", len(fq.sent()))
	}
	var failures int
	for _, e := range hook.AllEntries() {
		if e.Level == log.ErrorLevel {
			failures++
		}
	}
	if failures != 1 {
		t.Fatalf("expected one logged failure, got %d", failures)
	}
}

func TestPublishAfterCloseDrops(t *testing.T) {
	fq := newFakeQueue()
	logger, hook := test.NewNullLogger()
	p := newQueuePublisher(fq, Options{Workers: 1, Buffer: 1}, logger)
	p.Close()

	p.Publish(context.Background(), "user", testEvent(t, "late"))
	if fq.count != 0 {
		t.Fatalf("expected no sends after close, got %d", fq.count)
	}
	last := hook.LastEntry()
	if last == nil || last.Level != log.WarnLevel {
		t.Fatalf("expected a drop warning, got %+v", last)
	}
}

func TestTryEnqueueJobWaitsForCapacity(t *testing.T) {
	jobs := make(chan publishJob, 1)
	jobs <- publishJob{}

	done := make(chan bool, 1)
	go func() {
		done <- tryEnqueueJob(jobs, publishJob{}, 50*time.Millisecond)
	}()

	select {
	case <-done:
		t.Fatal("tryEnqueueJob returned before capacity was freed")
	case <-time.After(20 * time.Millisecond):
	}

	<-jobs

	select {
	case ok := <-done:
		if !ok {
			t.Fatal("expected successful enqueue after capacity freed")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for enqueue completion")
	}
}

func TestTryEnqueueJobTimesOut(t *testing.T) {
	jobs := make(chan publishJob, 1)
	jobs <- publishJob{}

	if tryEnqueueJob(jobs, publishJob{}, 30*time.Millisecond) {
		t.Fatal("expected enqueue to fail when timeout elapsed")
	}

	select {
	case <-jobs:
	default:
		t.Fatal("expected channel to remain full after timeout")
	}
}

func TestEnsureQueueIgnoresExisting(t *testing.T) {
	fq := newFakeQueue()
	fq.createErr = &azcore.ResponseError{StatusCode: 409, ErrorCode: "QueueAlreadyExists"}
	logger, _ := test.NewNullLogger()
	p := newQueuePublisher(fq, Options{Workers: 1}, logger)
	defer p.Close()

	if err := p.EnsureQueue(context.Background()); err != nil {
		t.Fatalf("expected existing queue to be ignored, got %v", err)
	}
	fq.createErr = errors.New("boom")
	if err := p.EnsureQueue(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
