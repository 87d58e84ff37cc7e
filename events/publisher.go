// Package events ships task events to an Azure Storage queue so other
// services can follow a user's board.
package events

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/SzematPro/ai-task-manager/domain"
)

type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
	Create(ctx context.Context, o *azqueue.CreateOptions) (azqueue.CreateResponse, error)
}

// Options tune the publishing workers. Zero values pick defaults.
type Options struct {
	Workers        int
	Buffer         int
	SendTimeout    time.Duration
	HandoffTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = queueConcurrencyForCPU(runtime.NumCPU())
	}
	if o.Buffer <= 0 {
		o.Buffer = o.Workers * defaultBufferPerWorker
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = defaultSendTimeout
	}
	if o.HandoffTimeout < 0 {
		o.HandoffTimeout = 0
	} else if o.HandoffTimeout == 0 {
		o.HandoffTimeout = defaultHandoffTimeout
	}
	return o
}

// QueuePublisher enqueues events from a fixed pool of workers. Publish never
// waits on the queue itself; events that cannot be handed off are dropped and
// logged.
type QueuePublisher struct {
	queue  queueClient
	opts   Options
	logger *log.Logger

	jobs      chan publishJob
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewQueuePublisher connects to the named queue and starts the workers.
func NewQueuePublisher(connStr, queueName string, opts Options, logger *log.Logger) (*QueuePublisher, error) {
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return newQueuePublisher(q, opts, logger), nil
}

func newQueuePublisher(q queueClient, opts Options, logger *log.Logger) *QueuePublisher {
	if logger == nil {
		logger = log.StandardLogger()
	}
	opts = opts.withDefaults()
	p := &QueuePublisher{
		queue:  q,
		opts:   opts,
		logger: logger,
		jobs:   make(chan publishJob, opts.Buffer),
	}
	for i := 0; i < opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	logger.Infof("event publisher started, workers: %d, buffer: %d, timeout: %v, handoff: %v", opts.Workers, opts.Buffer, opts.SendTimeout, opts.HandoffTimeout)
	return p
}

// EnsureQueue creates the queue, ignoring an existing one.
func (p *QueuePublisher) EnsureQueue(ctx context.Context) error {
	_, err := p.queue.Create(ctx, nil)
	var respErr *azcore.ResponseError
	if err != nil && !(errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists") {
		return err
	}
	return nil
}

// Publish hands the event to the workers.
func (p *QueuePublisher) Publish(ctx context.Context, ownerID string, ev domain.Event) {
	job := publishJob{env: domain.EventEnvelope{UserID: ownerID, Event: ev}}
	if !tryEnqueueJob(p.jobs, job, p.opts.HandoffTimeout) {
		p.logger.WithFields(log.Fields{"user": ownerID, "event": ev.Type, "taskId": ev.TaskID}).Warn("event dropped, publisher saturated")
	}
}

// Close stops accepting events and waits for in-flight sends.
func (p *QueuePublisher) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}

func (p *QueuePublisher) worker(id int) {
	defer p.wg.Done()
	for j := range p.jobs {
		if err := p.send(j.env); err != nil {
			p.logger.Errorf("enqueue failed, err: %v, user: %s, event: %s, worker: %d", err, j.env.UserID, j.env.Event.Type, id)
		}
	}
}

func (p *QueuePublisher) send(env domain.EventEnvelope) error {
	data, err := sonic.MarshalString(env)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.SendTimeout)
	defer cancel()
	_, err = p.queue.EnqueueMessage(ctx, data, nil)
	return err
}

// LogPublisher writes events to the log. It stands in when no queue is
// configured.
type LogPublisher struct {
	Logger *log.Logger
}

func (l LogPublisher) Publish(ctx context.Context, ownerID string, ev domain.Event) {
	logger := l.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	logger.WithFields(log.Fields{"user": ownerID, "event": ev.Type, "taskId": ev.TaskID}).Debug("task event")
}
