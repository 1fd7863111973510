package mailer

import (
	"booknet/internal/metrics"
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultWorkers = 2
	defaultRetries = 3
	channelBuffer  = 256
	sendTimeout    = 15 * time.Second
)

// Dispatcher delivers queued messages on a fixed set of workers with retry.
// Delivery is best-effort: failures are logged and counted, never returned to callers.
type Dispatcher struct {
	queue   chan Message
	mailer  Mailer
	workers int
	retries int
	backoff time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher; non-positive workers or retries use the defaults
func NewDispatcher(m Mailer, workers, retries int) *Dispatcher {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if retries <= 0 {
		retries = defaultRetries
	}
	return &Dispatcher{
		queue:   make(chan Message, channelBuffer),
		mailer:  m,
		workers: workers,
		retries: retries,
		backoff: time.Second,
	}
}

// WithBackoff sets the base delay between attempts, doubled after each failure
func (d *Dispatcher) WithBackoff(b time.Duration) *Dispatcher {
	d.backoff = b
	return d
}

// Start launches the workers. Cancelling ctx aborts pending retries.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.runWorker(ctx, i)
	}
}

// Enqueue queues msg without blocking; it reports false when the message was dropped
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.MailDeliveriesTotal.WithLabelValues("dropped").Inc()
		return false
	}
	select {
	case d.queue <- msg:
		metrics.MailQueueDepth.Inc()
		return true
	default:
		metrics.MailDeliveriesTotal.WithLabelValues("dropped").Inc()
		logrus.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Warn("mail queue full, message dropped")
		return false
	}
}

// Shutdown stops accepting messages and waits for queued ones to be processed
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) runWorker(ctx context.Context, id int) {
	defer d.wg.Done()
	for msg := range d.queue {
		metrics.MailQueueDepth.Dec()
		d.deliver(ctx, id, msg)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, worker int, msg Message) {
	entry := logrus.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject, "worker_id": worker})
	delay := d.backoff
	for attempt := 1; attempt <= d.retries; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err := d.mailer.Send(sendCtx, msg)
		cancel()
		if err == nil {
			metrics.MailDeliveriesTotal.WithLabelValues("sent").Inc()
			entry.WithField("attempt", attempt).Debug("mail sent")
			return
		}
		entry.WithError(err).WithField("attempt", attempt).Warn("mail delivery attempt failed")
		if attempt == d.retries {
			break
		}
		select {
		case <-ctx.Done():
			attempt = d.retries // Stop retrying
		case <-time.After(delay):
			delay *= 2
		}
	}
	metrics.MailDeliveriesTotal.WithLabelValues("failed").Inc()
	entry.Error("mail delivery failed")
}
