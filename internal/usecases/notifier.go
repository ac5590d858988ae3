package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"referral-bot.backend/pkg/logger"
	"referral-bot.backend/pkg/metrics"
)

// Sender delivers a message to a user over the messaging provider
type Sender interface {
	Send(ctx context.Context, userID int64, text string) error
}

// Notifier is the best-effort outbound contract: Notify never blocks on
// delivery and never reports failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string)
}

type notification struct {
	ctx    context.Context
	userID int64
	text   string
}

// Dispatcher is a Notifier backed by a bounded queue and a worker pool
type Dispatcher struct {
	sender  Sender
	queue   chan notification
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts workers that drain the queue into sender
func NewDispatcher(sender Sender, queueSize, workers int, timeout time.Duration) *Dispatcher {
	if queueSize < 0 {
		queueSize = 0
	}
	if workers <= 0 {
		workers = 1
	}
	d := &Dispatcher{
		sender:  sender,
		queue:   make(chan notification, queueSize),
		timeout: timeout,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Notify enqueues the message; a full or closed queue drops it
func (d *Dispatcher) Notify(ctx context.Context, userID int64, text string) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.Notifications.WithLabelValues("dropped").Inc()
		logger.Warn(ctx, "Notification dropped after shutdown", zap.Int64("recipient", userID))
		return
	}

	select {
	case d.queue <- notification{ctx: context.WithoutCancel(ctx), userID: userID, text: text}:
	default:
		metrics.Notifications.WithLabelValues("dropped").Inc()
		logger.Warn(ctx, "Notification queue full, dropping message", zap.Int64("recipient", userID))
	}
}

// Close stops accepting messages and waits for queued ones to be sent
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n notification) {
	ctx := n.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("sender panic: %v", r)
			}
		}()
		return d.sender.Send(ctx, n.userID, n.text)
	}()
	if err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		logger.Warn(ctx, "Notification delivery failed", zap.Int64("recipient", n.userID), zap.Error(err))
		return
	}
	metrics.Notifications.WithLabelValues("sent").Inc()
}
