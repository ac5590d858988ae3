package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"referral-bot.backend/pkg/logger"
	"referral-bot.backend/pkg/metrics"
)

// EventHandler handles a single converted event
type EventHandler interface {
	Handle(ctx context.Context, ev *Event) error
}

// Processor fans updates out to goroutines, bounded by a semaphore
type Processor struct {
	handler EventHandler
	sem     *semaphore.Weighted
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewProcessor creates a processor running at most workers events at once
func NewProcessor(handler EventHandler, workers int, timeout time.Duration) *Processor {
	if workers <= 0 {
		workers = 1
	}
	return &Processor{
		handler: handler,
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: timeout,
	}
}

// Process starts handling update in the background. It blocks only while all
// slots are busy, and fails when ctx ends first.
func (p *Processor) Process(ctx context.Context, update tgbotapi.Update) error {
	ev, ok := FromUpdate(update)
	if !ok {
		metrics.UpdatesHandled.WithLabelValues("ignored").Inc()
		return nil
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		p.handle(context.WithoutCancel(ctx), ev)
	}()
	return nil
}

// Run consumes updates until ctx ends or the channel closes, then waits for
// in-flight events
func (p *Processor) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer p.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := p.Process(ctx, update); err != nil {
				return
			}
		}
	}
}

// Wait blocks until every started event finished
func (p *Processor) Wait() {
	p.wg.Wait()
}

func (p *Processor) handle(ctx context.Context, ev *Event) {
	ctx = logger.WithUpdate(ctx, ev.UpdateID, ev.UserID)
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panic: %v", r)
			}
		}()
		return p.handler.Handle(ctx, ev)
	}()

	metrics.UpdatesHandled.WithLabelValues(ev.Action).Inc()
	if err != nil {
		logger.Warn(ctx, "Update handling failed", zap.String("action", ev.Action), zap.Error(err))
	}
}
