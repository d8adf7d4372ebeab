package notification

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type job struct {
	index int
	msg   Message
}

// Dispatcher fans a batch of messages out over a fixed pool of workers.
type Dispatcher struct {
	size   int
	sender Sender
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher with size workers.
func NewDispatcher(size int, sender Sender, logger *zap.Logger) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{size: size, sender: sender, logger: logger.With(zap.String("component", "dispatcher"))}
}

// SendBatch delivers msgs and reports per-message failures. Failures are
// listed in input order. Messages not yet started when ctx is cancelled fail
// with the context error.
func (d *Dispatcher) SendBatch(ctx context.Context, msgs []Message) BatchResult {
	if len(msgs) == 0 {
		return BatchResult{}
	}

	jobs := make(chan job, d.size)
	errs := make([]error, len(msgs))

	workers := d.size
	if workers > len(msgs) {
		workers = len(msgs)
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.worker(ctx, id, jobs, errs)
		}(i)
	}

	for i, msg := range msgs {
		jobs <- job{index: i, msg: msg}
	}
	close(jobs)
	wg.Wait()

	var result BatchResult
	for i, err := range errs {
		if err == nil {
			result.Sent++
			continue
		}
		result.Failures = append(result.Failures, Failure{
			Kind:      msgs[i].Kind,
			Ref:       msgs[i].Ref,
			Recipient: msgs[i].Recipient(),
			Error:     err.Error(),
		})
	}
	d.logger.Info("Batch sent", zap.Int("sent", result.Sent), zap.Int("failed", len(result.Failures)))
	return result
}

// worker drains jobs; each job writes only its own slot in errs.
func (d *Dispatcher) worker(ctx context.Context, id int, jobs <-chan job, errs []error) {
	for j := range jobs {
		if err := ctx.Err(); err != nil {
			errs[j.index] = err
			continue
		}
		d.logger.Debug("Worker processing message",
			zap.Int("worker", id),
			zap.String("kind", string(j.msg.Kind)),
			zap.String("ref", j.msg.Ref),
		)
		if err := d.sender.Send(ctx, j.msg); err != nil {
			d.logger.Warn("Message delivery failed",
				zap.String("kind", string(j.msg.Kind)),
				zap.String("recipient", j.msg.Recipient()),
				zap.Error(err),
			)
			errs[j.index] = err
		}
	}
}
