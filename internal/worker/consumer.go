// Queue consumer loop.
//
// The consumer long polls the queue, hands each batch to the dispatcher, and
// acknowledges exactly the records the dispatcher marked safe. Acknowledgment
// is per record: succeeded records are deleted even when a sibling in the
// same batch failed, so a redelivered batch shrinks to just the failures.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-telegram-gateway/internal/queue"
)

// Source is the queue-consumption capability the consumer depends on.
type Source interface {
	Receive(ctx context.Context, max int32) ([]queue.Record, error)
	Ack(ctx context.Context, receiptHandle string) error
}

// BatchProcessor turns a batch of records into per-record outcomes.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, records []queue.Record) []Outcome
}

const (
	// defaultBatchSize matches the queue's maximum batch.
	defaultBatchSize = 10
	// errorBackoff is the pause after a failed poll, so a broken queue
	// connection does not spin.
	errorBackoff = 5 * time.Second
)

// Consumer runs the poll → dispatch → ack loop.
type Consumer struct {
	source    Source
	processor BatchProcessor
	batchSize int32
	backoff   time.Duration
}

// ConsumerOption customizes a Consumer.
type ConsumerOption func(*Consumer)

// WithBatchSize sets how many records one poll may deliver.
func WithBatchSize(n int32) ConsumerOption {
	return func(c *Consumer) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithErrorBackoff sets the pause after a failed poll.
func WithErrorBackoff(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// NewConsumer wires a consumer to its queue source and batch processor.
func NewConsumer(source Source, processor BatchProcessor, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		source:    source,
		processor: processor,
		batchSize: defaultBatchSize,
		backoff:   errorBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run loops until ctx is canceled and then returns ctx.Err(). Poll errors are
// logged and retried after a backoff; they never terminate the loop.
func (c *Consumer) Run(ctx context.Context) error {
	log.Info().Int32("batch_size", c.batchSize).Msg("queue consumer started")
	for {
		if err := ctx.Err(); err != nil {
			log.Info().Msg("queue consumer stopped")
			return err
		}

		records, err := c.source.Receive(ctx, c.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Msg("queue receive failed")
			c.sleep(ctx)
			continue
		}
		batchSize.Observe(float64(len(records)))
		if len(records) == 0 {
			continue
		}

		outcomes := c.processor.ProcessBatch(ctx, records)
		for _, out := range outcomes {
			if !out.Acked {
				continue
			}
			if err := c.source.Ack(ctx, out.ReceiptHandle); err != nil {
				// The record will come back; the dedupe store keeps the
				// redelivery from producing a second reply.
				log.Warn().Str("record_id", out.RecordID).Err(err).Msg("ack failed")
			}
		}
	}
}

// sleep waits for the error backoff or context cancellation, whichever
// comes first.
func (c *Consumer) sleep(ctx context.Context) {
	t := time.NewTimer(c.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
