// Batch dispatcher.
//
// Each record in a batch moves independently through
// Received → Parsing → Resolving-Session → Invoking-Agent → Responding and
// ends Acknowledged or Failed; one record's failure never touches the others.
// A Failed record is simply not acknowledged, so the queue redelivers it
// later, and a record that exhausts the queue's retry limit lands in the
// dead-letter queue — the dispatcher never retries in a loop itself.
//
// Because redelivery can replay a record whose reply already went out, the
// dispatcher consults a best-effort dedupe store before sending; a known
// record is acknowledged without a second send. The store is advisory: when
// it is absent or failing the dispatcher proceeds, accepting a possible
// duplicate reply over a dropped message.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-telegram-gateway/internal/agent"
	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/queue"
)

// Invoker is the agent-invocation capability the dispatcher depends on.
type Invoker interface {
	Invoke(ctx context.Context, sessionID, prompt string) (*agent.Answer, error)
}

// Responder sends the final answer back to the originating chat.
type Responder interface {
	Reply(ctx context.Context, chatID int64, text string) error
}

// DedupeStore remembers which queue records already produced a reply.
// Implementations must be safe for concurrent use.
type DedupeStore interface {
	WasProcessed(ctx context.Context, recordID string) (bool, error)
	MarkProcessed(ctx context.Context, recordID string, chatID int64) error
}

// Outcome is the terminal state of one record within a batch.
type Outcome struct {
	// RecordID is the queue's message ID for correlation.
	RecordID string
	// ReceiptHandle acknowledges this delivery when Acked.
	ReceiptHandle string
	// Acked marks the record safe to acknowledge; un-acked records are
	// redelivered by the queue.
	Acked bool
	// Duplicate marks a record skipped because its reply was already sent.
	Duplicate bool
	// Err carries the failure for non-acked records.
	Err error
}

// Dispatcher processes queue batches.
type Dispatcher struct {
	invoker   Invoker
	responder Responder
	dedupe    DedupeStore // nil disables dedupe
}

// NewDispatcher wires the dispatcher's collaborators. dedupe may be nil, in
// which case every redelivery results in a fresh send.
func NewDispatcher(invoker Invoker, responder Responder, dedupe DedupeStore) *Dispatcher {
	return &Dispatcher{invoker: invoker, responder: responder, dedupe: dedupe}
}

// ProcessBatch runs every record in the batch to a terminal outcome. It
// always returns one outcome per record, in input order, and never stops
// early: a failure is recorded and the next record still runs.
func (d *Dispatcher) ProcessBatch(ctx context.Context, records []queue.Record) []Outcome {
	outcomes := make([]Outcome, 0, len(records))
	for _, rec := range records {
		out := d.processRecord(ctx, rec)
		switch {
		case out.Duplicate:
			recordsProcessed.WithLabelValues("duplicate").Inc()
		case out.Acked:
			recordsProcessed.WithLabelValues("acknowledged").Inc()
		default:
			recordsProcessed.WithLabelValues("failed").Inc()
			log.Warn().
				Str("record_id", out.RecordID).
				Err(out.Err).
				Msg("record failed, leaving for redelivery")
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// processRecord drives one record through the pipeline.
func (d *Dispatcher) processRecord(ctx context.Context, rec queue.Record) Outcome {
	out := Outcome{RecordID: rec.ID, ReceiptHandle: rec.ReceiptHandle}

	// Parsing
	var env domain.Envelope
	if err := json.Unmarshal(rec.Body, &env); err != nil {
		recordFailures.WithLabelValues("parse").Inc()
		out.Err = fmt.Errorf("parse envelope: %w", err)
		return out
	}
	msg := env.Message

	// Resolving-Session
	sessionID, err := agent.ResolveSession(msg.UserID)
	if err != nil {
		recordFailures.WithLabelValues("session").Inc()
		out.Err = fmt.Errorf("resolve session for user %d: %w", msg.UserID, err)
		return out
	}

	// Redelivery of an already-replied record: acknowledge without sending.
	if d.alreadyProcessed(ctx, rec.ID) {
		out.Acked = true
		out.Duplicate = true
		return out
	}

	// Invoking-Agent
	start := time.Now()
	answer, err := d.invoker.Invoke(ctx, sessionID, msg.Text)
	agentLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		recordFailures.WithLabelValues("agent").Inc()
		out.Err = err
		return out
	}

	// Responding — an empty answer is sent as-is; the responder substitutes
	// its fallback.
	if err := d.responder.Reply(ctx, msg.ChatID, answer.Text); err != nil {
		recordFailures.WithLabelValues("reply").Inc()
		out.Err = err
		return out
	}
	repliesSent.Inc()
	d.markProcessed(ctx, rec.ID, msg.ChatID)

	out.Acked = true
	return out
}

// alreadyProcessed consults the dedupe store, treating store failures as
// "not seen" — a duplicate reply beats refusing to reply.
func (d *Dispatcher) alreadyProcessed(ctx context.Context, recordID string) bool {
	if d.dedupe == nil {
		return false
	}
	seen, err := d.dedupe.WasProcessed(ctx, recordID)
	if err != nil {
		log.Warn().Str("record_id", recordID).Err(err).Msg("dedupe lookup failed")
		return false
	}
	return seen
}

// markProcessed records the sent reply, best effort.
func (d *Dispatcher) markProcessed(ctx context.Context, recordID string, chatID int64) {
	if d.dedupe == nil {
		return
	}
	if err := d.dedupe.MarkProcessed(ctx, recordID, chatID); err != nil {
		log.Warn().Str("record_id", recordID).Err(err).Msg("dedupe mark failed")
	}
}
