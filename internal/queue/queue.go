// Package queue is the durable boundary between the webhook ingress and the
// consumer worker. Messages are published as JSON envelopes and delivered
// at least once; a record that is received but never acknowledged comes back
// after the queue's visibility timeout. Ordering across chats is not
// guaranteed and consumers must tolerate duplicates.
package queue

import "errors"

// ErrUnavailable is returned for queue infrastructure failures (timeout,
// throttling, transport errors). The webhook ingress maps it to a 500 so the
// chat platform retries the whole delivery; nothing is partially enqueued.
var ErrUnavailable = errors.New("queue unavailable")

// Record is one delivered unit of work.
type Record struct {
	// ID is the queue's message ID. It is stable across redeliveries of the
	// same record, which makes it usable as a dedupe key.
	ID string
	// ReceiptHandle acknowledges this specific delivery.
	ReceiptHandle string
	// Body is the raw envelope payload as published.
	Body []byte
}
