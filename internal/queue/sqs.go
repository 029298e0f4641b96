// SQS implementation of the queue boundary.
//
// Publish returns only after SQS confirms durable acceptance. Receive long
// polls for a batch; Ack deletes a single record, which is what gives the
// consumer per-record acknowledgment — failed records are simply not deleted
// and reappear after the visibility timeout.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
)

// sqsAPI is the slice of the SQS client the queue uses.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

const (
	// opTimeout bounds non-polling queue calls.
	opTimeout = 5 * time.Second
	// defaultWaitTime is the long-poll duration for Receive.
	defaultWaitTime = 20 * time.Second
	// defaultVisibility is how long a received record stays invisible before
	// redelivery if it is not acknowledged. It must comfortably exceed the
	// worst-case per-batch processing time.
	defaultVisibility = 60 * time.Second
)

// SQSQueue publishes to and consumes from one SQS queue.
type SQSQueue struct {
	api        sqsAPI
	url        string
	waitTime   time.Duration
	visibility time.Duration
}

// SQSOption customizes an SQSQueue.
type SQSOption func(*SQSQueue)

// WithWaitTime sets the Receive long-poll duration.
func WithWaitTime(d time.Duration) SQSOption {
	return func(q *SQSQueue) { q.waitTime = d }
}

// WithVisibilityTimeout sets the redelivery delay for unacknowledged records.
func WithVisibilityTimeout(d time.Duration) SQSOption {
	return func(q *SQSQueue) { q.visibility = d }
}

// NewSQSQueue wraps an SQS client for the queue at url.
func NewSQSQueue(api sqsAPI, url string, opts ...SQSOption) *SQSQueue {
	q := &SQSQueue{
		api:        api,
		url:        url,
		waitTime:   defaultWaitTime,
		visibility: defaultVisibility,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Publish serializes the message into the queue envelope and sends it,
// returning only after the queue confirms acceptance. Any failure surfaces
// as ErrUnavailable; the caller never partially enqueues.
func (q *SQSQueue) Publish(ctx context.Context, m domain.Message) error {
	body, err := json.Marshal(domain.Envelope{Message: m})
	if err != nil {
		return fmt.Errorf("%w: encode envelope: %v", ErrUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err = q.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.url),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("%w: publish: %v", ErrUnavailable, err)
	}
	return nil
}

// Receive long polls for up to max records (SQS caps a batch at 10). An empty
// slice with a nil error means the poll timed out with nothing to do.
func (q *SQSQueue) Receive(ctx context.Context, max int32) ([]Record, error) {
	if max < 1 {
		max = 1
	}
	if max > 10 {
		max = 10
	}

	ctx, cancel := context.WithTimeout(ctx, q.waitTime+opTimeout)
	defer cancel()

	out, err := q.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.url),
		MaxNumberOfMessages: max,
		WaitTimeSeconds:     int32(q.waitTime / time.Second),
		VisibilityTimeout:   int32(q.visibility / time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: receive: %v", ErrUnavailable, err)
	}

	records := make([]Record, 0, len(out.Messages))
	for _, m := range out.Messages {
		records = append(records, Record{
			ID:            aws.ToString(m.MessageId),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			Body:          []byte(aws.ToString(m.Body)),
		})
	}
	return records, nil
}

// Ack acknowledges one delivery. Records that are not acked are redelivered
// after the visibility timeout.
func (q *SQSQueue) Ack(ctx context.Context, receiptHandle string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := q.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.url),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("%w: ack: %v", ErrUnavailable, err)
	}
	return nil
}
