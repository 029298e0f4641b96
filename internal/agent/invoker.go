// Package agent calls the external conversational backend and turns its
// chunked response stream into a single answer.
//
// The invoker owns the call's time budget: the backend must answer within a
// short deadline so a stalled invocation cannot exhaust the queue record's
// processing window. Backend failures and timeouts surface as
// ErrAgentUnavailable, which the consumer treats as a retryable record
// failure. An empty completion is not an error; the reply path substitutes a
// fallback for it.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrAgentUnavailable is returned when the backend errors or the invocation
// times out.
var ErrAgentUnavailable = errors.New("agent unavailable")

// DefaultTimeout bounds one invocation, connect and read included.
const DefaultTimeout = 5 * time.Second

// Answer is the accumulated result of one invocation.
type Answer struct {
	// Text is the backend's chunks concatenated in delivery order. May be
	// empty; the caller decides what an empty answer means.
	Text string
	// Complete is true when the stream ended cleanly.
	Complete bool
}

// InvokeInput identifies one backend invocation.
type InvokeInput struct {
	AgentID           string
	AgentAliasID      string
	SessionID         string
	Prompt            string
	SessionAttributes map[string]string
}

// Stream yields the backend's response chunks in delivery order. Recv returns
// io.EOF after the final chunk.
type Stream interface {
	Recv() ([]byte, error)
	Close() error
}

// Backend opens invocations against the conversational backend.
type Backend interface {
	InvokeAgent(ctx context.Context, in InvokeInput) (Stream, error)
}

// Invoker calls a fixed agent (ID + alias) on a Backend.
type Invoker struct {
	backend Backend
	agentID string
	aliasID string
	timeout time.Duration
}

// InvokerOption customizes an Invoker.
type InvokerOption func(*Invoker)

// WithTimeout overrides the invocation deadline.
func WithTimeout(d time.Duration) InvokerOption {
	return func(i *Invoker) {
		if d > 0 {
			i.timeout = d
		}
	}
}

// NewInvoker builds an invoker for the given agent identifier and alias.
// Both must be supplied by configuration; they have no sane default.
func NewInvoker(backend Backend, agentID, aliasID string, opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		backend: backend,
		agentID: agentID,
		aliasID: aliasID,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke sends the prompt under the given session and accumulates the
// response chunks into one answer. The session identity also travels as a
// session attribute so backend-side tooling can see who is asking.
func (i *Invoker) Invoke(ctx context.Context, sessionID, prompt string) (*Answer, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	stream, err := i.backend.InvokeAgent(ctx, InvokeInput{
		AgentID:      i.agentID,
		AgentAliasID: i.aliasID,
		SessionID:    sessionID,
		Prompt:       prompt,
		SessionAttributes: map[string]string{
			"user_id": sessionID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invoke session %s: %v", ErrAgentUnavailable, sessionID, err)
	}
	defer stream.Close()

	var b strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: stream session %s: %v", ErrAgentUnavailable, sessionID, err)
		}
		b.Write(chunk)
	}
	return &Answer{Text: b.String(), Complete: true}, nil
}
