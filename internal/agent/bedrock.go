// Bedrock agent runtime adapter for the Backend interface.
//
// The runtime answers an InvokeAgent call with an event stream; only the
// chunk events carry completion bytes, everything else (traces, return
// control) is skipped. The adapter surfaces the stream's terminal error, if
// any, when the event channel drains.
package agent

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
)

// bedrockAPI is the slice of the runtime client the adapter uses.
type bedrockAPI interface {
	InvokeAgent(ctx context.Context, params *bedrockagentruntime.InvokeAgentInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.InvokeAgentOutput, error)
}

// BedrockBackend implements Backend on the Bedrock agent runtime.
type BedrockBackend struct {
	api bedrockAPI
}

// NewBedrockBackend wraps a Bedrock agent runtime client.
func NewBedrockBackend(api bedrockAPI) *BedrockBackend {
	return &BedrockBackend{api: api}
}

// InvokeAgent opens the invocation and returns its chunk stream.
func (b *BedrockBackend) InvokeAgent(ctx context.Context, in InvokeInput) (Stream, error) {
	out, err := b.api.InvokeAgent(ctx, &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(in.AgentID),
		AgentAliasId: aws.String(in.AgentAliasID),
		SessionId:    aws.String(in.SessionID),
		InputText:    aws.String(in.Prompt),
		SessionState: &bedrocktypes.SessionState{
			SessionAttributes: in.SessionAttributes,
		},
	})
	if err != nil {
		return nil, err
	}
	return &bedrockStream{events: out.GetStream()}, nil
}

// bedrockStream adapts the SDK event stream to the Stream interface.
type bedrockStream struct {
	events *bedrockagentruntime.InvokeAgentEventStream
}

// Recv returns the next chunk's bytes, skipping non-chunk events, and io.EOF
// once the stream is exhausted.
func (s *bedrockStream) Recv() ([]byte, error) {
	for {
		event, ok := <-s.events.Events()
		if !ok {
			if err := s.events.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		if chunk, ok := event.(*bedrocktypes.ResponseStreamMemberChunk); ok {
			return chunk.Value.Bytes, nil
		}
	}
}

// Close releases the underlying event stream.
func (s *bedrockStream) Close() error {
	return s.events.Close()
}
