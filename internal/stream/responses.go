package stream

import (
	"llmock/internal/schema"
)

// Responses API stream event names, in emission order around the deltas.
const (
	eventResponseCreated    = "response.created"
	eventResponseInProgress = "response.in_progress"
	eventOutputItemAdded    = "response.output_item.added"
	eventContentPartAdded   = "response.content_part.added"
	eventOutputTextDelta    = "response.output_text.delta"
	eventOutputTextDone     = "response.output_text.done"
	eventContentPartDone    = "response.content_part.done"
	eventOutputItemDone     = "response.output_item.done"
	eventResponseCompleted  = "response.completed"
)

// ResponseStream converts one strategy result into the named-event sequence
// of the Responses API: lifecycle and bracketing events around one
// output_text delta per content fragment. Unlike chat streams there is no
// [DONE] marker; response.completed terminates the stream.
type ResponseStream struct {
	completed schema.ResponseObject
	msgID     string
	content   string
	chunker   *Chunker

	prelude int
	closing int
	state   state
}

// NewResponse builds the streaming adapter for a Responses API call.
// completed is the final response object, exactly what the non-streaming
// path would have returned.
func NewResponse(completed schema.ResponseObject, msgID, content string) *ResponseStream {
	return &ResponseStream{
		completed: completed,
		msgID:     msgID,
		content:   content,
		chunker:   NewChunker(content),
	}
}

// inProgress derives the lifecycle snapshot sent before any output exists.
func (s *ResponseStream) inProgress() schema.ResponseObject {
	snapshot := s.completed
	snapshot.Status = "in_progress"
	snapshot.CompletedAt = nil
	snapshot.Output = []schema.ResponseOutputMessage{}
	snapshot.Usage = nil
	return snapshot
}

func (s *ResponseStream) outputItem(status string, content []schema.ResponseOutputText) schema.ResponseOutputMessage {
	return schema.ResponseOutputMessage{
		Type:    "message",
		ID:      s.msgID,
		Status:  status,
		Role:    "assistant",
		Content: content,
	}
}

func (s *ResponseStream) textPart(text string) schema.ResponseOutputText {
	return schema.ResponseOutputText{
		Type:        "output_text",
		Text:        text,
		Annotations: []any{},
	}
}

// Next returns the next framed event.
func (s *ResponseStream) Next() ([]byte, bool) {
	switch s.state {
	case stateStart:
		event, last := s.nextPrelude()
		if last {
			// Consume the role-announcement fragment before deltas.
			s.chunker.Next()
			s.state = stateEmitting
		}
		return event, true

	case stateEmitting:
		frag, ok := s.chunker.Next()
		if !ok {
			s.state = stateFinishing
			return s.Next()
		}
		if frag.Pos == PosLast {
			s.state = stateFinishing
		}
		return frameEvent(eventOutputTextDelta, schema.ResponseTextDeltaEvent{
			Type:   eventOutputTextDelta,
			ItemID: s.msgID,
			Delta:  frag.Text,
		}), true

	case stateFinishing:
		event, last := s.nextClosing()
		if last {
			s.state = stateDone
		}
		return event, true

	default:
		return nil, false
	}
}

func (s *ResponseStream) nextPrelude() ([]byte, bool) {
	step := s.prelude
	s.prelude++

	switch step {
	case 0:
		return frameEvent(eventResponseCreated, schema.ResponseLifecycleEvent{
			Type:     eventResponseCreated,
			Response: s.inProgress(),
		}), false
	case 1:
		return frameEvent(eventResponseInProgress, schema.ResponseLifecycleEvent{
			Type:     eventResponseInProgress,
			Response: s.inProgress(),
		}), false
	case 2:
		return frameEvent(eventOutputItemAdded, schema.ResponseOutputItemEvent{
			Type: eventOutputItemAdded,
			Item: s.outputItem("in_progress", []schema.ResponseOutputText{}),
		}), false
	default:
		return frameEvent(eventContentPartAdded, schema.ResponseContentPartEvent{
			Type:   eventContentPartAdded,
			ItemID: s.msgID,
			Part:   s.textPart(""),
		}), true
	}
}

func (s *ResponseStream) nextClosing() ([]byte, bool) {
	step := s.closing
	s.closing++

	switch step {
	case 0:
		return frameEvent(eventOutputTextDone, schema.ResponseTextDoneEvent{
			Type:   eventOutputTextDone,
			ItemID: s.msgID,
			Text:   s.content,
		}), false
	case 1:
		return frameEvent(eventContentPartDone, schema.ResponseContentPartEvent{
			Type:   eventContentPartDone,
			ItemID: s.msgID,
			Part:   s.textPart(s.content),
		}), false
	case 2:
		return frameEvent(eventOutputItemDone, schema.ResponseOutputItemEvent{
			Type: eventOutputItemDone,
			Item: s.outputItem("completed", []schema.ResponseOutputText{s.textPart(s.content)}),
		}), false
	default:
		return frameEvent(eventResponseCompleted, schema.ResponseLifecycleEvent{
			Type:     eventResponseCompleted,
			Response: s.completed,
		}), true
	}
}
