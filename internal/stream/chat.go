package stream

import (
	"llmock/internal/models"
	"llmock/internal/schema"
)

type state int

const (
	stateStart state = iota
	stateEmitting
	stateFinishing
	stateDone
	stateClosed
)

// ChatStream converts one strategy result into the ordered chat.completion.chunk
// event sequence: a role announcement, one content delta per fragment, a
// finishing chunk carrying the finish reason, and the [DONE] marker. States
// advance one way only; no chunk is ever re-emitted.
type ChatStream struct {
	id      string
	created int64
	model   string
	finish  string
	chunker *Chunker
	state   state
}

// NewChat builds the streaming adapter for a chat completion. All events
// share the given correlation id and creation timestamp.
func NewChat(id string, created int64, model string, result models.Result) *ChatStream {
	return &ChatStream{
		id:      id,
		created: created,
		model:   model,
		finish:  result.FinishReason,
		chunker: NewChunker(result.Content),
	}
}

// Next returns the next framed event. Exactly one finishing chunk and one
// terminal marker are produced per stream.
func (s *ChatStream) Next() ([]byte, bool) {
	switch s.state {
	case stateStart:
		// Consume the role-announcement fragment.
		s.chunker.Next()
		s.state = stateEmitting
		empty := ""
		return s.chunk(schema.ChunkDelta{Role: models.RoleAssistant, Content: &empty}, nil), true

	case stateEmitting:
		frag, ok := s.chunker.Next()
		if !ok {
			s.state = stateFinishing
			return s.Next()
		}
		if frag.Pos == PosLast {
			s.state = stateFinishing
		}
		text := frag.Text
		return s.chunk(schema.ChunkDelta{Content: &text}, nil), true

	case stateFinishing:
		s.state = stateDone
		finish := s.finish
		return s.chunk(schema.ChunkDelta{}, &finish), true

	case stateDone:
		s.state = stateClosed
		return []byte(doneMarker), true

	default:
		return nil, false
	}
}

func (s *ChatStream) chunk(delta schema.ChunkDelta, finish *string) []byte {
	return frameData(schema.ChatCompletionChunk{
		ID:      s.id,
		Object:  "chat.completion.chunk",
		Created: s.created,
		Model:   s.model,
		Choices: []schema.ChunkChoice{{
			Index:        0,
			Delta:        delta,
			FinishReason: finish,
		}},
	})
}

// CompletionStream is the legacy text_completion counterpart of ChatStream.
// Legacy streams have no role announcement: the first fragment is consumed
// silently and events begin with content.
type CompletionStream struct {
	id      string
	created int64
	model   string
	finish  string
	chunker *Chunker
	state   state
}

// NewCompletion builds the streaming adapter for a legacy completion.
func NewCompletion(id string, created int64, model string, result models.Result) *CompletionStream {
	return &CompletionStream{
		id:      id,
		created: created,
		model:   model,
		finish:  result.FinishReason,
		chunker: NewChunker(result.Content),
	}
}

// Next returns the next framed event.
func (s *CompletionStream) Next() ([]byte, bool) {
	switch s.state {
	case stateStart:
		s.chunker.Next()
		s.state = stateEmitting
		fallthrough

	case stateEmitting:
		frag, ok := s.chunker.Next()
		if !ok {
			s.state = stateFinishing
			return s.Next()
		}
		if frag.Pos == PosLast {
			s.state = stateFinishing
		}
		return s.chunk(frag.Text, nil), true

	case stateFinishing:
		s.state = stateDone
		finish := s.finish
		return s.chunk("", &finish), true

	case stateDone:
		s.state = stateClosed
		return []byte(doneMarker), true

	default:
		return nil, false
	}
}

func (s *CompletionStream) chunk(text string, finish *string) []byte {
	return frameData(schema.CompletionChunk{
		ID:      s.id,
		Object:  "text_completion",
		Created: s.created,
		Model:   s.model,
		Choices: []schema.CompletionChunkChoice{{
			Text:         text,
			Index:        0,
			FinishReason: finish,
		}},
	})
}
