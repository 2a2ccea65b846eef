package stream

import (
	"encoding/json"
	"fmt"
)

// doneMarker is the literal terminal line every OpenAI stream ends with.
const doneMarker = "data: [DONE]\n\n"

// Stream produces one framed SSE event per call. The sequence is finite and
// single-pass: once Next returns false the stream is exhausted. A consumer
// that stops pulling simply abandons the stream; no terminal marker is
// emitted in that case.
type Stream interface {
	Next() ([]byte, bool)
}

// frameData encodes a payload as an anonymous SSE event: `data: <json>\n\n`.
func frameData(payload any) []byte {
	// Payload types are plain structs of strings and ints; marshalling
	// cannot fail.
	data, _ := json.Marshal(payload)
	return fmt.Appendf(nil, "data: %s\n\n", data)
}

// frameEvent encodes a payload as a named SSE event:
// `event: <name>\ndata: <json>\n\n`.
func frameEvent(name string, payload any) []byte {
	data, _ := json.Marshal(payload)
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", name, data)
}
