// Package stream turns a generated result into the ordered sequence of
// server-sent events a real OpenAI backend would emit.
package stream

// Position marks where a fragment sits in the sequence.
type Position int

const (
	// PosFirst is the empty role-announcement fragment that conceptually
	// precedes all content.
	PosFirst Position = iota
	PosMiddle
	PosLast
)

// Fragment is one ordered slice of generated content. Concatenating the
// texts of all fragments in order reproduces the content exactly.
type Fragment struct {
	Text string
	Pos  Position
}

// Chunker splits content into fragments on whitespace boundaries: each
// fragment is one word plus its trailing whitespace run, so punctuation stays
// attached to its word and multi-byte characters are never split (ASCII
// whitespace bytes cannot occur inside a UTF-8 sequence).
//
// The sequence is produced once; a Chunker is not restartable.
type Chunker struct {
	rest    string
	started bool
}

// NewChunker prepares a single-pass fragment sequence for content.
func NewChunker(content string) *Chunker {
	return &Chunker{rest: content}
}

// Next returns the next fragment, or false when the sequence is exhausted.
// The first fragment is always the empty role announcement; empty content
// yields only that fragment.
func (c *Chunker) Next() (Fragment, bool) {
	if !c.started {
		c.started = true
		return Fragment{Pos: PosFirst}, true
	}

	if c.rest == "" {
		return Fragment{}, false
	}

	i := 0
	for i < len(c.rest) && !isASCIISpace(c.rest[i]) {
		i++
	}
	for i < len(c.rest) && isASCIISpace(c.rest[i]) {
		i++
	}

	text := c.rest[:i]
	c.rest = c.rest[i:]

	pos := PosMiddle
	if c.rest == "" {
		pos = PosLast
	}
	return Fragment{Text: text, Pos: pos}, true
}

func isASCIISpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
