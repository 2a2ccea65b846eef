package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, content string) []Fragment {
	t.Helper()
	chunker := NewChunker(content)
	var out []Fragment
	for {
		frag, ok := chunker.Next()
		if !ok {
			return out
		}
		out = append(out, frag)
	}
}

func TestChunkerConcatenationLaw(t *testing.T) {
	t.Parallel()

	contents := []string{
		"",
		"Hello!",
		"Hello world!",
		"one two three four",
		"  leading spaces",
		"trailing spaces  ",
		"tabs\tand\nnewlines\r\nmixed",
		"punctuation, attached; to words.",
		"héllo wörld — ünïcode täxt",
		"日本語 テキスト",
		strings.Repeat("word ", 100),
	}

	for _, content := range contents {
		frags := collect(t, content)
		require.NotEmpty(t, frags)

		var builder strings.Builder
		for _, frag := range frags {
			builder.WriteString(frag.Text)
		}
		assert.Equal(t, content, builder.String(), "content %q", content)
	}
}

func TestChunkerRoleAnnouncementFirst(t *testing.T) {
	t.Parallel()

	frags := collect(t, "Hello world")
	require.GreaterOrEqual(t, len(frags), 3)
	assert.Equal(t, Fragment{Text: "", Pos: PosFirst}, frags[0])
	assert.Equal(t, "Hello ", frags[1].Text)
	assert.Equal(t, PosMiddle, frags[1].Pos)
	assert.Equal(t, "world", frags[2].Text)
	assert.Equal(t, PosLast, frags[2].Pos)
}

func TestChunkerEmptyContent(t *testing.T) {
	t.Parallel()

	frags := collect(t, "")
	require.Len(t, frags, 1)
	assert.Equal(t, PosFirst, frags[0].Pos)
	assert.Empty(t, frags[0].Text)
}

func TestChunkerKeepsTrailingSeparator(t *testing.T) {
	t.Parallel()

	frags := collect(t, "a  b   c")
	require.Len(t, frags, 4)
	assert.Equal(t, "a  ", frags[1].Text)
	assert.Equal(t, "b   ", frags[2].Text)
	assert.Equal(t, "c", frags[3].Text)
}

func TestChunkerDeterministic(t *testing.T) {
	t.Parallel()

	const content = "same input, same fragments"
	first := collect(t, content)
	second := collect(t, content)
	assert.Equal(t, first, second)
}

func TestChunkerExhaustedStaysExhausted(t *testing.T) {
	t.Parallel()

	chunker := NewChunker("one")
	for {
		if _, ok := chunker.Next(); !ok {
			break
		}
	}
	_, ok := chunker.Next()
	assert.False(t, ok)
}
