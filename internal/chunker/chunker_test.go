package chunker

import (
	"strings"
	"testing"
	"time"

	"github.com/aech-ai/mcp-teams/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_Fixed_ShortTextReturnedUnchanged(t *testing.T) {
	c := New(StrategyFixed, Config{ChunkSize: 100, ChunkOverlap: 20})

	text := "A short text that fits in a single chunk."
	chunks := c.ChunkText(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunkText_Fixed_EmptyText(t *testing.T) {
	c := New(StrategyFixed, Config{ChunkSize: 100, ChunkOverlap: 20})

	assert.Empty(t, c.ChunkText(""))
}

func TestChunkText_Fixed_OverlapAndReconstruction(t *testing.T) {
	// No sentence terminals, so no boundary adjustment interferes with
	// the overlap arithmetic.
	text := strings.Repeat("abcdefghij", 35) // 350 chars
	c := New(StrategyFixed, Config{ChunkSize: 100, ChunkOverlap: 20})

	chunks := c.ChunkText(text)
	require.Greater(t, len(chunks), 1)

	// Consecutive chunks share exactly ChunkOverlap characters.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		assert.Equal(t, prev[len(prev)-20:], chunks[i][:20])
	}

	// Dropping the overlap from every chunk after the first rebuilds
	// the original character stream.
	rebuilt := chunks[0]
	for _, chunk := range chunks[1:] {
		rebuilt += chunk[20:]
	}
	assert.Equal(t, text, rebuilt)
}

func TestChunkText_Fixed_CutsAtSentenceBoundary(t *testing.T) {
	// A sentence ends at position 95, inside the trailing 20% of the
	// first 100-char window.
	first := strings.Repeat("a", 94) + ". "
	text := first + strings.Repeat("b", 150)
	c := New(StrategyFixed, Config{ChunkSize: 100, ChunkOverlap: 0})

	chunks := c.ChunkText(text)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, strings.Repeat("a", 94)+".", chunks[0])
}

func TestChunkText_Fixed_TerminatesForAnyOverlap(t *testing.T) {
	text := strings.Repeat("x", 500)
	for overlap := 0; overlap < 50; overlap++ {
		c := New(StrategyFixed, Config{ChunkSize: 50, ChunkOverlap: overlap})
		chunks := c.ChunkText(text)
		assert.NotEmpty(t, chunks, "overlap %d", overlap)
	}
}

func TestChunkText_Paragraph_WholeTextFits(t *testing.T) {
	c := New(StrategyParagraph, Config{ChunkSize: 1000, ChunkOverlap: 200})

	text := "First paragraph.\n\nSecond paragraph."
	chunks := c.ChunkText(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunkText_Paragraph_MergesUpToCap(t *testing.T) {
	para := strings.Repeat("w", 40)
	text := strings.Join([]string{para, para, para, para, para, para}, "\n\n")
	c := New(StrategyParagraph, Config{ChunkSize: 100, ChunkOverlap: 20})

	chunks := c.ChunkText(text)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
	}
}

func TestChunkText_Paragraph_OversizedParagraphSplitStandalone(t *testing.T) {
	small := strings.Repeat("s", 30)
	big := strings.Repeat("z", 250)
	text := small + "\n\n" + big + "\n\n" + small
	c := New(StrategyParagraph, Config{ChunkSize: 100, ChunkOverlap: 0})

	chunks := c.ChunkText(text)
	require.GreaterOrEqual(t, len(chunks), 4)

	// The small paragraph before the oversized one is flushed alone,
	// and the oversized paragraph's pieces are never merged with it.
	assert.Equal(t, small, chunks[0])
	assert.Equal(t, strings.Repeat("z", 100), chunks[1])
	assert.Equal(t, small, chunks[len(chunks)-1])
}

func TestChunkMessages_GroupsByMessageCap(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	messages := make([]domain.Message, 10)
	for i := range messages {
		messages[i] = domain.Message{
			Content:   "message body",
			Sender:    "Alice",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
	}

	c := New(StrategyConversation, Config{ChunkSize: 10000, ChunkOverlap: 0, MaxMessagesPerChunk: 5})
	chunks := c.ChunkMessages(messages)

	require.Len(t, chunks, 2)
	assert.Equal(t, 5, chunks[0].Metadata["message_count"])
	assert.Equal(t, 5, chunks[1].Metadata["message_count"])
	assert.Equal(t, true, chunks[0].Metadata["is_conversation"])
}

func TestChunkMessages_SortsByTimestamp(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	messages := []domain.Message{
		{Content: "third", Sender: "Bob", Timestamp: base.Add(2 * time.Minute)},
		{Content: "first", Sender: "Alice", Timestamp: base},
		{Content: "second", Sender: "Alice", Timestamp: base.Add(time.Minute)},
	}

	c := New(StrategyConversation, Config{ChunkSize: 10000, ChunkOverlap: 0, MaxMessagesPerChunk: 5})
	chunks := c.ChunkMessages(messages)

	require.Len(t, chunks, 1)
	assert.Equal(t, "Alice: first\n\nAlice: second\n\nBob: third", chunks[0].Content)
	assert.Equal(t, []string{"Alice", "Alice", "Bob"}, chunks[0].Metadata["senders"])
}

func TestChunkMessages_SingleMessageVerbatim(t *testing.T) {
	c := New(StrategyConversation, Config{ChunkSize: 1000, ChunkOverlap: 0, MaxMessagesPerChunk: 5})

	chunks := c.ChunkMessages([]domain.Message{{Content: "hello there", Sender: "Alice"}})

	require.Len(t, chunks, 1)
	assert.Equal(t, "hello there", chunks[0].Content)
	assert.Equal(t, false, chunks[0].Metadata["is_conversation"])
}

func TestChunkMessages_OversizedMessageSplitWithPartIndex(t *testing.T) {
	big := strings.Repeat("q", 2500)
	messages := []domain.Message{
		{Content: "before", Sender: "Alice"},
		{Content: big, Sender: "Bob"},
		{Content: "after", Sender: "Alice"},
	}

	c := New(StrategyConversation, Config{ChunkSize: 1000, ChunkOverlap: 200, MaxMessagesPerChunk: 5})
	chunks := c.ChunkMessages(messages)

	// "before" flushed, three pieces of the big message, then "after".
	require.Len(t, chunks, 5)
	assert.Equal(t, "before", chunks[0].Content)
	for i := 1; i <= 3; i++ {
		assert.Equal(t, 1, chunks[i].Metadata["message_count"])
	}
	_, hasPart := chunks[1].Messages[0].Metadata["content_part"]
	assert.False(t, hasPart)
	assert.Equal(t, 2, chunks[2].Messages[0].Metadata["content_part"])
	assert.Equal(t, 3, chunks[3].Messages[0].Metadata["content_part"])
	assert.Equal(t, "after", chunks[4].Content)
}

func TestForName_ResolvesKnownStrategies(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, StrategyFixed, ForName("fixed", cfg).Strategy())
	assert.Equal(t, StrategyParagraph, ForName("paragraph", cfg).Strategy())
	assert.Equal(t, StrategyConversation, ForName("teams", cfg).Strategy())
	assert.Equal(t, StrategyConversation, ForName("conversation", cfg).Strategy())
}

func TestForName_UnknownFallsBackToFixed(t *testing.T) {
	c := ForName("who-knows", DefaultConfig())

	assert.Equal(t, StrategyFixed, c.Strategy())
	// Fallback must still chunk, never fail.
	assert.Len(t, c.ChunkText("some text"), 1)
}
