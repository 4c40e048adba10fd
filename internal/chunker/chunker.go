// Package chunker splits raw text and message sequences into
// bounded-size segments suitable for embedding and indexing.
package chunker

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode"

	"github.com/aech-ai/mcp-teams/internal/domain"
)

// Strategy identifies one of the fixed set of chunking strategies.
type Strategy int

const (
	// StrategyFixed slides a fixed-size window with overlap.
	StrategyFixed Strategy = iota
	// StrategyParagraph merges paragraphs up to a size cap.
	StrategyParagraph
	// StrategyConversation groups chat messages into conversation chunks.
	StrategyConversation
)

// Config controls chunk sizing across all strategies.
type Config struct {
	ChunkSize           int
	ChunkOverlap        int
	MinParagraphSize    int
	MaxMessagesPerChunk int
	Delimiter           string
}

// DefaultConfig provides sane defaults for chunking.
func DefaultConfig() Config {
	return Config{
		ChunkSize:           1000,
		ChunkOverlap:        200,
		MinParagraphSize:    100,
		MaxMessagesPerChunk: 5,
		Delimiter:           "\n\n",
	}
}

// Chunker applies one strategy from the closed set above.
type Chunker struct {
	strategy Strategy
	cfg      Config
}

// New creates a Chunker with an explicit strategy.
func New(strategy Strategy, cfg Config) *Chunker {
	if cfg.ChunkSize <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.Delimiter == "" {
		cfg.Delimiter = "\n\n"
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 2
	}
	return &Chunker{strategy: strategy, cfg: cfg}
}

// ParseStrategy resolves a strategy name. The second return value
// reports whether the name was recognized.
func ParseStrategy(name string) (Strategy, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fixed":
		return StrategyFixed, true
	case "paragraph":
		return StrategyParagraph, true
	case "teams", "conversation":
		return StrategyConversation, true
	default:
		return StrategyFixed, false
	}
}

// ForName resolves a strategy name to a Chunker. Unknown names fall
// back to fixed-size chunking with a logged warning, never an error.
func ForName(name string, cfg Config) *Chunker {
	strategy, ok := ParseStrategy(name)
	if !ok {
		log.Printf("chunker: unknown strategy %q, using fixed-size", name)
	}
	return New(strategy, cfg)
}

// Strategy returns the chunker's strategy.
func (c *Chunker) Strategy() Strategy { return c.strategy }

// ChunkText splits text according to the configured strategy. The
// conversation strategy has no special handling for raw text and
// delegates to paragraph chunking.
func (c *Chunker) ChunkText(text string) []string {
	switch c.strategy {
	case StrategyParagraph, StrategyConversation:
		return c.chunkParagraphs(text)
	default:
		return c.chunkFixed(text)
	}
}

// chunkFixed slides a window of ChunkSize runes, preferring to cut at a
// sentence boundary found in the trailing 20% of the window, and backs
// the next window up by ChunkOverlap runes.
func (c *Chunker) chunkFixed(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= c.cfg.ChunkSize {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/c.cfg.ChunkSize+1)
	start := 0
	for start < len(runes) {
		end := start + c.cfg.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) && !endsAtSentence(runes[start:end]) {
			if cut := lastSentenceEnd(runes, start, end); cut > start {
				end = cut
			}
		}

		chunks = append(chunks, string(runes[start:end]))

		if end >= len(runes) {
			break
		}

		// Progress guarantee: overlap must never move the window
		// backwards or hold it in place.
		next := end - c.cfg.ChunkOverlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// endsAtSentence reports whether the window already ends with a
// sentence terminal followed only by whitespace.
func endsAtSentence(window []rune) bool {
	i := len(window) - 1
	for i >= 0 && unicode.IsSpace(window[i]) {
		i--
	}
	return i >= 0 && isSentenceTerminal(window[i])
}

// lastSentenceEnd scans the trailing 20% of the window [start,end) for
// the last sentence terminal followed by whitespace and returns the cut
// position just after it, or start when none is found.
func lastSentenceEnd(runes []rune, start, end int) int {
	tail := start + (end-start)*4/5
	for i := end - 1; i > tail; i-- {
		if isSentenceTerminal(runes[i-1]) && unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return start
}

func isSentenceTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// chunkParagraphs splits on the delimiter and greedily merges
// paragraphs into chunks of at most ChunkSize runes. A paragraph that
// alone exceeds the cap is flushed as a boundary and split fixed-size.
func (c *Chunker) chunkParagraphs(text string) []string {
	if text == "" {
		return nil
	}

	paragraphs := make([]string, 0, 8)
	for _, p := range strings.Split(text, c.cfg.Delimiter) {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	if len(paragraphs) == 0 {
		return nil
	}
	if len([]rune(text)) <= c.cfg.ChunkSize {
		return []string{text}
	}

	fixed := New(StrategyFixed, c.cfg)
	delimLen := len([]rune(c.cfg.Delimiter))

	var chunks []string
	var current []string
	currentSize := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, c.cfg.Delimiter))
			current = nil
			currentSize = 0
		}
	}

	for _, paragraph := range paragraphs {
		paraSize := len([]rune(paragraph))

		switch {
		case paraSize > c.cfg.ChunkSize:
			flush()
			chunks = append(chunks, fixed.chunkFixed(paragraph)...)
		case len(current) > 0 && currentSize+paraSize+delimLen > c.cfg.ChunkSize:
			flush()
			current = []string{paragraph}
			currentSize = paraSize
		default:
			if len(current) > 0 {
				currentSize += delimLen
			}
			current = append(current, paragraph)
			currentSize += paraSize
		}
	}
	flush()

	return chunks
}

// MessageChunk is a group of messages rendered as one indexable unit.
type MessageChunk struct {
	Content  string
	Metadata map[string]any
	Messages []domain.Message
}

// ChunkMessages groups an ordered message sequence into conversation
// chunks bounded by MaxMessagesPerChunk and ChunkSize (summed content
// runes). Messages are sorted by timestamp first when present.
func (c *Chunker) ChunkMessages(messages []domain.Message) []MessageChunk {
	if len(messages) == 0 {
		return nil
	}

	if !messages[0].Timestamp.IsZero() {
		sorted := make([]domain.Message, len(messages))
		copy(sorted, messages)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		})
		messages = sorted
	}

	maxMessages := c.cfg.MaxMessagesPerChunk
	if maxMessages <= 0 {
		maxMessages = DefaultConfig().MaxMessagesPerChunk
	}
	fixed := New(StrategyFixed, c.cfg)

	var chunks []MessageChunk
	var current []domain.Message
	currentSize := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, buildMessageChunk(current))
			current = nil
			currentSize = 0
		}
	}

	for _, message := range messages {
		msgSize := len([]rune(message.Content))

		switch {
		case msgSize > c.cfg.ChunkSize:
			// An oversized message never merges with neighbors: split it
			// fixed-size and emit each part as its own standalone chunk.
			flush()
			for i, part := range fixed.chunkFixed(message.Content) {
				partMsg := message
				partMsg.Content = part
				if i > 0 {
					partMsg.Metadata = cloneMetadata(message.Metadata)
					partMsg.Metadata["content_part"] = i + 1
				}
				chunks = append(chunks, buildMessageChunk([]domain.Message{partMsg}))
			}
		case len(current) > 0 && (currentSize+msgSize > c.cfg.ChunkSize || len(current) >= maxMessages):
			flush()
			current = []domain.Message{message}
			currentSize = msgSize
		default:
			current = append(current, message)
			currentSize += msgSize
		}
	}
	flush()

	return chunks
}

// buildMessageChunk renders a message group: a single message keeps its
// content verbatim, a conversation becomes "{sender}: {content}" lines
// separated by blank lines.
func buildMessageChunk(messages []domain.Message) MessageChunk {
	senders := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		senders = append(senders, senderOrUnknown(msg.Sender))
	}

	var content string
	if len(messages) == 1 {
		content = messages[0].Content
	} else {
		lines := make([]string, 0, len(messages))
		for _, msg := range messages {
			lines = append(lines, fmt.Sprintf("%s: %s", senderOrUnknown(msg.Sender), msg.Content))
		}
		content = strings.Join(lines, "\n\n")
	}

	metadata := cloneMetadata(messages[len(messages)-1].Metadata)
	metadata["message_count"] = len(messages)
	metadata["senders"] = senders
	metadata["is_conversation"] = len(messages) > 1

	return MessageChunk{
		Content:  content,
		Metadata: metadata,
		Messages: messages,
	}
}

func senderOrUnknown(sender string) string {
	if sender == "" {
		return "Unknown"
	}
	return sender
}

func cloneMetadata(metadata map[string]any) map[string]any {
	cloned := make(map[string]any, len(metadata)+3)
	for k, v := range metadata {
		cloned[k] = v
	}
	return cloned
}
