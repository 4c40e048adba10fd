package domain

import "time"

// Message is a single chat message as delivered by a source adapter.
// Timestamp may be zero when the source does not provide one.
type Message struct {
	Content   string
	Sender    string
	Timestamp time.Time
	Metadata  map[string]any
}
