package realtime

import (
	"sync"
	"time"
)

// Turn is one spoken exchange unit in the conversation history.
type Turn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// history accumulates committed turns. The read loop appends user turns as
// transcriptions commit and assistant turns as response transcripts finish;
// snapshots are taken at shutdown for the transcript record.
type history struct {
	mu    sync.Mutex
	turns []Turn
}

func (h *history) append(role, text string) {
	if text == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, Turn{Role: role, Text: text, Timestamp: time.Now()})
}

func (h *history) snapshot() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}
