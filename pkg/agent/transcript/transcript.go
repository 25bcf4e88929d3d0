// Package transcript builds and persists the end-of-session transcript file.
package transcript

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/trumchinese/tutor-agent/pkg/agent/realtime"
	"github.com/trumchinese/tutor-agent/pkg/agent/topic"
	"github.com/trumchinese/tutor-agent/pkg/agent/tutor"
)

// TimestampLayout is the second-granularity stamp embedded in records and
// filenames.
const TimestampLayout = "20060102_150405"

// Record is the write-once transcript artifact.
type Record struct {
	RoomName            string                `json:"room_name"`
	CategoryID          *int                  `json:"category_id"`
	TopicID             *int                  `json:"topic_id"`
	TopicName           string                `json:"topic_name"`
	CategoryName        string                `json:"category_name"`
	Timestamp           string                `json:"timestamp"`
	StudentDetails      *tutor.StudentDetails `json:"student_details"`
	ConversationHistory []realtime.Turn       `json:"conversation_history"`
}

// BuildRecord assembles the transcript record from the session's final state.
// Pure: it does not touch the filesystem or mutate its inputs.
func BuildRecord(roomName string, res topic.Resolution, tut *tutor.Tutor, history []realtime.Turn, now time.Time) Record {
	rec := Record{
		RoomName:            roomName,
		CategoryID:          res.CategoryID,
		TopicID:             res.TopicID,
		TopicName:           tutor.GeneralTopicName,
		CategoryName:        "General",
		Timestamp:           now.Format(TimestampLayout),
		ConversationHistory: history,
	}
	if res.Topic != nil {
		rec.TopicName = res.Topic.TopicName
		rec.CategoryName = res.Topic.CategoryName
	}
	if tut != nil && tut.HasStudent() {
		details := tut.Student()
		rec.StudentDetails = &details
	}
	if rec.ConversationHistory == nil {
		rec.ConversationHistory = []realtime.Turn{}
	}
	return rec
}

// Writer persists transcript records under a recordings directory.
type Writer struct {
	Dir    string
	Logger *slog.Logger
}

// Write serializes the record to
// <dir>/transcript_<room>_<timestamp>.json, creating the directory if
// needed. Non-ASCII text is written as-is, not escaped. The caller runs on
// the shutdown path and treats any returned error as log-and-continue.
func (w *Writer) Write(rec Record) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create recordings dir: %w", err)
	}

	path := filepath.Join(w.Dir, fmt.Sprintf("transcript_%s_%s.json", rec.RoomName, rec.Timestamp))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create transcript file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	return path, nil
}
