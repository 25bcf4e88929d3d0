// Package topic maps participant metadata onto a catalog topic.
package topic

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/trumchinese/tutor-agent/pkg/agent/catalog"
)

// Resolution is the outcome of resolving participant metadata. Ids are kept
// even when the catalog lookup misses so they can be logged and recorded in
// the transcript.
type Resolution struct {
	CategoryID *int
	TopicID    *int
	Topic      *catalog.TopicRecord
}

// Resolver resolves opaque participant metadata against the loaded catalog.
// Resolution never fails: anything malformed degrades to an absent topic.
type Resolver struct {
	Catalog *catalog.Catalog
	Logger  *slog.Logger
}

type participantMetadata struct {
	CategoryID *int `json:"category_id"`
	TopicID    *int `json:"topic_id"`
}

// Resolve parses metadata as JSON, extracts (category_id, topic_id) and looks
// the pair up in the catalog. Empty or unparseable metadata, missing ids, and
// lookup misses all degrade rather than error; a connected participant is
// waiting and the session proceeds in general mode.
func (r *Resolver) Resolve(metadata string) Resolution {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if strings.TrimSpace(metadata) == "" {
		return Resolution{}
	}

	var meta participantMetadata
	if err := json.Unmarshal([]byte(metadata), &meta); err != nil {
		logger.Warn("invalid participant metadata", "error", err)
		return Resolution{}
	}
	if meta.CategoryID == nil || meta.TopicID == nil {
		logger.Warn("participant metadata missing category_id or topic_id")
		return Resolution{}
	}

	res := Resolution{CategoryID: meta.CategoryID, TopicID: meta.TopicID}
	rec, ok := r.Catalog.Lookup(*meta.CategoryID, *meta.TopicID)
	if !ok {
		logger.Warn("topic not found",
			"category_id", *meta.CategoryID,
			"topic_id", *meta.TopicID,
		)
		return res
	}

	res.Topic = &rec
	logger.Info("topic resolved",
		"topic", rec.TopicName,
		"category", rec.CategoryName,
	)
	return res
}
