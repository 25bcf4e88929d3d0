package handlers

import (
	"net/http"
	"strconv"

	"github.com/trumchinese/tutor-agent/pkg/agent/catalog"
)

// CategoriesHandler serves GET /chinese-categories.
type CategoriesHandler struct {
	Catalog *catalog.Catalog
}

func (h CategoriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Success    bool                      `json:"success"`
		Categories []catalog.CategorySummary `json:"categories"`
	}{
		Success:    true,
		Categories: h.Catalog.Categories(),
	})
}

// TopicsHandler serves GET /chinese-topics/{category_id}.
type TopicsHandler struct {
	Catalog *catalog.Catalog
}

func (h TopicsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.Atoi(r.PathValue("category_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}

	ref, topics, ok := h.Catalog.TopicsByCategory(categoryID)
	if !ok {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success  bool                   `json:"success"`
		Category catalog.CategoryRef    `json:"category"`
		Topics   []catalog.TopicSummary `json:"topics"`
	}{
		Success:  true,
		Category: ref,
		Topics:   topics,
	})
}

// TopicDetailHandler serves GET /chinese-topic/{category_id}/{topic_id}.
type TopicDetailHandler struct {
	Catalog *catalog.Catalog
}

func (h TopicDetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.Atoi(r.PathValue("category_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Topic not found")
		return
	}
	topicID, err := strconv.Atoi(r.PathValue("topic_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Topic not found")
		return
	}

	ref, detail, ok := h.Catalog.Topic(categoryID, topicID)
	if !ok {
		writeError(w, http.StatusNotFound, "Topic not found")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success  bool                `json:"success"`
		Category catalog.CategoryRef `json:"category"`
		Topic    catalog.TopicDetail `json:"topic"`
	}{
		Success:  true,
		Category: ref,
		Topic:    detail,
	})
}
