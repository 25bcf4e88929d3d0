// Package catalog loads the conversation-topic catalog document and exposes
// read-only lookups over it. The catalog is loaded once at process start and
// shared by reference; it is never mutated afterwards.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// CatalogError is the fatal startup error class: the process cannot serve
// conversations without a readable, well-formed catalog.
type CatalogError struct {
	Path string
	Err  error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("load catalog %q: %v", e.Path, e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// TopicRecord is one practice scenario, flattened from the catalog document
// with English region strings resolved.
type TopicRecord struct {
	CategoryName string
	TopicName    string
	Description  string
	Tasks        []string
	Prompt       string
	FirstMessage string
	ImageURL     string
}

// CategorySummary is the listing shape served by /chinese-categories.
type CategorySummary struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
	TopicCount   int    `json:"topic_count"`
}

// CategoryRef identifies a category in topic listings.
type CategoryRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TopicSummary is the listing shape served by /chinese-topics/{category_id}.
type TopicSummary struct {
	TopicID     int      `json:"topic_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tasks       []string `json:"tasks"`
	ImageURL    string   `json:"image_url"`
}

// TopicDetail extends TopicSummary with the opening line, served by
// /chinese-topic/{category_id}/{topic_id}.
type TopicDetail struct {
	TopicID      int      `json:"topic_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Tasks        []string `json:"tasks"`
	ImageURL     string   `json:"image_url"`
	FirstMessage string   `json:"first_message"`
}

// Document shapes, as stored on disk.

type regionName struct {
	Name string `json:"name"`
}

type topicRegion struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tasks       []string `json:"tasks"`
}

type topicEntry struct {
	TopicID      int                    `json:"topic_id"`
	Regions      map[string]topicRegion `json:"regions"`
	Prompt       string                 `json:"prompt"`
	FirstMessage string                 `json:"first_message"`
	ImageURL     string                 `json:"image_url"`
}

type category struct {
	ID           int                   `json:"id"`
	DisplayOrder int                   `json:"display_order"`
	Regions      map[string]regionName `json:"regions"`
	TopicDetails []topicEntry          `json:"topic_details"`
}

// Catalog is the immutable set of conversation categories and topics.
type Catalog struct {
	categories []category
}

// Load reads and validates the catalog document. It returns a *CatalogError
// when the file is missing, is not valid JSON, or does not match the expected
// shape (every category and topic must carry an "en" region).
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CatalogError{Path: path, Err: err}
	}

	var categories []category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, &CatalogError{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}

	for _, cat := range categories {
		if _, ok := cat.Regions["en"]; !ok {
			return nil, &CatalogError{Path: path, Err: fmt.Errorf("category %d: missing en region", cat.ID)}
		}
		for _, td := range cat.TopicDetails {
			if _, ok := td.Regions["en"]; !ok {
				return nil, &CatalogError{Path: path, Err: fmt.Errorf("category %d topic %d: missing en region", cat.ID, td.TopicID)}
			}
		}
	}

	return &Catalog{categories: categories}, nil
}

// Lookup scans for the topic identified by (categoryID, topicID). The catalog
// is small (tens of entries), so a linear scan is fine; ids are expected
// unique, and the first match wins.
func (c *Catalog) Lookup(categoryID, topicID int) (TopicRecord, bool) {
	for _, cat := range c.categories {
		if cat.ID != categoryID {
			continue
		}
		for _, td := range cat.TopicDetails {
			if td.TopicID != topicID {
				continue
			}
			en := td.Regions["en"]
			return TopicRecord{
				CategoryName: cat.Regions["en"].Name,
				TopicName:    en.Title,
				Description:  en.Description,
				Tasks:        en.Tasks,
				Prompt:       td.Prompt,
				FirstMessage: td.FirstMessage,
				ImageURL:     td.ImageURL,
			}, true
		}
	}
	return TopicRecord{}, false
}

// Categories lists all categories sorted by display order.
func (c *Catalog) Categories() []CategorySummary {
	out := make([]CategorySummary, 0, len(c.categories))
	for _, cat := range c.categories {
		out = append(out, CategorySummary{
			ID:           cat.ID,
			Name:         cat.Regions["en"].Name,
			DisplayOrder: cat.DisplayOrder,
			TopicCount:   len(cat.TopicDetails),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out
}

// TopicsByCategory lists the topics of one category.
func (c *Catalog) TopicsByCategory(categoryID int) (CategoryRef, []TopicSummary, bool) {
	for _, cat := range c.categories {
		if cat.ID != categoryID {
			continue
		}
		topics := make([]TopicSummary, 0, len(cat.TopicDetails))
		for _, td := range cat.TopicDetails {
			en := td.Regions["en"]
			topics = append(topics, TopicSummary{
				TopicID:     td.TopicID,
				Title:       en.Title,
				Description: en.Description,
				Tasks:       en.Tasks,
				ImageURL:    td.ImageURL,
			})
		}
		return CategoryRef{ID: cat.ID, Name: cat.Regions["en"].Name}, topics, true
	}
	return CategoryRef{}, nil, false
}

// Topic returns the full detail of one topic, including its opening line.
func (c *Catalog) Topic(categoryID, topicID int) (CategoryRef, TopicDetail, bool) {
	for _, cat := range c.categories {
		if cat.ID != categoryID {
			continue
		}
		for _, td := range cat.TopicDetails {
			if td.TopicID != topicID {
				continue
			}
			en := td.Regions["en"]
			return CategoryRef{ID: cat.ID, Name: cat.Regions["en"].Name}, TopicDetail{
				TopicID:      td.TopicID,
				Title:        en.Title,
				Description:  en.Description,
				Tasks:        en.Tasks,
				ImageURL:     td.ImageURL,
				FirstMessage: td.FirstMessage,
			}, true
		}
	}
	return CategoryRef{}, TopicDetail{}, false
}
