// Package tutor holds the per-conversation student state and the spoken
// actions the model can invoke against it.
package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/trumchinese/tutor-agent/pkg/agent/catalog"
	"github.com/trumchinese/tutor-agent/pkg/agent/realtime"
)

// GeneralTopicName is used when no catalog topic is bound.
const GeneralTopicName = "General Chinese"

// StudentDetails is the fixed-shape student profile. Fields default to their
// zero values and are only written by explicit actions.
type StudentDetails struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Level            string `json:"level"`
	Goals            string `json:"goals"`
	LessonsCompleted int    `json:"lessons_completed"`
}

// Tutor is the mutable state of one conversation. Tool calls arrive on
// overlapping goroutines, so field writes are mutex-guarded; each action is a
// single field assignment, so last-write-wins is acceptable.
type Tutor struct {
	topic     *catalog.TopicRecord
	topicName string

	mu      sync.Mutex
	details StudentDetails
}

// New binds a tutor to the resolved topic, or to general conversation mode
// when topic is nil.
func New(topic *catalog.TopicRecord) *Tutor {
	name := GeneralTopicName
	if topic != nil {
		name = topic.TopicName
	}
	return &Tutor{topic: topic, topicName: name}
}

// TopicName reports the bound topic name ("General Chinese" in general mode).
func (t *Tutor) TopicName() string { return t.topicName }

// HasStudent reports whether the student has introduced themselves.
func (t *Tutor) HasStudent() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.details.Name != ""
}

// Student returns a snapshot of the student details.
func (t *Tutor) Student() StudentDetails {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.details
}

// GetEncouragement returns a motivational reply. No mutation.
func (t *Tutor) GetEncouragement() string {
	return fmt.Sprintf("Great job practicing %s! Keep up the excellent work. Consistency is key to mastering Chinese!", t.topicName)
}

// SetStudentName stores the student's name and returns a greeting. The name
// is stored as supplied; it comes from the model and is untrusted either way.
func (t *Tutor) SetStudentName(name string) string {
	t.mu.Lock()
	t.details.Name = name
	t.mu.Unlock()
	return fmt.Sprintf("Nice to meet you, %s! I'm here to help you learn Chinese. Let's start practicing!", name)
}

// GetTopicInfo describes the current topic, or invites free conversation in
// general mode.
func (t *Tutor) GetTopicInfo() string {
	if t.topic == nil {
		return "We're having a general Chinese conversation. Feel free to ask me anything!"
	}
	description := t.topic.Description
	if description == "" {
		description = "Let's get started!"
	}
	return fmt.Sprintf("We're practicing: %s. %s", t.topicName, description)
}

// Tools exposes the actions as realtime function tools. Handlers never fail:
// malformed arguments degrade to zero values.
func (t *Tutor) Tools() []realtime.Tool {
	return []realtime.Tool{
		{
			Name:        "get_encouragement",
			Description: "Provide encouragement and motivation for Chinese language learning.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
			Handler: func(ctx context.Context, args string) (string, error) {
				return t.GetEncouragement(), nil
			},
		},
		{
			Name:        "set_student_name",
			Description: "Set the student's name for personalized interaction.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{
						"type":        "string",
						"description": "The name of the student",
					},
				},
				"required": []string{"name"},
			},
			Handler: func(ctx context.Context, args string) (string, error) {
				var in struct {
					Name string `json:"name"`
				}
				_ = json.Unmarshal([]byte(args), &in)
				return t.SetStudentName(in.Name), nil
			},
		},
		{
			Name:        "get_topic_info",
			Description: "Get information about the current topic being practiced.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
			Handler: func(ctx context.Context, args string) (string, error) {
				return t.GetTopicInfo(), nil
			},
		},
	}
}
