package tutor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/trumchinese/tutor-agent/pkg/agent/catalog"
)

func coffeeTopic() *catalog.TopicRecord {
	return &catalog.TopicRecord{
		CategoryName: "Daily Life",
		TopicName:    "Ordering Coffee",
		Description:  "Practice ordering drinks at a coffee shop.",
	}
}

func TestHasStudent_Transitions(t *testing.T) {
	tut := New(nil)
	if tut.HasStudent() {
		t.Fatalf("fresh tutor should have no student")
	}
	tut.SetStudentName("Lena")
	if !tut.HasStudent() {
		t.Fatalf("HasStudent should be true after SetStudentName")
	}
	if got := tut.Student().Name; got != "Lena" {
		t.Errorf("Student().Name = %q", got)
	}
}

func TestSetStudentName_ReplyAndIdempotence(t *testing.T) {
	tut := New(nil)
	reply := tut.SetStudentName("伟")
	if !strings.Contains(reply, "伟") {
		t.Errorf("greeting does not include name: %q", reply)
	}
	// Calling again just overwrites; last write wins.
	tut.SetStudentName("Wei")
	if got := tut.Student().Name; got != "Wei" {
		t.Errorf("Student().Name = %q, want Wei", got)
	}
}

func TestGetEncouragement_UsesTopicName(t *testing.T) {
	if got := New(coffeeTopic()).GetEncouragement(); !strings.Contains(got, "Ordering Coffee") {
		t.Errorf("encouragement = %q", got)
	}
	if got := New(nil).GetEncouragement(); !strings.Contains(got, GeneralTopicName) {
		t.Errorf("general encouragement = %q", got)
	}
}

func TestGetTopicInfo(t *testing.T) {
	if got := New(coffeeTopic()).GetTopicInfo(); !strings.Contains(got, "Ordering Coffee") || !strings.Contains(got, "coffee shop") {
		t.Errorf("topic info = %q", got)
	}
	if got := New(nil).GetTopicInfo(); !strings.Contains(got, "ask me anything") {
		t.Errorf("general topic info = %q", got)
	}
	noDesc := New(&catalog.TopicRecord{TopicName: "Bare"})
	if got := noDesc.GetTopicInfo(); !strings.Contains(got, "Let's get started!") {
		t.Errorf("empty-description topic info = %q", got)
	}
}

func TestTools_DispatchThroughHandlers(t *testing.T) {
	tut := New(coffeeTopic())
	tools := tut.Tools()

	byName := make(map[string]func(context.Context, string) (string, error))
	for _, tool := range tools {
		byName[tool.Name] = tool.Handler
	}
	for _, name := range []string{"get_encouragement", "set_student_name", "get_topic_info"} {
		if byName[name] == nil {
			t.Fatalf("missing tool %q", name)
		}
	}

	reply, err := byName["set_student_name"](context.Background(), `{"name":"Mia"}`)
	if err != nil {
		t.Fatalf("set_student_name: %v", err)
	}
	if !strings.Contains(reply, "Mia") || !tut.HasStudent() {
		t.Errorf("reply = %q, HasStudent = %v", reply, tut.HasStudent())
	}

	// Malformed arguments never fail; they degrade to the zero value.
	if _, err := byName["set_student_name"](context.Background(), "{broken"); err != nil {
		t.Errorf("handler returned error for malformed args: %v", err)
	}

	if reply, _ := byName["get_topic_info"](context.Background(), "{}"); !strings.Contains(reply, "Ordering Coffee") {
		t.Errorf("get_topic_info reply = %q", reply)
	}
}

func TestConcurrentWrites(t *testing.T) {
	tut := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tut.SetStudentName(fmt.Sprintf("student-%d", i))
		}(i)
	}
	wg.Wait()
	if !tut.HasStudent() {
		t.Fatalf("expected a student name after concurrent writes")
	}
	if !strings.HasPrefix(tut.Student().Name, "student-") {
		t.Errorf("Student().Name = %q", tut.Student().Name)
	}
}
