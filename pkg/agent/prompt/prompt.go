// Package prompt renders the tutor's system instructions and the welcome turn.
// Both builders are pure: same topic in, byte-identical string out.
package prompt

import (
	"fmt"
	"strings"

	"github.com/trumchinese/tutor-agent/pkg/agent/catalog"
)

// DefaultWelcome is the opening line used when no topic is bound.
const DefaultWelcome = "你好！欢迎来练习中文对话！我们开始吧。"

const generalInstructions = `You are a Chinese language tutor helping students practice general conversation.
Speak primarily in Chinese (Simplified Chinese characters) and help students practice basic conversation skills.
Speak shortly like in the real conversation, just one or two sentences.
Be patient, encouraging, and provide corrections when needed.`

const topicGuidelines = `IMPORTANT GUIDELINES:
- Speak primarily in Chinese (Simplified Chinese characters)
- Use appropriate vocabulary level for beginner learners
- Provide corrections and explanations when needed
- Encourage the student to practice the specific tasks mentioned above
- Be patient and supportive
- Speak in a natural, conversational tone
- Speak shortly like in the real conversation, just one or two sentences
- Provide cultural context when relevant`

// Instructions renders the system instructions for the session. With a topic
// it combines the scenario fields and the task list; without one it falls
// back to the generic tutor block.
func Instructions(topic *catalog.TopicRecord) string {
	if topic == nil {
		return generalInstructions
	}

	tasks := make([]string, 0, len(topic.Tasks))
	for _, task := range topic.Tasks {
		tasks = append(tasks, "- "+task)
	}

	return fmt.Sprintf(`You are a real Chinese language tutor, not an AI, helping students practice conversation.
TOPIC: %s
DESCRIPTION: %s
ROLE & INSTRUCTIONS: %s
PRACTICE TASKS:
%s

%s`, topic.TopicName, topic.Description, topic.Prompt, strings.Join(tasks, "\n"), topicGuidelines)
}

// Welcome renders the instruction for the first generated turn. With a topic
// it tells the session to open with the scenario's first message in a short,
// natural register; without one it uses the fixed default welcome line.
func Welcome(topic *catalog.TopicRecord) string {
	if topic == nil {
		return DefaultWelcome
	}
	return fmt.Sprintf("Your first message is %q. Speak shortly and naturally, like in a real conversation, as a native Chinese speaker, not an assistant.", topic.FirstMessage)
}
