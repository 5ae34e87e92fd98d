// SPDX-License-Identifier: Apache-2.0

package arc

import (
	"encoding/json"
	"fmt"
	"time"
)

// Result kinds.
const (
	ResultTypeTask = "task"
	ResultTypeChat = "chat"
)

// Task status values.
const (
	TaskStatusSubmitted = "SUBMITTED"
	TaskStatusCompleted = "COMPLETED"
	TaskStatusFailed    = "FAILED"
)

// Chat status values.
const (
	ChatStatusActive = "ACTIVE"
	ChatStatusClosed = "CLOSED"
)

// Part content types.
const (
	PartTypeText = "TextPart"
	PartTypeData = "DataPart"
)

// Message roles.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Result is the normalized handler output: a tagged union of a task or a
// chat payload. Exactly one of Task and Chat is set, matching Type.
type Result struct {
	Type string
	Task *Task
	Chat *Chat
}

// TaskResult wraps a task payload into a Result envelope.
func TaskResult(task *Task) *Result {
	return &Result{Type: ResultTypeTask, Task: task}
}

// ChatResult wraps a chat payload into a Result envelope.
func ChatResult(chat *Chat) *Result {
	return &Result{Type: ResultTypeChat, Chat: chat}
}

// MarshalJSON renders the envelope as {"type":"task","task":{...}} or
// {"type":"chat","chat":{...}}.
func (r *Result) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case ResultTypeTask:
		return json.Marshal(&struct {
			Type string `json:"type"`
			Task *Task  `json:"task"`
		}{Type: r.Type, Task: r.Task})
	case ResultTypeChat:
		return json.Marshal(&struct {
			Type string `json:"type"`
			Chat *Chat  `json:"chat"`
		}{Type: r.Type, Chat: r.Chat})
	default:
		return nil, fmt.Errorf("unknown result type %q", r.Type)
	}
}

// UnmarshalJSON parses the tagged envelope form.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type string `json:"type"`
		Task *Task  `json:"task"`
		Chat *Chat  `json:"chat"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case ResultTypeTask:
		if raw.Task == nil {
			return fmt.Errorf("task result without task payload")
		}
		r.Type, r.Task, r.Chat = raw.Type, raw.Task, nil
	case ResultTypeChat:
		if raw.Chat == nil {
			return fmt.Errorf("chat result without chat payload")
		}
		r.Type, r.Chat, r.Task = raw.Type, raw.Chat, nil
	default:
		return fmt.Errorf("unknown result type %q", raw.Type)
	}
	return nil
}

// Task is the task payload of a Result.
type Task struct {
	TaskID      string                 `json:"taskId"`
	Status      string                 `json:"status"`
	CreatedAt   time.Time              `json:"createdAt"`
	CompletedAt *time.Time             `json:"completedAt,omitempty"`
	Artifacts   []Artifact             `json:"artifacts,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Artifact is one ordered output of a task.
type Artifact struct {
	ArtifactID string    `json:"artifactId"`
	Name       string    `json:"name"`
	Parts      []Part    `json:"parts"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Part is one unit of message or artifact content.
type Part struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	MimeType string `json:"mimeType,omitempty"`
}

// TextPart builds a plain text part.
func TextPart(content string) Part {
	return Part{Type: PartTypeText, Content: content}
}

// DataPart builds a structured data part with the given mime type.
func DataPart(content, mimeType string) Part {
	return Part{Type: PartTypeData, Content: content, MimeType: mimeType}
}

// Chat is the chat payload of a Result.
type Chat struct {
	ChatID    string    `json:"chatId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	Message   *Message  `json:"message,omitempty"`
}

// Message is one conversational turn.
type Message struct {
	Role      string    `json:"role"`
	Parts     []Part    `json:"parts"`
	Timestamp time.Time `json:"timestamp"`
}

// AgentMessage builds an agent-role message holding a single text part.
func AgentMessage(text string) *Message {
	return &Message{
		Role:      RoleAgent,
		Parts:     []Part{TextPart(text)},
		Timestamp: time.Now().UTC(),
	}
}
