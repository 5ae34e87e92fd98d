// SPDX-License-Identifier: Apache-2.0

package arc

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestResultMarshalTask(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res := TaskResult(&Task{
		TaskID:    "flight_1",
		Status:    TaskStatusCompleted,
		CreatedAt: created,
		Artifacts: []Artifact{{
			ArtifactID: "artifact_1",
			Name:       "Flight Search Results",
			Parts:      []Part{DataPart(`[{"airline":"Delta"}]`, "application/json")},
			CreatedAt:  created,
		}},
	})

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"type":"task"`) {
		t.Errorf("expected task tag, got %s", s)
	}
	if strings.Contains(s, `"chat"`) {
		t.Errorf("task result must not carry a chat field: %s", s)
	}

	var back Result
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if back.Type != ResultTypeTask || back.Task == nil || back.Task.TaskID != "flight_1" {
		t.Errorf("round trip lost task payload: %+v", back)
	}
}

func TestResultMarshalChat(t *testing.T) {
	res := ChatResult(&Chat{
		ChatID:    "chat_abc",
		Status:    ChatStatusActive,
		CreatedAt: time.Now().UTC(),
		Message:   AgentMessage("hello"),
	})

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if !strings.Contains(string(data), `"type":"chat"`) {
		t.Errorf("expected chat tag, got %s", data)
	}

	var back Result
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if back.Chat == nil || back.Chat.Message == nil || back.Chat.Message.Role != RoleAgent {
		t.Errorf("round trip lost chat message: %+v", back)
	}
}

func TestResultUnmarshalRejectsUnknownType(t *testing.T) {
	var res Result
	if err := json.Unmarshal([]byte(`{"type":"widget"}`), &res); err == nil {
		t.Fatalf("expected error for unknown result type")
	}
}

func TestParamsAccessors(t *testing.T) {
	p := Params{
		"chatId":   "chat_1",
		"stream":   true,
		"priority": "HIGH",
		"count":    float64(3),
		"metadata": map[string]interface{}{"region": "eu", "n": float64(1)},
	}

	if p.ChatID() != "chat_1" {
		t.Errorf("ChatID: got %q", p.ChatID())
	}
	if !p.Stream() {
		t.Errorf("Stream: expected true")
	}
	if p.Float("count") != 3 {
		t.Errorf("Float: got %v", p.Float("count"))
	}
	if p.String("missing") != "" {
		t.Errorf("String on missing key should be empty")
	}
	md := p.StringMap("metadata")
	if md["region"] != "eu" {
		t.Errorf("StringMap: got %v", md)
	}
	if _, ok := md["n"]; ok {
		t.Errorf("StringMap should skip non-string values")
	}
	if (Params{}).Stream() {
		t.Errorf("Stream should default to false")
	}
}
