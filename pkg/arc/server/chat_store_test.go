// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arcprotocol/arc-go/pkg/arc"
	"github.com/arcprotocol/arc-go/pkg/errors"
)

func TestChatStoreCreate(t *testing.T) {
	store := NewChatStore()
	session, err := store.Create("flight-finder", "chat_abc", map[string]string{"agent_type": "flight"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if session.ChatID != "chat_abc" {
		t.Errorf("expected chat id chat_abc, got %s", session.ChatID)
	}
	if session.Status != arc.ChatStatusActive {
		t.Errorf("expected status ACTIVE, got %s", session.Status)
	}
	if session.CreatedAt.IsZero() {
		t.Error("expected createdAt to be set")
	}
	if session.Metadata["agent_type"] != "flight" {
		t.Errorf("metadata not recorded: %v", session.Metadata)
	}
}

func TestChatStoreCreateGeneratesID(t *testing.T) {
	store := NewChatStore()
	session, err := store.Create("flight-finder", "", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.HasPrefix(session.ChatID, "chat_") {
		t.Errorf("expected generated id with chat_ prefix, got %s", session.ChatID)
	}
	if len(session.ChatID) <= len("chat_") {
		t.Errorf("generated id has no suffix: %s", session.ChatID)
	}
}

func TestChatStoreCreateActiveConflict(t *testing.T) {
	store := NewChatStore()
	if _, err := store.Create("flight-finder", "chat_abc", nil); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err := store.Create("flight-finder", "chat_abc", nil)
	wantCode(t, err, errors.CodeChatAlreadyActive)
}

func TestChatStoreCreateReusedAfterClose(t *testing.T) {
	store := NewChatStore()
	if _, err := store.Create("flight-finder", "chat_abc", nil); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := store.Close("chat_abc", "done"); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	_, err := store.Create("flight-finder", "chat_abc", nil)
	wantCode(t, err, errors.CodeChatIDReused)
}

func TestChatStoreGet(t *testing.T) {
	store := NewChatStore()
	if _, err := store.Create("flight-finder", "chat_abc", nil); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	session, err := store.Get("chat_abc")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if session.TargetAgent != "flight-finder" {
		t.Errorf("expected target agent flight-finder, got %s", session.TargetAgent)
	}

	_, err = store.Get("chat_missing")
	wantCode(t, err, errors.CodeChatNotFound)
}

func TestChatStoreActive(t *testing.T) {
	store := NewChatStore()
	if _, err := store.Create("flight-finder", "chat_abc", nil); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := store.Active("chat_abc"); err != nil {
		t.Fatalf("active failed for open session: %v", err)
	}

	_, err := store.Active("chat_missing")
	wantCode(t, err, errors.CodeChatNotFound)

	if _, err := store.Close("chat_abc", "done"); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	_, err = store.Active("chat_abc")
	wantCode(t, err, errors.CodeSessionAlreadyClosed)

	// Get still serves the closed session for inspection.
	session, err := store.Get("chat_abc")
	if err != nil {
		t.Fatalf("get after close failed: %v", err)
	}
	if session.Status != arc.ChatStatusClosed {
		t.Errorf("expected status CLOSED, got %s", session.Status)
	}
}

func TestChatStoreClose(t *testing.T) {
	store := NewChatStore()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	if _, err := store.Create("flight-finder", "chat_abc", nil); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	session, err := store.Close("chat_abc", "user hung up")
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if session.Status != arc.ChatStatusClosed {
		t.Errorf("expected status CLOSED, got %s", session.Status)
	}
	if session.ClosedAt == nil || !session.ClosedAt.Equal(fixed) {
		t.Errorf("expected closedAt %v, got %v", fixed, session.ClosedAt)
	}
	if session.CloseReason != "user hung up" {
		t.Errorf("expected close reason recorded, got %q", session.CloseReason)
	}

	_, err = store.Close("chat_abc", "again")
	wantCode(t, err, errors.CodeSessionAlreadyClosed)

	_, err = store.Close("chat_missing", "whatever")
	wantCode(t, err, errors.CodeChatNotFound)
}

func TestChatStoreConcurrentCreateSameID(t *testing.T) {
	store := NewChatStore()
	const workers = 32

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Create("flight-finder", "chat_contested", nil)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		wantCode(t, err, errors.CodeChatAlreadyActive)
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful create, got %d", successes)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 tracked session, got %d", store.Len())
	}
}

func TestChatStoreConcurrentDistinctIDs(t *testing.T) {
	store := NewChatStore()
	const workers = 64

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			chatID := fmt.Sprintf("chat_%04d", n)
			if _, err := store.Create("flight-finder", chatID, nil); err != nil {
				t.Errorf("create %s failed: %v", chatID, err)
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != workers {
		t.Fatalf("expected %d sessions, got %d", workers, store.Len())
	}
}

func TestChatStoreCloneIsolation(t *testing.T) {
	store := NewChatStore()
	metadata := map[string]string{"agent_type": "flight"}
	session, err := store.Create("flight-finder", "chat_abc", metadata)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Mutating the returned session must not leak into the store.
	session.Status = "MANGLED"
	session.Metadata["agent_type"] = "mangled"

	stored, err := store.Get("chat_abc")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Status != arc.ChatStatusActive {
		t.Errorf("store state mutated through returned session: %s", stored.Status)
	}
	if stored.Metadata["agent_type"] != "flight" {
		t.Errorf("store metadata mutated through returned session: %v", stored.Metadata)
	}
}

func TestChatSessionChatPayload(t *testing.T) {
	session := &ChatSession{
		ChatID:    "chat_abc",
		Status:    arc.ChatStatusActive,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	message := arc.AgentMessage("hello")
	chat := session.Chat(message)
	if chat.ChatID != "chat_abc" || chat.Status != arc.ChatStatusActive {
		t.Errorf("chat payload does not reflect session: %+v", chat)
	}
	if chat.Message != message {
		t.Error("chat payload dropped the message")
	}
}
