// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arcprotocol/arc-go/pkg/arc"
	"github.com/arcprotocol/arc-go/pkg/errors"
	"github.com/arcprotocol/arc-go/pkg/telemetry"
)

const chatShardCount = 32

// ChatSession is one chat conversation tracked by the store. Status moves
// ACTIVE to CLOSED exactly once; CLOSED is terminal.
type ChatSession struct {
	ChatID      string
	TargetAgent string
	Status      string
	CreatedAt   time.Time
	ClosedAt    *time.Time
	Metadata    map[string]string
	CloseReason string
}

// Chat renders the session as a chat payload, optionally with a message.
func (s *ChatSession) Chat(message *arc.Message) *arc.Chat {
	return &arc.Chat{
		ChatID:    s.ChatID,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
		Message:   message,
	}
}

// ChatStore tracks chat sessions in memory. Operations on the same chatId
// serialize through the owning shard; distinct chatIds on different shards
// proceed fully in parallel. Closed sessions stay in the store so id reuse
// remains detectable for the process lifetime.
type ChatStore struct {
	shards  [chatShardCount]chatShard
	now     func() time.Time
	metrics *telemetry.DispatchMetrics
}

type chatShard struct {
	mu       sync.Mutex
	sessions map[string]*ChatSession
}

// NewChatStore creates an empty chat session store.
func NewChatStore() *ChatStore {
	store := &ChatStore{now: func() time.Time { return time.Now().UTC() }}
	for i := range store.shards {
		store.shards[i].sessions = make(map[string]*ChatSession)
	}
	return store
}

// Instrument attaches dispatch metrics so session churn shows up in the
// arc.chats.active gauge.
func (c *ChatStore) Instrument(metrics *telemetry.DispatchMetrics) {
	c.metrics = metrics
}

func (c *ChatStore) shard(chatID string) *chatShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(chatID))
	return &c.shards[h.Sum32()%chatShardCount]
}

// Create registers a new ACTIVE session for targetAgent. When chatID is
// empty a fresh opaque id is generated. An existing ACTIVE session fails
// with ChatAlreadyActive; a CLOSED one with ChatIdReused — identifiers are
// never silently resurrected. The returned session carries the
// authoritative createdAt for downstream envelopes.
func (c *ChatStore) Create(targetAgent, chatID string, metadata map[string]string) (*ChatSession, error) {
	if chatID == "" {
		chatID = newChatID()
	}

	shard := c.shard(chatID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if existing, ok := shard.sessions[chatID]; ok {
		if existing.Status == arc.ChatStatusActive {
			return nil, errors.Newf(errors.CodeChatAlreadyActive,
				"chat already active: %s", chatID).WithContext("chat_id", chatID)
		}
		return nil, errors.Newf(errors.CodeChatIDReused,
			"chat id was closed and cannot be reused: %s", chatID).WithContext("chat_id", chatID)
	}

	session := &ChatSession{
		ChatID:      chatID,
		TargetAgent: targetAgent,
		Status:      arc.ChatStatusActive,
		CreatedAt:   c.now(),
		Metadata:    cloneMetadata(metadata),
	}
	shard.sessions[chatID] = session
	c.metrics.ChatOpened(context.Background(), targetAgent)
	return session.clone(), nil
}

// Get returns the session for chatID, closed ones included. Fails with
// ChatNotFound when no session exists.
func (c *ChatStore) Get(chatID string) (*ChatSession, error) {
	shard := c.shard(chatID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	session, ok := shard.sessions[chatID]
	if !ok {
		return nil, errors.Newf(errors.CodeChatNotFound, "chat not found: %s", chatID).
			WithContext("chat_id", chatID)
	}
	return session.clone(), nil
}

// Active returns the session for chatID only if it is still ACTIVE. A
// CLOSED session fails with SessionAlreadyClosed; handlers use this to
// reject messages to ended conversations.
func (c *ChatStore) Active(chatID string) (*ChatSession, error) {
	shard := c.shard(chatID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	session, ok := shard.sessions[chatID]
	if !ok {
		return nil, errors.Newf(errors.CodeChatNotFound, "chat not found: %s", chatID).
			WithContext("chat_id", chatID)
	}
	if session.Status == arc.ChatStatusClosed {
		return nil, errors.Newf(errors.CodeSessionAlreadyClosed,
			"chat is closed: %s", chatID).WithContext("chat_id", chatID)
	}
	return session.clone(), nil
}

// Close transitions the session to CLOSED, recording the time and reason.
// Racing closes serialize on the shard; exactly one succeeds, the rest fail
// with SessionAlreadyClosed.
func (c *ChatStore) Close(chatID, reason string) (*ChatSession, error) {
	shard := c.shard(chatID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	session, ok := shard.sessions[chatID]
	if !ok {
		return nil, errors.Newf(errors.CodeChatNotFound, "chat not found: %s", chatID).
			WithContext("chat_id", chatID)
	}
	if session.Status == arc.ChatStatusClosed {
		return nil, errors.Newf(errors.CodeSessionAlreadyClosed,
			"chat already closed: %s", chatID).WithContext("chat_id", chatID)
	}

	closedAt := c.now()
	session.Status = arc.ChatStatusClosed
	session.ClosedAt = &closedAt
	session.CloseReason = reason
	c.metrics.ChatClosed(context.Background(), session.TargetAgent)
	return session.clone(), nil
}

// Len reports the number of tracked sessions, closed ones included.
func (c *ChatStore) Len() int {
	total := 0
	for i := range c.shards {
		shard := &c.shards[i]
		shard.mu.Lock()
		total += len(shard.sessions)
		shard.mu.Unlock()
	}
	return total
}

func (s *ChatSession) clone() *ChatSession {
	out := *s
	out.Metadata = cloneMetadata(s.Metadata)
	if s.ClosedAt != nil {
		closedAt := *s.ClosedAt
		out.ClosedAt = &closedAt
	}
	return &out
}

func cloneMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}

func newChatID() string {
	return "chat_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
