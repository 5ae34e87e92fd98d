// SPDX-License-Identifier: Apache-2.0

// Package travel wires the travel & booking demo agents: flight-finder,
// hotel-booking, itinerary-planner and price-tracker, each exposing its
// subset of the ARC method vocabulary.
package travel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arcprotocol/arc-go/pkg/arc"
	"github.com/arcprotocol/arc-go/pkg/arc/server"
)

// Agent ids of the travel platform.
const (
	AgentFlightFinder     = "flight-finder"
	AgentHotelBooking     = "hotel-booking"
	AgentItineraryPlanner = "itinerary-planner"
	AgentPriceTracker     = "price-tracker"
)

// ChatAgents lists every agent that participates in chat conversations.
// All of them share one agent-agnostic chat.end handler.
var ChatAgents = []string{
	AgentFlightFinder,
	AgentHotelBooking,
	AgentItineraryPlanner,
	AgentPriceTracker,
}

var (
	taskCreateSchema = server.Schema{Fields: []server.Field{
		server.RequiredString("initialMessage"),
		server.OptionalStringDefault("priority", "NORMAL"),
	}}
	chatStartSchema = server.Schema{Fields: []server.Field{
		server.RequiredString("initialMessage"),
		server.OptionalString("chatId"),
		server.OptionalBool("stream"),
	}}
	chatMessageSchema = server.Schema{Fields: []server.Field{
		server.RequiredString("chatId"),
		server.RequiredString("message"),
		server.OptionalBool("stream"),
	}}
	chatEndSchema = server.Schema{Fields: []server.Field{
		server.RequiredString("chatId"),
		server.OptionalStringDefault("reason", "Chat ended by user"),
	}}
	taskGetSchema = server.Schema{Fields: []server.Field{
		server.RequiredString("taskId"),
	}}
)

// Register adds every travel agent to the registry. Each handler runs
// under the standard middleware stack: tracing, panic recovery, logging
// and params validation.
func Register(reg *server.Registry, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	type registration struct {
		agent   string
		method  string
		handler server.Handler
		schema  server.Schema
	}
	registrations := []registration{
		{AgentFlightFinder, arc.MethodTaskCreate, flightTaskCreate, taskCreateSchema},
		{AgentFlightFinder, arc.MethodChatStart, flightChatStart, chatStartSchema},
		{AgentHotelBooking, arc.MethodTaskCreate, hotelTaskCreate, taskCreateSchema},
		{AgentHotelBooking, arc.MethodChatStart, hotelChatStart, chatStartSchema},
		{AgentItineraryPlanner, arc.MethodTaskCreate, itineraryTaskCreate, taskCreateSchema},
		{AgentItineraryPlanner, arc.MethodChatStart, itineraryChatStart, chatStartSchema},
		{AgentPriceTracker, arc.MethodTaskCreate, trackerTaskCreate, taskCreateSchema},
		{AgentPriceTracker, arc.MethodChatStart, trackerChatStart, chatStartSchema},
		{AgentPriceTracker, arc.MethodChatMessage, trackerChatMessage, chatMessageSchema},
	}
	for _, agent := range ChatAgents {
		registrations = append(registrations,
			registration{agent, arc.MethodChatEnd, chatEnd, chatEndSchema},
			registration{agent, arc.MethodTaskGet, taskGet, taskGetSchema},
		)
	}

	for _, r := range registrations {
		err := reg.Register(r.agent, r.method, r.handler,
			server.Trace(),
			server.Recover(),
			server.Log(logger),
			server.ValidateParams(r.schema),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// chatEnd closes a conversation. It is shared by all chat agents and keyed
// purely by chatId; no agent-specific side effects happen on close.
func chatEnd(ctx context.Context, call *server.Call) (*server.Reply, error) {
	chatID := call.Params.ChatID()
	reason := call.Params.String("reason")

	session, err := call.Chats.Close(chatID, reason)
	if err != nil {
		return nil, err
	}
	call.Logger.InfoContext(ctx, "ended chat",
		slog.String("chat_id", chatID), slog.String("reason", reason))

	return server.ResultReply(arc.ChatResult(session.Chat(nil))), nil
}

// taskGet serves previously created task records. Shared across agents;
// task ids are globally unique.
func taskGet(ctx context.Context, call *server.Call) (*server.Reply, error) {
	task, err := call.Tasks.Get(ctx, call.Params.String("taskId"))
	if err != nil {
		return nil, err
	}
	return server.ResultReply(arc.TaskResult(task)), nil
}

func newTaskID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixMilli())
}

func newArtifactID() string {
	return fmt.Sprintf("artifact_%d", time.Now().UnixMilli())
}

func newChatID(prefix string) string {
	return fmt.Sprintf("%s_chat_%s", prefix,
		strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// completedTask builds a COMPLETED task envelope with one data artifact
// and records it in the task store.
func completedTask(ctx context.Context, call *server.Call, prefix, artifactName, content string) (*arc.Task, error) {
	now := time.Now().UTC()
	task := &arc.Task{
		TaskID:      newTaskID(prefix),
		Status:      arc.TaskStatusCompleted,
		CreatedAt:   now,
		CompletedAt: &now,
		Artifacts: []arc.Artifact{{
			ArtifactID: newArtifactID(),
			Name:       artifactName,
			Parts:      []arc.Part{arc.DataPart(content, "application/json")},
			CreatedAt:  now,
		}},
	}
	if err := call.Tasks.Save(ctx, call.TargetAgent, task); err != nil {
		return nil, err
	}
	return task, nil
}

// startChat creates the session and answers either with a greeting stream
// or a single chat envelope, depending on the advisory stream flag.
func startChat(ctx context.Context, call *server.Call, idPrefix, specialization, greeting string, delay time.Duration, fragments []string) (*server.Reply, error) {
	chatID := call.Params.ChatID()
	if chatID == "" {
		chatID = newChatID(idPrefix)
	}

	session, err := call.Chats.Create(call.TargetAgent, chatID, map[string]string{
		"agent_type":     call.TargetAgent,
		"specialization": specialization,
	})
	if err != nil {
		return nil, err
	}

	if call.Params.Stream() {
		return server.StreamReply(session.ChatID, server.TimedFragments(delay, fragments...)), nil
	}
	return server.ResultReply(arc.ChatResult(session.Chat(arc.AgentMessage(greeting)))), nil
}
