// SPDX-License-Identifier: Apache-2.0

package travel

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/arcprotocol/arc-go/pkg/arc"
	"github.com/arcprotocol/arc-go/pkg/arc/server"
)

const trackerGreeting = "Price Tracker: I'll monitor prices and alert you " +
	"when they drop! What route and price point are you interested in?"

var trackerGreetingFragments = []string{
	"Price Tracker: ", "I'll monitor prices ", "and alert you ",
	"when they drop! ", "What route and price point ",
	"are you interested in?",
}

const trackerAlertReply = "Great! I've set up a price alert. You'll get " +
	"notified when the price drops below $400. Current price: $420."

var trackerAlertFragments = []string{
	"Great! ", "I've set up ", "a price alert. ",
	"You'll get notified ", "when the price drops ",
	"below $400. ", "Current price: $420.",
}

type pricePoint struct {
	Date  string `json:"date"`
	Price int    `json:"price"`
}

// trackerTaskCreate sets up price monitoring. Unlike the search agents the
// tracker keeps working after the response, so the task stays SUBMITTED.
func trackerTaskCreate(ctx context.Context, call *server.Call) (*server.Reply, error) {
	history := []pricePoint{
		{Date: "2024-01-01", Price: 520},
		{Date: "2024-01-08", Price: 480},
		{Date: "2024-01-15", Price: 450},
		{Date: "2024-01-22", Price: 420},
	}
	content, err := json.Marshal(history)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &arc.Task{
		TaskID:    newTaskID("tracker"),
		Status:    arc.TaskStatusSubmitted,
		CreatedAt: now,
		Metadata: map[string]interface{}{
			"tracking":       "JFK → LAX",
			"currentPrice":   420,
			"lowestPrice":    380,
			"priceDropAlert": true,
			"alertThreshold": 400,
		},
		Artifacts: []arc.Artifact{{
			ArtifactID: newArtifactID(),
			Name:       "Price History",
			Parts:      []arc.Part{arc.DataPart(string(content), "application/json")},
			CreatedAt:  now,
		}},
	}
	if err := call.Tasks.Save(ctx, call.TargetAgent, task); err != nil {
		return nil, err
	}
	call.Logger.InfoContext(ctx, "price tracker created task",
		slog.String("task_id", task.TaskID))

	return server.ResultReply(arc.TaskResult(task)), nil
}

func trackerChatStart(ctx context.Context, call *server.Call) (*server.Reply, error) {
	return startChat(ctx, call, "tracker", "price_monitoring",
		trackerGreeting, 120*time.Millisecond, trackerGreetingFragments)
}

// trackerChatMessage answers a follow-up message on an existing chat.
// The session must exist and still be ACTIVE.
func trackerChatMessage(ctx context.Context, call *server.Call) (*server.Reply, error) {
	chatID := call.Params.ChatID()

	session, err := call.Chats.Active(chatID)
	if err != nil {
		return nil, err
	}

	if call.Params.Stream() {
		return server.StreamReply(session.ChatID,
			server.TimedFragments(100*time.Millisecond, trackerAlertFragments...)), nil
	}
	return server.ResultReply(arc.ChatResult(session.Chat(arc.AgentMessage(trackerAlertReply)))), nil
}
