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

const flightGreeting = "Flight Search Assistant: Where would you like to fly? " +
	"I can help you find the best flights by price, time, or airline."

var flightGreetingFragments = []string{
	"Flight Search Assistant: ", "Where would you like to fly? ",
	"I can help you ", "find the best flights ", "by price, time, ",
	"or airline.",
}

type flightOption struct {
	Airline   string `json:"airline"`
	Price     int    `json:"price"`
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	Duration  string `json:"duration"`
}

// flightTaskCreate simulates a flight search and completes immediately.
func flightTaskCreate(ctx context.Context, call *server.Call) (*server.Reply, error) {
	flights := []flightOption{
		{Airline: "Delta", Price: 450, Departure: "10:30 AM", Arrival: "2:45 PM", Duration: "4h 15m"},
		{Airline: "United", Price: 420, Departure: "1:15 PM", Arrival: "5:30 PM", Duration: "4h 15m"},
		{Airline: "Southwest", Price: 380, Departure: "6:00 AM", Arrival: "10:15 AM", Duration: "4h 15m"},
	}
	content, err := json.Marshal(flights)
	if err != nil {
		return nil, err
	}

	task, err := completedTask(ctx, call, "flight", "Flight Search Results", string(content))
	if err != nil {
		return nil, err
	}
	call.Logger.InfoContext(ctx, "flight finder created task",
		slog.String("task_id", task.TaskID))

	return server.ResultReply(arc.TaskResult(task)), nil
}

func flightChatStart(ctx context.Context, call *server.Call) (*server.Reply, error) {
	return startChat(ctx, call, "flight", "flight_search",
		flightGreeting, 150*time.Millisecond, flightGreetingFragments)
}
