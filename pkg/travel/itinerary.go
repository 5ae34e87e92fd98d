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

const itineraryGreeting = "Travel Planner: I'll create a personalized itinerary " +
	"for your trip! What's your destination and how many days?"

var itineraryGreetingFragments = []string{
	"Travel Planner: ", "I'll create ", "a personalized ",
	"itinerary ", "for your trip! ", "What's your destination ",
	"and how many days?",
}

type itineraryDay struct {
	Day        int      `json:"day"`
	Activities []string `json:"activities"`
}

type itineraryPlan struct {
	Destination     string         `json:"destination"`
	Days            int            `json:"days"`
	Schedule        []itineraryDay `json:"schedule"`
	EstimatedBudget int            `json:"estimatedBudget"`
}

// itineraryTaskCreate simulates trip planning and completes immediately.
func itineraryTaskCreate(ctx context.Context, call *server.Call) (*server.Reply, error) {
	plan := itineraryPlan{
		Destination: "Paris, France",
		Days:        5,
		Schedule: []itineraryDay{
			{Day: 1, Activities: []string{"Arrive", "Eiffel Tower", "Seine River Cruise"}},
			{Day: 2, Activities: []string{"Louvre Museum", "Notre-Dame", "Latin Quarter"}},
			{Day: 3, Activities: []string{"Versailles Palace", "Shopping", "Moulin Rouge"}},
			{Day: 4, Activities: []string{"Montmartre", "Sacré-Cœur", "Arc de Triomphe"}},
			{Day: 5, Activities: []string{"Last minute shopping", "Departure"}},
		},
		EstimatedBudget: 2500,
	}
	content, err := json.Marshal(plan)
	if err != nil {
		return nil, err
	}

	task, err := completedTask(ctx, call, "itinerary", "5-Day Paris Itinerary", string(content))
	if err != nil {
		return nil, err
	}
	call.Logger.InfoContext(ctx, "itinerary planner created task",
		slog.String("task_id", task.TaskID))

	return server.ResultReply(arc.TaskResult(task)), nil
}

func itineraryChatStart(ctx context.Context, call *server.Call) (*server.Reply, error) {
	return startChat(ctx, call, "itinerary", "trip_planning",
		itineraryGreeting, 120*time.Millisecond, itineraryGreetingFragments)
}
