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

const hotelGreeting = "Hotel Booking Agent: I'll help you find the perfect " +
	"accommodation. What city and dates are you looking for?"

var hotelGreetingFragments = []string{
	"Hotel Booking Agent: ", "I'll help you ", "find the perfect ",
	"accommodation. ", "What city and dates ", "are you looking for?",
}

type hotelOption struct {
	Name      string   `json:"name"`
	Rating    float64  `json:"rating"`
	Price     int      `json:"price"`
	Amenities []string `json:"amenities"`
}

// hotelTaskCreate simulates a hotel search and completes immediately.
func hotelTaskCreate(ctx context.Context, call *server.Call) (*server.Reply, error) {
	hotels := []hotelOption{
		{Name: "Grand Plaza Hotel", Rating: 4.5, Price: 189, Amenities: []string{"WiFi", "Pool", "Gym"}},
		{Name: "City Center Inn", Rating: 4.2, Price: 149, Amenities: []string{"WiFi", "Breakfast"}},
		{Name: "Airport Suites", Rating: 3.8, Price: 99, Amenities: []string{"WiFi", "Shuttle"}},
	}
	content, err := json.Marshal(hotels)
	if err != nil {
		return nil, err
	}

	task, err := completedTask(ctx, call, "hotel", "Hotel Options", string(content))
	if err != nil {
		return nil, err
	}
	call.Logger.InfoContext(ctx, "hotel booking created task",
		slog.String("task_id", task.TaskID))

	return server.ResultReply(arc.TaskResult(task)), nil
}

func hotelChatStart(ctx context.Context, call *server.Call) (*server.Reply, error) {
	return startChat(ctx, call, "hotel", "hotel_search",
		hotelGreeting, 120*time.Millisecond, hotelGreetingFragments)
}
