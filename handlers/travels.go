// ABOUTME: Conveyance MCP tool handlers
// ABOUTME: Implements start_travel, punch_in, stop_travel, and list_travels tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/fieldforce/fieldops"
	"github.com/harperreed/fieldforce/models"
)

type TravelHandlers struct {
	svc *fieldops.Service
}

func NewTravelHandlers(svc *fieldops.Service) *TravelHandlers {
	return &TravelHandlers{svc: svc}
}

type PunchOutput struct {
	At        string   `json:"at"`
	Location  string   `json:"location"`
	Kind      string   `json:"kind"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type TravelOutput struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Status     string        `json:"status"`
	StartedAt  string        `json:"started_at"`
	EndedAt    *string       `json:"ended_at,omitempty"`
	DistanceKM float64       `json:"distance_km"`
	PunchIns   []PunchOutput `json:"punch_ins"`
}

func travelToOutput(t *models.Travel) TravelOutput {
	out := TravelOutput{
		ID:         t.ID.String(),
		Title:      t.Title,
		Status:     t.Status,
		StartedAt:  t.StartedAt.Format(time.RFC3339),
		EndedAt:    formatOptional(t.EndedAt),
		DistanceKM: t.DistanceKM(),
		PunchIns:   make([]PunchOutput, len(t.PunchIns)),
	}
	for i, p := range t.PunchIns {
		out.PunchIns[i] = PunchOutput{
			At:        p.At.Format(time.RFC3339),
			Location:  p.Location,
			Kind:      p.Kind,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
		}
	}
	return out
}

type StartTravelInput struct {
	Title     string   `json:"title" jsonschema:"What the trip is for (required)"`
	Location  string   `json:"location" jsonschema:"Starting location (required)"`
	Latitude  *float64 `json:"latitude,omitempty" jsonschema:"Starting latitude"`
	Longitude *float64 `json:"longitude,omitempty" jsonschema:"Starting longitude"`
}

func (h *TravelHandlers) StartTravel(ctx context.Context, request *mcp.CallToolRequest, input StartTravelInput) (*mcp.CallToolResult, TravelOutput, error) {
	travel, err := h.svc.StartTravel(ctx, input.Title, models.PunchIn{
		Location:  input.Location,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
	})
	if err != nil {
		return nil, TravelOutput{}, err
	}
	return nil, travelToOutput(travel), nil
}

type PunchInInput struct {
	TravelID  string   `json:"travel_id" jsonschema:"Active travel ID (required)"`
	Location  string   `json:"location" jsonschema:"Current location (required)"`
	Kind      string   `json:"kind,omitempty" jsonschema:"arrival, departure, or checkpoint (default checkpoint)"`
	Latitude  *float64 `json:"latitude,omitempty" jsonschema:"Current latitude"`
	Longitude *float64 `json:"longitude,omitempty" jsonschema:"Current longitude"`
}

func (h *TravelHandlers) PunchIn(ctx context.Context, request *mcp.CallToolRequest, input PunchInInput) (*mcp.CallToolResult, TravelOutput, error) {
	id, err := parseID("travel", input.TravelID)
	if err != nil {
		return nil, TravelOutput{}, err
	}
	travel, err := h.svc.PunchIn(ctx, id, models.PunchIn{
		Location:  input.Location,
		Kind:      input.Kind,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
	})
	if err != nil {
		return nil, TravelOutput{}, err
	}
	return nil, travelToOutput(travel), nil
}

type StopTravelInput struct {
	TravelID  string   `json:"travel_id" jsonschema:"Active travel ID (required)"`
	Location  string   `json:"location,omitempty" jsonschema:"Final location, recorded as the stop punch"`
	Latitude  *float64 `json:"latitude,omitempty" jsonschema:"Final latitude"`
	Longitude *float64 `json:"longitude,omitempty" jsonschema:"Final longitude"`
}

func (h *TravelHandlers) StopTravel(ctx context.Context, request *mcp.CallToolRequest, input StopTravelInput) (*mcp.CallToolResult, TravelOutput, error) {
	id, err := parseID("travel", input.TravelID)
	if err != nil {
		return nil, TravelOutput{}, err
	}
	travel, err := h.svc.StopTravel(ctx, id, models.PunchIn{
		Location:  input.Location,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
	})
	if err != nil {
		return nil, TravelOutput{}, err
	}
	return nil, travelToOutput(travel), nil
}

type ListTravelsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of travels (default 10)"`
}

type ListTravelsOutput struct {
	Travels []TravelOutput `json:"travels"`
}

func (h *TravelHandlers) ListTravels(_ context.Context, request *mcp.CallToolRequest, input ListTravelsInput) (*mcp.CallToolResult, ListTravelsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	travels, err := h.svc.Travels(limit)
	if err != nil {
		return nil, ListTravelsOutput{}, fmt.Errorf("failed to list travels: %w", err)
	}

	result := make([]TravelOutput, len(travels))
	for i := range travels {
		result[i] = travelToOutput(&travels[i])
	}
	return nil, ListTravelsOutput{Travels: result}, nil
}
