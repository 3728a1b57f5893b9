// ABOUTME: Visit and attendance MCP tool handlers
// ABOUTME: Implements list_visits, check_in_visit, complete_visit, and mark_attendance tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/fieldforce/fieldops"
	"github.com/harperreed/fieldforce/models"
)

type VisitHandlers struct {
	svc *fieldops.Service
}

func NewVisitHandlers(svc *fieldops.Service) *VisitHandlers {
	return &VisitHandlers{svc: svc}
}

type VisitOutput struct {
	ID            string                   `json:"id"`
	CRMID         string                   `json:"crm_id,omitempty"`
	ClientName    string                   `json:"client_name"`
	Address       string                   `json:"address"`
	Type          string                   `json:"type"`
	Status        string                   `json:"status"`
	ScheduledAt   string                   `json:"scheduled_at"`
	ContactPerson string                   `json:"contact_person,omitempty"`
	Phone         string                   `json:"phone,omitempty"`
	CheckedInAt   *string                  `json:"checked_in_at,omitempty"`
	CompletedAt   *string                  `json:"completed_at,omitempty"`
	Reason        string                   `json:"reason,omitempty"`
	Notes         string                   `json:"notes,omitempty"`
	Products      []models.ProductQuantity `json:"products,omitempty"`
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func visitToOutput(v *models.Visit) VisitOutput {
	return VisitOutput{
		ID:            v.ID.String(),
		CRMID:         v.CRMID,
		ClientName:    v.ClientName,
		Address:       v.Address,
		Type:          v.Type,
		Status:        v.Status,
		ScheduledAt:   v.ScheduledAt.Format(time.RFC3339),
		ContactPerson: v.ContactPerson,
		Phone:         v.Phone,
		CheckedInAt:   formatOptional(v.CheckedInAt),
		CompletedAt:   formatOptional(v.CompletedAt),
		Reason:        v.Reason,
		Notes:         v.Notes,
		Products:      v.Products,
	}
}

type ListVisitsInput struct {
	Status string `json:"status,omitempty" jsonschema:"Filter by status: pending, checked_in, or completed"`
}

type ListVisitsOutput struct {
	Visits []VisitOutput `json:"visits"`
}

func (h *VisitHandlers) ListVisits(_ context.Context, request *mcp.CallToolRequest, input ListVisitsInput) (*mcp.CallToolResult, ListVisitsOutput, error) {
	if input.Status != "" && !models.IsVisitStatus(input.Status) {
		return nil, ListVisitsOutput{}, fmt.Errorf("invalid status: %s (valid: pending, checked_in, completed)", input.Status)
	}

	visits, err := h.svc.Visits(input.Status)
	if err != nil {
		return nil, ListVisitsOutput{}, fmt.Errorf("failed to list visits: %w", err)
	}

	result := make([]VisitOutput, len(visits))
	for i := range visits {
		result[i] = visitToOutput(&visits[i])
	}
	return nil, ListVisitsOutput{Visits: result}, nil
}

type VisitIDInput struct {
	ID string `json:"id" jsonschema:"Visit ID (required)"`
}

func parseID(kind, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s id is required", kind)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id: %w", kind, err)
	}
	return id, nil
}

func (h *VisitHandlers) CheckInVisit(ctx context.Context, request *mcp.CallToolRequest, input VisitIDInput) (*mcp.CallToolResult, VisitOutput, error) {
	id, err := parseID("visit", input.ID)
	if err != nil {
		return nil, VisitOutput{}, err
	}
	visit, err := h.svc.CheckIn(ctx, id)
	if err != nil {
		return nil, VisitOutput{}, err
	}
	return nil, visitToOutput(visit), nil
}

type CompleteVisitInput struct {
	ID       string                   `json:"id" jsonschema:"Visit ID (required)"`
	Reason   string                   `json:"reason" jsonschema:"Visit reason: inspection, service, quote, demo, or follow-up (required)"`
	Notes    string                   `json:"notes,omitempty" jsonschema:"Free-form visit notes"`
	Products []models.ProductQuantity `json:"products,omitempty" jsonschema:"Products discussed with quantities, kept only for quote visits"`
}

func (h *VisitHandlers) CompleteVisit(ctx context.Context, request *mcp.CallToolRequest, input CompleteVisitInput) (*mcp.CallToolResult, VisitOutput, error) {
	id, err := parseID("visit", input.ID)
	if err != nil {
		return nil, VisitOutput{}, err
	}
	visit, err := h.svc.CompleteVisit(ctx, id, &models.VisitCompletion{
		Reason:   input.Reason,
		Notes:    input.Notes,
		Products: input.Products,
	})
	if err != nil {
		return nil, VisitOutput{}, err
	}
	return nil, visitToOutput(visit), nil
}

type MarkAttendanceInput struct {
	TransportMode   string   `json:"transport_mode" jsonschema:"private or public (required)"`
	VehicleType     string   `json:"vehicle_type,omitempty" jsonschema:"car or bike, required for private transport"`
	PublicTransport string   `json:"public_transport,omitempty" jsonschema:"bus or train, optional for public transport"`
	OdometerReading string   `json:"odometer_reading,omitempty" jsonschema:"Odometer reading in km, required for car or bike"`
	Latitude        *float64 `json:"latitude,omitempty" jsonschema:"Current latitude"`
	Longitude       *float64 `json:"longitude,omitempty" jsonschema:"Current longitude"`
}

type AttendanceOutput struct {
	ID               string   `json:"id"`
	TransportMode    string   `json:"transport_mode"`
	VehicleType      string   `json:"vehicle_type,omitempty"`
	PublicTransport  string   `json:"public_transport,omitempty"`
	OdometerKM       *float64 `json:"odometer_km,omitempty"`
	LocationCaptured bool     `json:"location_captured"`
	CapturedAt       string   `json:"captured_at"`
}

func attendanceToOutput(a *models.Attendance) AttendanceOutput {
	return AttendanceOutput{
		ID:               a.ID.String(),
		TransportMode:    a.TransportMode,
		VehicleType:      a.VehicleType,
		PublicTransport:  a.PublicTransport,
		OdometerKM:       a.OdometerKM,
		LocationCaptured: a.LocationCaptured,
		CapturedAt:       a.CapturedAt.Format(time.RFC3339),
	}
}

func (h *VisitHandlers) MarkAttendance(ctx context.Context, request *mcp.CallToolRequest, input MarkAttendanceInput) (*mcp.CallToolResult, AttendanceOutput, error) {
	a := &models.Attendance{
		TransportMode:   input.TransportMode,
		VehicleType:     input.VehicleType,
		PublicTransport: input.PublicTransport,
		OdometerReading: input.OdometerReading,
	}
	if input.Latitude != nil && input.Longitude != nil {
		a.Latitude, a.Longitude = *input.Latitude, *input.Longitude
		a.LocationCaptured = true
	}

	if err := h.svc.MarkAttendance(ctx, a); err != nil {
		return nil, AttendanceOutput{}, err
	}
	return nil, attendanceToOutput(a), nil
}
