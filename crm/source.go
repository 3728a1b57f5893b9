// ABOUTME: CRM data source abstraction shared by the live client and mock data
// ABOUTME: Defines the Source interface, visit note payload, and sentinel errors
package crm

import (
	"context"
	"errors"
	"time"

	"github.com/harperreed/fieldforce/models"
)

var (
	// ErrNotFound is returned when the CRM has no record for the requested id.
	ErrNotFound = errors.New("crm record not found")
	// ErrInvalidID is returned for ids that are not well-formed CRM record ids.
	ErrInvalidID = errors.New("invalid crm record id")
)

// Source is the boundary every screen reads leads from and writes notes to.
type Source interface {
	ListLeads(ctx context.Context, owner string) ([]models.Lead, error)
	GetLead(ctx context.Context, id string) (*models.Lead, error)
	AssignFabricator(ctx context.Context, opportunityID, fabricator string) error
	PushVisitNotes(ctx context.Context, note VisitNote) error
}

// VisitNote is the completed-visit record pushed to the custom notes endpoint.
type VisitNote struct {
	VisitID     string                   `json:"visitId"`
	RecordID    string                   `json:"recordId,omitempty"`
	ClientName  string                   `json:"clientName"`
	Reason      string                   `json:"visitReason"`
	Notes       string                   `json:"notes"`
	Products    []models.ProductQuantity `json:"products,omitempty"`
	CompletedAt time.Time                `json:"completedAt"`
}
