// ABOUTME: Static in-memory CRM data used when no live instance is configured
// ABOUTME: Serves sample opportunities and records fabricator assignments and visit notes
package crm

import (
	"context"
	"slices"
	"sync"

	"github.com/harperreed/fieldforce/models"
)

// MockSource serves a fixed set of leads. Writes only change its in-memory copy.
type MockSource struct {
	mu        sync.Mutex
	leads     []models.Lead
	notes     []VisitNote
	pushError error
}

// NewMockSource returns a source preloaded with SampleLeads.
func NewMockSource() *MockSource {
	return &MockSource{leads: SampleLeads()}
}

// NewMockSourceWith returns a source serving the given leads.
func NewMockSourceWith(leads []models.Lead) *MockSource {
	return &MockSource{leads: cloneLeads(leads)}
}

func (m *MockSource) ListLeads(ctx context.Context, owner string) ([]models.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Lead
	for _, lead := range m.leads {
		if owner == "" || lead.OwnerName == owner {
			out = append(out, cloneLead(lead))
		}
	}
	return out, nil
}

func (m *MockSource) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, lead := range m.leads {
		if lead.ID == id {
			l := cloneLead(lead)
			return &l, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockSource) AssignFabricator(ctx context.Context, opportunityID, fabricator string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.leads {
		if m.leads[i].ID == opportunityID {
			m.leads[i].FabricatorName = fabricator
			return nil
		}
	}
	return ErrNotFound
}

func (m *MockSource) PushVisitNotes(ctx context.Context, note VisitNote) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pushError != nil {
		return m.pushError
	}
	m.notes = append(m.notes, note)
	return nil
}

// SetPushError makes every following PushVisitNotes fail with err (nil clears it).
func (m *MockSource) SetPushError(err error) {
	m.mu.Lock()
	m.pushError = err
	m.mu.Unlock()
}

// PushedNotes returns the visit notes received so far.
func (m *MockSource) PushedNotes() []VisitNote {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.notes)
}

func cloneLeads(leads []models.Lead) []models.Lead {
	out := make([]models.Lead, len(leads))
	for i, l := range leads {
		out[i] = cloneLead(l)
	}
	return out
}

func cloneLead(l models.Lead) models.Lead {
	l.Contacts = slices.Clone(l.Contacts)
	l.LineItems = slices.Clone(l.LineItems)
	return l
}

// SampleLeads is the demo pipeline used in mock mode.
func SampleLeads() []models.Lead {
	const owner = "Sai Kiran"
	return []models.Lead{
		{
			ID:          "006dM00000A1b2cQAB",
			Name:        "Ramesh Construction - Villa Doors",
			StageName:   "Prospecting",
			LeadSource:  "Web",
			Type:        "New Customer",
			Quantity:    12,
			Length:      "2100",
			Breadth:     "900",
			Depth:       "60",
			OwnerName:   owner,
			AccountName: "Ramesh Construction",
			Address: models.Address{
				Street: "Plot No. 45, Banjara Hills", City: "Hyderabad", State: "Telangana",
				PostalCode: "500034", Country: "India",
			},
			Contacts: []models.Contact{{Name: "Ramesh Kumar", Phone: "+91 9876543210", Email: "ramesh@rameshconstruction.in"}},
			LineItems: []models.LineItem{
				{ProductName: "Premium uPVC Door", ProductCode: "VK-PUD-01", Description: "High-quality door solution", Quantity: 8, UnitPrice: 18500, TotalPrice: 148000},
				{ProductName: "French Door", ProductCode: "VK-FRD-02", Description: "High-quality door solution", Quantity: 4, UnitPrice: 26000, TotalPrice: 104000},
			},
		},
		{
			ID:          "006dM00000A1b2dQAB",
			Name:        "Lakshmi Builders - Apartment Block",
			StageName:   "Qualification",
			LeadSource:  "Referral",
			Type:        "Existing Customer - Upgrade",
			OwnerName:   owner,
			AccountName: "Lakshmi Builders",
			Address:     models.Address{City: "Jubilee Hills", State: "Hyderabad", Country: "India"},
			Contacts:    []models.Contact{{Name: "Lakshmi Reddy", Phone: "+91 9123456780"}},
		},
		{
			ID:          "006dM00000A1b2eQAB",
			Name:        "Srinivas Enterprises Office Fitout",
			StageName:   "Proposal/Price Quote",
			LeadSource:  "Trade Show",
			OwnerName:   owner,
			AccountName: "Srinivas Enterprises",
			Address:     models.Address{Street: "Gachibowli", City: "Hyderabad", Country: "India"},
			LineItems: []models.LineItem{
				{ProductName: "Sliding Door", ProductCode: "VK-SLD-04", Quantity: 6, UnitPrice: 22000, TotalPrice: 132000},
			},
		},
		{
			ID:          "006dM00000A1b2fQAB",
			Name:        "Vijay Constructions Showroom",
			StageName:   "Negotiation/Review",
			Type:        "New Customer",
			OwnerName:   owner,
			AccountName: "Vijay Constructions",
			Address:     models.Address{City: "Kondapur", State: "Telangana"},
			Contacts:    []models.Contact{{Name: "Vijay Rao", Email: "vijay@vijayconstructions.in"}},
		},
		{
			ID:          "006dM00000A1b2gQAB",
			Name:        "Priya Developers Gated Community",
			StageName:   "Closed Won",
			LeadSource:  "Partner",
			Type:        "New Customer",
			OwnerName:   "Arjun Mehta",
			AccountName: "Priya Developers",
			Address:     models.Address{City: "Madhapur", State: "Telangana", Country: "India"},
		},
	}
}
