// ABOUTME: Opportunity queries and the custom notes write endpoint
// ABOUTME: Maps CRM JSON records onto models.Lead and posts fabricator and visit notes
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/harperreed/fieldforce/models"
)

const notesEndpoint = "/services/apexrest/updateVisitNotes"

// flexString decodes a JSON string, number, or null into a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

type accountRecord struct {
	Name              string `json:"Name"`
	BillingStreet     string `json:"BillingStreet"`
	BillingCity       string `json:"BillingCity"`
	BillingState      string `json:"BillingState"`
	BillingPostalCode string `json:"BillingPostalCode"`
	BillingCountry    string `json:"BillingCountry"`
}

type contactRoleRecord struct {
	Contact *struct {
		Name  string `json:"Name"`
		Phone string `json:"Phone"`
		Email string `json:"Email"`
	} `json:"Contact"`
}

type lineItemRecord struct {
	Quantity       float64 `json:"Quantity"`
	UnitPrice      float64 `json:"UnitPrice"`
	TotalPrice     float64 `json:"TotalPrice"`
	PricebookEntry *struct {
		Product2 *struct {
			Name        string `json:"Name"`
			ProductCode string `json:"ProductCode"`
			Description string `json:"Description"`
		} `json:"Product2"`
	} `json:"PricebookEntry"`
}

type opportunityRecord struct {
	ID             string     `json:"Id"`
	Name           string     `json:"Name"`
	StageName      string     `json:"StageName"`
	LeadSource     string     `json:"LeadSource"`
	Type           string     `json:"Type"`
	FabricatorName string     `json:"Fabricator_Name__c"`
	Quantity       flexString `json:"Quantity__c"`
	Length         flexString `json:"Length__c"`
	Breadth        flexString `json:"Breadth__c"`
	Depth          flexString `json:"Depth__c"`
	Owner          *struct {
		Name string `json:"Name"`
	} `json:"Owner"`
	Account                 *accountRecord `json:"Account"`
	OpportunityContactRoles *struct {
		Records []contactRoleRecord `json:"records"`
	} `json:"OpportunityContactRoles"`
	OpportunityLineItems *struct {
		Records []lineItemRecord `json:"records"`
	} `json:"OpportunityLineItems"`
}

func (r *opportunityRecord) toLead() models.Lead {
	lead := models.Lead{
		ID:             r.ID,
		Name:           r.Name,
		StageName:      r.StageName,
		LeadSource:     r.LeadSource,
		Type:           r.Type,
		FabricatorName: r.FabricatorName,
		Length:         string(r.Length),
		Breadth:        string(r.Breadth),
		Depth:          string(r.Depth),
	}

	if q, err := strconv.ParseFloat(string(r.Quantity), 64); err == nil {
		lead.Quantity = q
	}
	if r.Owner != nil {
		lead.OwnerName = r.Owner.Name
	}
	if r.Account != nil {
		lead.AccountName = r.Account.Name
		lead.Address = models.Address{
			Street:     r.Account.BillingStreet,
			City:       r.Account.BillingCity,
			State:      r.Account.BillingState,
			PostalCode: r.Account.BillingPostalCode,
			Country:    r.Account.BillingCountry,
		}
	}
	if r.OpportunityContactRoles != nil {
		for _, role := range r.OpportunityContactRoles.Records {
			if role.Contact == nil {
				continue
			}
			lead.Contacts = append(lead.Contacts, models.Contact{
				Name:  role.Contact.Name,
				Phone: role.Contact.Phone,
				Email: role.Contact.Email,
			})
		}
	}
	if r.OpportunityLineItems != nil {
		for _, item := range r.OpportunityLineItems.Records {
			li := models.LineItem{
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				TotalPrice: item.TotalPrice,
			}
			if item.PricebookEntry != nil && item.PricebookEntry.Product2 != nil {
				li.ProductName = item.PricebookEntry.Product2.Name
				li.ProductCode = item.PricebookEntry.Product2.ProductCode
				li.Description = item.PricebookEntry.Product2.Description
			}
			lead.LineItems = append(lead.LineItems, li)
		}
	}

	return lead
}

// ListLeads returns every opportunity owned by owner.
func (c *Client) ListLeads(ctx context.Context, owner string) ([]models.Lead, error) {
	records, err := query[opportunityRecord](ctx, c, LeadsByOwnerQuery(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leads: %w", err)
	}

	leads := make([]models.Lead, 0, len(records))
	for i := range records {
		leads = append(leads, records[i].toLead())
	}
	return leads, nil
}

// GetLead returns one opportunity with its contact roles and line items.
func (c *Client) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	soql, err := LeadDetailQuery(id)
	if err != nil {
		return nil, err
	}

	records, err := query[opportunityRecord](ctx, c, soql)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lead detail: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}

	lead := records[0].toLead()
	return &lead, nil
}

type fabricatorRequest struct {
	Type           string `json:"type"`
	OpportunityID  string `json:"opportunityId"`
	FabricatorName string `json:"fabricatorName"`
}

// AssignFabricator records the fabricator on an opportunity through the notes endpoint.
func (c *Client) AssignFabricator(ctx context.Context, opportunityID, fabricator string) error {
	if !ValidID(opportunityID) {
		return fmt.Errorf("%w: %q", ErrInvalidID, opportunityID)
	}

	body := fabricatorRequest{
		Type:           "opportunity",
		OpportunityID:  opportunityID,
		FabricatorName: fabricator,
	}
	if err := c.do(ctx, http.MethodPost, c.baseURL+notesEndpoint, body, nil); err != nil {
		return fmt.Errorf("failed to assign fabricator: %w", err)
	}
	return nil
}

type visitNotesRequest struct {
	Type string `json:"type"`
	VisitNote
}

// PushVisitNotes sends a completed visit's reason, notes, and quoted products.
func (c *Client) PushVisitNotes(ctx context.Context, note VisitNote) error {
	body := visitNotesRequest{Type: "visit", VisitNote: note}
	if err := c.do(ctx, http.MethodPost, c.baseURL+notesEndpoint, body, nil); err != nil {
		return fmt.Errorf("failed to push visit notes: %w", err)
	}
	return nil
}
