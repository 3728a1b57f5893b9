// ABOUTME: Tests for field sales data models
// ABOUTME: Covers lead filtering, address formatting, product sheets, and travel distance
package models

import (
	"math"
	"testing"

	"github.com/google/uuid"
)

func TestFilterLeadsCaseInsensitive(t *testing.T) {
	leads := []Lead{
		{ID: "1", Name: "Ramesh Construction - Doors"},
		{ID: "2", Name: "Lakshmi Builders Windows"},
		{ID: "3", Name: "RAMESH villa"},
	}

	tests := []struct {
		name string
		term string
		want []string
	}{
		{"empty term returns all", "", []string{"1", "2", "3"}},
		{"whitespace term returns all", "   ", []string{"1", "2", "3"}},
		{"lowercase matches mixed case", "ramesh", []string{"1", "3"}},
		{"uppercase matches", "BUILDERS", []string{"2"}},
		{"no match", "vijay", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterLeads(leads, tt.term)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d leads, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("position %d: expected lead %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestAddressString(t *testing.T) {
	a := Address{Street: "Plot 45", City: "Hyderabad", State: "", PostalCode: "500034", Country: "India"}
	if got := a.String(); got != "Plot 45, Hyderabad, 500034, India" {
		t.Errorf("unexpected address %q", got)
	}

	if got := (Address{}).String(); got != "" {
		t.Errorf("expected empty address, got %q", got)
	}
}

func TestAddressShortOmitsPostalCode(t *testing.T) {
	a := Address{Street: "Plot 45", City: "Hyderabad", State: "Telangana", PostalCode: "500034", Country: "India"}
	if got := a.Short(); got != "Plot 45, Hyderabad, Telangana, India" {
		t.Errorf("unexpected short address %q", got)
	}

	if got := (Address{PostalCode: "500034"}).Short(); got != "" {
		t.Errorf("expected empty short address, got %q", got)
	}
}

func TestPrimaryContactAndTotals(t *testing.T) {
	lead := &Lead{}
	if lead.PrimaryContact() != nil {
		t.Error("expected no primary contact")
	}

	lead.Contacts = []Contact{{Name: "Ramesh Kumar", Phone: "+91 9876543210"}, {Name: "Other"}}
	lead.LineItems = []LineItem{{TotalPrice: 1200.5}, {TotalPrice: 800}}

	if c := lead.PrimaryContact(); c == nil || c.Name != "Ramesh Kumar" {
		t.Errorf("unexpected primary contact %+v", c)
	}
	if lead.LineItemsTotal() != 2000.5 {
		t.Errorf("expected total 2000.5, got %v", lead.LineItemsTotal())
	}
}

func TestAdjustQuantityClampsAtZero(t *testing.T) {
	sheet := NewProductSheet(DefaultProducts)
	if len(sheet) != 4 {
		t.Fatalf("expected 4 products, got %d", len(sheet))
	}

	sheet = AdjustQuantity(sheet, 1, 1)
	sheet = AdjustQuantity(sheet, 1, 1)
	sheet = AdjustQuantity(sheet, 0, -1)
	sheet = AdjustQuantity(sheet, 9, 5)

	if sheet[0].Quantity != 0 {
		t.Errorf("expected quantity clamped to 0, got %d", sheet[0].Quantity)
	}
	if sheet[1].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", sheet[1].Quantity)
	}
}

func TestAttendanceRevealRules(t *testing.T) {
	a := &Attendance{}
	if a.RequiresVehicleType() || a.RequiresOdometer() || a.OffersPublicTransport() {
		t.Error("nothing should be revealed before a transport mode is chosen")
	}

	a.TransportMode = TransportPrivate
	if !a.RequiresVehicleType() {
		t.Error("private transport should reveal vehicle type")
	}
	if a.RequiresOdometer() {
		t.Error("odometer should stay hidden until a vehicle is chosen")
	}

	a.VehicleType = VehicleBike
	if !a.RequiresOdometer() {
		t.Error("bike should reveal odometer")
	}

	a.TransportMode = TransportPublic
	if a.RequiresOdometer() {
		t.Error("public transport should hide odometer")
	}
	if !a.OffersPublicTransport() {
		t.Error("public transport should offer bus/train")
	}

	a.Normalize()
	if a.VehicleType != "" {
		t.Errorf("expected vehicle type cleared, got %q", a.VehicleType)
	}
}

func TestTravelDistance(t *testing.T) {
	lat := func(v float64) *float64 { return &v }
	travel := &Travel{
		ID: uuid.New(),
		PunchIns: []PunchIn{
			{Location: "Office", Latitude: lat(17.4065), Longitude: lat(78.4772)},
			{Location: "No GPS"},
			{Location: "Kondapur", Latitude: lat(17.4600), Longitude: lat(78.3570)},
		},
	}

	got := travel.DistanceKM()
	want := HaversineKM(17.4065, 78.4772, 17.4600, 78.3570)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %v km, got %v", want, got)
	}
	if got < 13 || got > 15 {
		t.Errorf("expected roughly 14 km between the points, got %v", got)
	}
}

func TestCompletionPercent(t *testing.T) {
	if CompletionPercent(18, 24) != 75 {
		t.Errorf("expected 75, got %d", CompletionPercent(18, 24))
	}
	if CompletionPercent(3, 0) != 0 {
		t.Error("expected 0 when there are no visits")
	}
}
