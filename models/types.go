// ABOUTME: Data models for field sales entities
// ABOUTME: Defines Lead, Visit, Attendance, Travel, PunchIn and dashboard stats
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lead mirrors a CRM Opportunity as shown on the lead screens.
type Lead struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	StageName      string     `json:"stage_name"`
	LeadSource     string     `json:"lead_source,omitempty"`
	Type           string     `json:"type,omitempty"`
	FabricatorName string     `json:"fabricator_name,omitempty"`
	Quantity       float64    `json:"quantity,omitempty"`
	Length         string     `json:"length,omitempty"`
	Breadth        string     `json:"breadth,omitempty"`
	Depth          string     `json:"depth,omitempty"`
	OwnerName      string     `json:"owner_name,omitempty"`
	AccountName    string     `json:"account_name,omitempty"`
	Address        Address    `json:"address"`
	Contacts       []Contact  `json:"contacts,omitempty"`
	LineItems      []LineItem `json:"line_items,omitempty"`
}

type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// String joins the non-empty address parts with ", ".
func (a Address) String() string {
	return joinParts(a.Street, a.City, a.State, a.PostalCode, a.Country)
}

// Short is String without the postal code.
func (a Address) Short() string {
	return joinParts(a.Street, a.City, a.State, a.Country)
}

func joinParts(values ...string) string {
	parts := make([]string, 0, len(values))
	for _, p := range values {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type Contact struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type LineItem struct {
	ProductName string  `json:"product_name"`
	ProductCode string  `json:"product_code,omitempty"`
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

// PrimaryContact returns the first contact role's contact, or nil.
func (l *Lead) PrimaryContact() *Contact {
	if len(l.Contacts) == 0 {
		return nil
	}
	return &l.Contacts[0]
}

// LineItemsTotal sums the total price of every line item.
func (l *Lead) LineItemsTotal() float64 {
	var total float64
	for _, item := range l.LineItems {
		total += item.TotalPrice
	}
	return total
}

// FilterLeads returns the leads whose name contains term, ignoring case.
// An empty term matches everything.
func FilterLeads(leads []Lead, term string) []Lead {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return leads
	}

	filtered := make([]Lead, 0, len(leads))
	for _, lead := range leads {
		if strings.Contains(strings.ToLower(lead.Name), term) {
			filtered = append(filtered, lead)
		}
	}
	return filtered
}

// Visit status constants.
const (
	VisitPending   = "pending"
	VisitCheckedIn = "checked_in"
	VisitCompleted = "completed"
)

// Visit reason constants.
const (
	ReasonInspection = "inspection"
	ReasonService    = "service"
	ReasonQuote      = "quote"
	ReasonDemo       = "demo"
	ReasonFollowUp   = "follow-up"
)

// VisitReasons lists the selectable reasons in display order.
var VisitReasons = []Option{
	{Value: ReasonInspection, Label: "Site Inspection"},
	{Value: ReasonService, Label: "Service Call"},
	{Value: ReasonQuote, Label: "Quote Discussion"},
	{Value: ReasonDemo, Label: "Product Demo"},
	{Value: ReasonFollowUp, Label: "Follow-up"},
}

// Option is a value/label pair for select inputs.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ReasonLabel returns the display label for a visit reason.
func ReasonLabel(reason string) string {
	for _, o := range VisitReasons {
		if o.Value == reason {
			return o.Label
		}
	}
	return reason
}

// DefaultProducts is the product catalogue offered on quote visits.
var DefaultProducts = []string{
	"Premium uPVC Door",
	"Composite Door",
	"French Door",
	"Sliding Door",
}

type Visit struct {
	ID            uuid.UUID         `json:"id"`
	CRMID         string            `json:"crm_id,omitempty"`
	ClientName    string            `json:"client_name"`
	Address       string            `json:"address"`
	Type          string            `json:"type"`
	Status        string            `json:"status"`
	ScheduledAt   time.Time         `json:"scheduled_at"`
	ContactPerson string            `json:"contact_person,omitempty"`
	Phone         string            `json:"phone,omitempty"`
	Latitude      float64           `json:"latitude,omitempty"`
	Longitude     float64           `json:"longitude,omitempty"`
	CheckedInAt   *time.Time        `json:"checked_in_at,omitempty"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	Products      []ProductQuantity `json:"products,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type ProductQuantity struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// NewProductSheet returns one zero-quantity line per product name.
func NewProductSheet(names []string) []ProductQuantity {
	sheet := make([]ProductQuantity, len(names))
	for i, name := range names {
		sheet[i] = ProductQuantity{Name: name}
	}
	return sheet
}

// AdjustQuantity changes the quantity at index by delta, never going below zero.
func AdjustQuantity(products []ProductQuantity, index, delta int) []ProductQuantity {
	if index < 0 || index >= len(products) {
		return products
	}
	out := make([]ProductQuantity, len(products))
	copy(out, products)
	out[index].Quantity = max(0, out[index].Quantity+delta)
	return out
}

// Transport mode constants.
const (
	TransportPrivate = "private"
	TransportPublic  = "public"
)

// Vehicle type constants.
const (
	VehicleCar  = "car"
	VehicleBike = "bike"
)

// Public transport constants.
const (
	PublicBus   = "bus"
	PublicTrain = "train"
)

var TransportModes = []Option{
	{Value: TransportPrivate, Label: "Private"},
	{Value: TransportPublic, Label: "Public"},
}

var VehicleTypes = []Option{
	{Value: VehicleCar, Label: "Car"},
	{Value: VehicleBike, Label: "Bike"},
}

var PublicTransports = []Option{
	{Value: PublicBus, Label: "Bus"},
	{Value: PublicTrain, Label: "Train"},
}

type Attendance struct {
	ID               uuid.UUID `json:"id"`
	TransportMode    string    `json:"transport_mode"`
	VehicleType      string    `json:"vehicle_type,omitempty"`
	PublicTransport  string    `json:"public_transport,omitempty"`
	OdometerReading  string    `json:"odometer_reading,omitempty"`
	OdometerKM       *float64  `json:"odometer_km,omitempty"`
	OdometerPhoto    string    `json:"odometer_photo,omitempty"`
	Latitude         float64   `json:"latitude,omitempty"`
	Longitude        float64   `json:"longitude,omitempty"`
	LocationCaptured bool      `json:"location_captured"`
	CapturedAt       time.Time `json:"captured_at"`
}

// RequiresVehicleType reports whether the vehicle type selector is shown.
func (a *Attendance) RequiresVehicleType() bool {
	return a.TransportMode == TransportPrivate
}

// OffersPublicTransport reports whether the public transport selector is shown.
func (a *Attendance) OffersPublicTransport() bool {
	return a.TransportMode == TransportPublic
}

// RequiresOdometer reports whether the odometer field is shown.
func (a *Attendance) RequiresOdometer() bool {
	return a.RequiresVehicleType() && (a.VehicleType == VehicleCar || a.VehicleType == VehicleBike)
}

// Normalize drops fields that the current selections hide.
func (a *Attendance) Normalize() {
	if !a.RequiresVehicleType() {
		a.VehicleType = ""
	}
	if !a.OffersPublicTransport() {
		a.PublicTransport = ""
	}
	if !a.RequiresOdometer() {
		a.OdometerReading = ""
		a.OdometerKM = nil
		a.OdometerPhoto = ""
	}
}

// Travel status constants.
const (
	TravelActive    = "active"
	TravelCompleted = "completed"
)

// Punch-in kind constants.
const (
	PunchStart      = "start"
	PunchArrival    = "arrival"
	PunchDeparture  = "departure"
	PunchCheckpoint = "checkpoint"
	PunchStop       = "stop"
)

type Travel struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	PunchIns  []PunchIn  `json:"punch_ins"`
}

type PunchIn struct {
	ID        uuid.UUID `json:"id"`
	TravelID  uuid.UUID `json:"travel_id"`
	At        time.Time `json:"at"`
	Location  string    `json:"location"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Kind      string    `json:"kind"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (p *PunchIn) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// DistanceKM sums the great-circle distance between consecutive punch-ins
// that carry coordinates.
func (t *Travel) DistanceKM() float64 {
	var total float64
	var prev *PunchIn
	for i := range t.PunchIns {
		p := &t.PunchIns[i]
		if !p.HasCoordinates() {
			continue
		}
		if prev != nil {
			total += HaversineKM(*prev.Latitude, *prev.Longitude, *p.Latitude, *p.Longitude)
		}
		prev = p
	}
	return total
}

type DashboardStats struct {
	AgentName       string  `json:"agent_name"`
	AgentTitle      string  `json:"agent_title"`
	TotalVisits     int     `json:"total_visits"`
	CompletedVisits int     `json:"completed_visits"`
	PendingVisits   int     `json:"pending_visits"`
	MonthlyTarget   int     `json:"monthly_target"`
	CompletionRate  int     `json:"completion_rate"`
	TodayVisits     int     `json:"today_visits"`
	TodayTravels    int     `json:"today_travels"`
	TodayDistanceKM float64 `json:"today_distance_km"`
	OpenLeads       int     `json:"open_leads"`
	AttendanceToday bool    `json:"attendance_today"`
}

// CompletionPercent returns completed as a whole percentage of total, 0 when total is 0.
func CompletionPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return completed * 100 / total
}
