// ABOUTME: Required-field validation for field sales forms
// ABOUTME: Produces toast-ready ValidationError values for attendance, visits, and leads
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError carries the toast title and description for a rejected form.
type ValidationError struct {
	Field   string
	Title   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Title, e.Message)
}

func invalid(field, title, message string) *ValidationError {
	return &ValidationError{Field: field, Title: title, Message: message}
}

// ValidateAttendance checks the attendance form and parses the odometer reading.
// Checks run in screen order and the first failure is returned.
func ValidateAttendance(a *Attendance) error {
	a.TransportMode = strings.TrimSpace(a.TransportMode)
	a.VehicleType = strings.TrimSpace(a.VehicleType)
	a.OdometerReading = strings.TrimSpace(a.OdometerReading)

	switch a.TransportMode {
	case "":
		return invalid("transport_mode", "Transport Mode Required", "Please select your mode of transport.")
	case TransportPrivate, TransportPublic:
	default:
		return invalid("transport_mode", "Invalid Transport Mode", fmt.Sprintf("Unknown transport mode %q.", a.TransportMode))
	}

	a.Normalize()

	if a.RequiresVehicleType() {
		switch a.VehicleType {
		case "":
			return invalid("vehicle_type", "Vehicle Type Required", "Please select your vehicle type.")
		case VehicleCar, VehicleBike:
		default:
			return invalid("vehicle_type", "Invalid Vehicle Type", fmt.Sprintf("Unknown vehicle type %q.", a.VehicleType))
		}
	}

	if a.OffersPublicTransport() && a.PublicTransport != "" &&
		a.PublicTransport != PublicBus && a.PublicTransport != PublicTrain {
		return invalid("public_transport", "Invalid Public Transport", fmt.Sprintf("Unknown public transport %q.", a.PublicTransport))
	}

	if a.RequiresOdometer() {
		if a.OdometerReading == "" {
			return invalid("odometer_reading", "Odometer Reading Required", "Please enter the odometer reading.")
		}
		km, err := strconv.ParseFloat(a.OdometerReading, 64)
		if err != nil || km < 0 {
			return invalid("odometer_reading", "Invalid Odometer Reading", "Odometer reading must be a non-negative number.")
		}
		a.OdometerKM = &km
	}

	return nil
}

// IsVisitReason reports whether reason is one of the selectable visit reasons.
func IsVisitReason(reason string) bool {
	for _, o := range VisitReasons {
		if o.Value == reason {
			return true
		}
	}
	return false
}

// IsVisitStatus reports whether status names a visit state.
func IsVisitStatus(status string) bool {
	switch status {
	case VisitPending, VisitCheckedIn, VisitCompleted:
		return true
	}
	return false
}

// VisitCompletion is the data captured on the visit detail form.
type VisitCompletion struct {
	Reason   string
	Notes    string
	Products []ProductQuantity
}

// ValidateCompletion checks that a visit may be completed with the given form data.
// On success the product list is reduced to positive quantities on quote visits
// and cleared otherwise.
func ValidateCompletion(v *Visit, c *VisitCompletion) error {
	switch v.Status {
	case VisitCompleted:
		return invalid("status", "Visit Already Completed", "This visit has already been completed.")
	case VisitPending:
		return invalid("status", "Check-in Required", "Please check in to the visit before completing it.")
	}

	c.Reason = strings.TrimSpace(c.Reason)
	if c.Reason == "" {
		return invalid("reason", "Visit Reason Required", "Please select a visit reason before completing the visit.")
	}
	if !IsVisitReason(c.Reason) {
		return invalid("reason", "Invalid Visit Reason", fmt.Sprintf("Unknown visit reason %q.", c.Reason))
	}

	if c.Reason != ReasonQuote {
		c.Products = nil
		return nil
	}

	kept := make([]ProductQuantity, 0, len(c.Products))
	for _, p := range c.Products {
		if p.Quantity < 0 {
			return invalid("products", "Invalid Quantity", fmt.Sprintf("Quantity for %s cannot be negative.", p.Name))
		}
		if p.Quantity > 0 {
			kept = append(kept, p)
		}
	}
	c.Products = kept
	return nil
}

// ValidateFabricator checks the fabricator assignment form against the allowed names.
func ValidateFabricator(name string, allowed []string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("fabricator", "Fabricator Required", "Please select a fabricator.")
	}
	for _, a := range allowed {
		if a == name {
			return nil
		}
	}
	return invalid("fabricator", "Unknown Fabricator", fmt.Sprintf("%s is not an approved fabricator.", name))
}

// IsPunchKind reports whether kind may be logged during a travel.
// Start and stop punches are recorded by starting and stopping the travel.
func IsPunchKind(kind string) bool {
	switch kind {
	case PunchArrival, PunchDeparture, PunchCheckpoint:
		return true
	}
	return false
}

// ValidateTravelStart checks the start-travel form.
func ValidateTravelStart(title, location string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", "Travel Title Required", "Please enter where you are travelling to.")
	}
	if strings.TrimSpace(location) == "" {
		return invalid("location", "Location Required", "Please enter your starting location.")
	}
	return nil
}

// ValidatePunch checks a punch-in. An empty kind is treated as a checkpoint.
func ValidatePunch(p *PunchIn) error {
	p.Location = strings.TrimSpace(p.Location)
	if p.Location == "" {
		return invalid("location", "Location Required", "Please enter your current location.")
	}
	if p.Kind == "" {
		p.Kind = PunchCheckpoint
	}
	if !IsPunchKind(p.Kind) {
		return invalid("kind", "Invalid Punch Type", fmt.Sprintf("Unknown punch type %q.", p.Kind))
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return invalid("coordinates", "Incomplete Coordinates", "Latitude and longitude must be given together.")
	}
	return nil
}
