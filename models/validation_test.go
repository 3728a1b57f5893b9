// ABOUTME: Tests for form validation rules
// ABOUTME: Verifies required-field ordering and toast titles for each form
package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validationTitle(t *testing.T, err error) string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Title
}

func TestValidateAttendance(t *testing.T) {
	tests := []struct {
		name  string
		input Attendance
		title string
	}{
		{"missing transport", Attendance{}, "Transport Mode Required"},
		{"unknown transport", Attendance{TransportMode: "boat"}, "Invalid Transport Mode"},
		{"private without vehicle", Attendance{TransportMode: TransportPrivate}, "Vehicle Type Required"},
		{"car without odometer", Attendance{TransportMode: TransportPrivate, VehicleType: VehicleCar}, "Odometer Reading Required"},
		{"bike with bad odometer", Attendance{TransportMode: TransportPrivate, VehicleType: VehicleBike, OdometerReading: "abc"}, "Invalid Odometer Reading"},
		{"negative odometer", Attendance{TransportMode: TransportPrivate, VehicleType: VehicleCar, OdometerReading: "-4"}, "Invalid Odometer Reading"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.input
			err := ValidateAttendance(&a)
			require.Error(t, err)
			assert.Equal(t, tt.title, validationTitle(t, err))
		})
	}
}

func TestValidateAttendanceAccepts(t *testing.T) {
	a := &Attendance{TransportMode: TransportPrivate, VehicleType: VehicleCar, OdometerReading: " 12345.6 "}
	require.NoError(t, ValidateAttendance(a))
	require.NotNil(t, a.OdometerKM)
	assert.InDelta(t, 12345.6, *a.OdometerKM, 1e-9)

	public := &Attendance{TransportMode: TransportPublic, VehicleType: VehicleCar, OdometerReading: "5"}
	require.NoError(t, ValidateAttendance(public), "public transport does not need a vehicle or bus/train choice")
	assert.Empty(t, public.VehicleType)
	assert.Nil(t, public.OdometerKM)
}

func TestValidateCompletion(t *testing.T) {
	pending := &Visit{Status: VisitPending}
	err := ValidateCompletion(pending, &VisitCompletion{Reason: ReasonDemo})
	assert.Equal(t, "Check-in Required", validationTitle(t, err))

	done := &Visit{Status: VisitCompleted}
	err = ValidateCompletion(done, &VisitCompletion{Reason: ReasonDemo})
	assert.Equal(t, "Visit Already Completed", validationTitle(t, err))

	checkedIn := &Visit{Status: VisitCheckedIn}
	err = ValidateCompletion(checkedIn, &VisitCompletion{})
	assert.Equal(t, "Visit Reason Required", validationTitle(t, err))

	err = ValidateCompletion(checkedIn, &VisitCompletion{Reason: "party"})
	assert.Equal(t, "Invalid Visit Reason", validationTitle(t, err))
}

func TestValidateCompletionProducts(t *testing.T) {
	visit := &Visit{Status: VisitCheckedIn}
	products := []ProductQuantity{{Name: "French Door", Quantity: 2}, {Name: "Sliding Door"}}

	quote := &VisitCompletion{Reason: ReasonQuote, Products: products}
	require.NoError(t, ValidateCompletion(visit, quote))
	assert.Equal(t, []ProductQuantity{{Name: "French Door", Quantity: 2}}, quote.Products)

	demo := &VisitCompletion{Reason: ReasonDemo, Products: products}
	require.NoError(t, ValidateCompletion(visit, demo))
	assert.Nil(t, demo.Products, "products are only recorded on quote visits")
}

func TestValidateFabricator(t *testing.T) {
	allowed := []string{"Rajesh Kumar", "Rohit Isor"}

	assert.Equal(t, "Fabricator Required", validationTitle(t, ValidateFabricator("  ", allowed)))
	assert.Equal(t, "Unknown Fabricator", validationTitle(t, ValidateFabricator("Someone Else", allowed)))
	assert.NoError(t, ValidateFabricator("Rohit Isor", allowed))
}

func TestValidateTravelStart(t *testing.T) {
	assert.Equal(t, "Travel Title Required", validationTitle(t, ValidateTravelStart("", "Office")))
	assert.Equal(t, "Location Required", validationTitle(t, ValidateTravelStart("Client Visit", " ")))
	assert.NoError(t, ValidateTravelStart("Client Visit", "Office - Banjara Hills"))
}

func TestValidatePunch(t *testing.T) {
	lat := 17.4

	p := &PunchIn{Location: "  Kondapur "}
	require.NoError(t, ValidatePunch(p))
	assert.Equal(t, PunchCheckpoint, p.Kind)
	assert.Equal(t, "Kondapur", p.Location)

	assert.Equal(t, "Location Required", validationTitle(t, ValidatePunch(&PunchIn{})))
	assert.Equal(t, "Invalid Punch Type", validationTitle(t, ValidatePunch(&PunchIn{Location: "x", Kind: PunchStart})))
	assert.Equal(t, "Incomplete Coordinates", validationTitle(t, ValidatePunch(&PunchIn{Location: "x", Latitude: &lat})))
}

func TestIsVisitStatus(t *testing.T) {
	assert.True(t, IsVisitStatus(VisitPending))
	assert.True(t, IsVisitStatus(VisitCheckedIn))
	assert.True(t, IsVisitStatus(VisitCompleted))
	assert.False(t, IsVisitStatus(""))
	assert.False(t, IsVisitStatus("cancelled"))
}
