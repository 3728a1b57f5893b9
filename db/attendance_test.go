// ABOUTME: Tests for attendance database operations
// ABOUTME: Verifies optional odometer fields and latest-record lookups
package db

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/fieldforce/models"
)

func TestCreateAndListAttendance(t *testing.T) {
	db := setupTestDB(t)
	km := 12450.5
	morning := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)

	car := &models.Attendance{
		TransportMode:    models.TransportPrivate,
		VehicleType:      models.VehicleCar,
		OdometerReading:  "12450.5",
		OdometerKM:       &km,
		LocationCaptured: true,
		Latitude:         17.41,
		Longitude:        78.44,
		CapturedAt:       morning,
	}
	bus := &models.Attendance{
		TransportMode:   models.TransportPublic,
		PublicTransport: models.PublicBus,
		CapturedAt:      morning.Add(24 * time.Hour),
	}
	require.NoError(t, CreateAttendance(db, car))
	require.NoError(t, CreateAttendance(db, bus))

	records, err := ListAttendance(db, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, models.TransportPublic, records[0].TransportMode)
	assert.Equal(t, models.PublicBus, records[0].PublicTransport)
	assert.Nil(t, records[0].OdometerKM)
	assert.False(t, records[0].LocationCaptured)

	assert.Equal(t, models.VehicleCar, records[1].VehicleType)
	require.NotNil(t, records[1].OdometerKM)
	assert.Equal(t, km, *records[1].OdometerKM)
	assert.True(t, records[1].LocationCaptured)
}

func TestLatestAttendanceSince(t *testing.T) {
	db := setupTestDB(t)
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	_, err := LatestAttendanceSince(db, day)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, CreateAttendance(db, &models.Attendance{TransportMode: models.TransportPublic, CapturedAt: day.Add(-time.Hour)}))
	_, err = LatestAttendanceSince(db, day)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, CreateAttendance(db, &models.Attendance{TransportMode: models.TransportPrivate, VehicleType: models.VehicleBike, CapturedAt: day.Add(9 * time.Hour)}))
	got, err := LatestAttendanceSince(db, day)
	require.NoError(t, err)
	assert.Equal(t, models.VehicleBike, got.VehicleType)
}

func TestCreateAttendanceRejectsUnknownMode(t *testing.T) {
	db := setupTestDB(t)
	err := CreateAttendance(db, &models.Attendance{TransportMode: "teleport"})
	assert.Error(t, err)
}
