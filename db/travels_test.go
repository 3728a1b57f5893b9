// ABOUTME: Tests for travel and punch-in database operations
// ABOUTME: Covers the single active travel rule, punch ordering, and stopping travels
package db

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/fieldforce/models"
)

func coord(f float64) *float64 { return &f }

func startTravel(t *testing.T, title string, at time.Time) *models.Travel {
	t.Helper()
	return &models.Travel{
		Title:     title,
		StartedAt: at,
		PunchIns: []models.PunchIn{
			{At: at, Location: "Office - Banjara Hills", Latitude: coord(17.4126), Longitude: coord(78.4482), Kind: models.PunchStart},
		},
	}
}

func TestCreateTravelWithStartPunch(t *testing.T) {
	db := setupTestDB(t)
	at := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)

	travel := startTravel(t, "Client Visit - Ramesh Construction", at)
	require.NoError(t, CreateTravel(db, travel))
	assert.NotEqual(t, uuid.Nil, travel.ID)
	assert.Equal(t, models.TravelActive, travel.Status)

	got, err := GetTravel(db, travel.ID)
	require.NoError(t, err)
	assert.Equal(t, "Client Visit - Ramesh Construction", got.Title)
	require.Len(t, got.PunchIns, 1)
	assert.Equal(t, models.PunchStart, got.PunchIns[0].Kind)
	assert.Equal(t, travel.ID, got.PunchIns[0].TravelID)
	require.True(t, got.PunchIns[0].HasCoordinates())
	assert.Equal(t, 17.4126, *got.PunchIns[0].Latitude)

	active, err := GetActiveTravel(db)
	require.NoError(t, err)
	assert.Equal(t, travel.ID, active.ID)
}

func TestOnlyOneActiveTravel(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()

	require.NoError(t, CreateTravel(db, startTravel(t, "First", now)))
	err := CreateTravel(db, startTravel(t, "Second", now))
	assert.True(t, errors.Is(err, ErrConflict))

	// Completed travels do not count
	ended := now
	require.NoError(t, CreateTravel(db, &models.Travel{Title: "Yesterday", Status: models.TravelCompleted, StartedAt: now.Add(-24 * time.Hour), EndedAt: &ended}))
}

func TestPunchInAndStop(t *testing.T) {
	db := setupTestDB(t)
	start := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)

	travel := startTravel(t, "Client Visit", start)
	require.NoError(t, CreateTravel(db, travel))

	arrival := &models.PunchIn{TravelID: travel.ID, At: start.Add(45 * time.Minute), Location: "Client Site - Kondapur", Latitude: coord(17.4699), Longitude: coord(78.3578), Kind: models.PunchArrival}
	require.NoError(t, AddPunchIn(db, arrival))
	require.NoError(t, AddPunchIn(db, &models.PunchIn{TravelID: travel.ID, At: start.Add(30 * time.Minute), Location: "Traffic", Kind: models.PunchCheckpoint}))

	final := &models.PunchIn{At: start.Add(2 * time.Hour), Location: "Office", Kind: models.PunchStop}
	require.NoError(t, StopTravel(db, travel.ID, start.Add(2*time.Hour), final))

	got, err := GetTravel(db, travel.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TravelCompleted, got.Status)
	require.NotNil(t, got.EndedAt)
	require.Len(t, got.PunchIns, 4)
	kinds := []string{got.PunchIns[0].Kind, got.PunchIns[1].Kind, got.PunchIns[2].Kind, got.PunchIns[3].Kind}
	assert.Equal(t, []string{models.PunchStart, models.PunchCheckpoint, models.PunchArrival, models.PunchStop}, kinds)
	assert.Nil(t, got.PunchIns[1].Latitude)
	assert.InDelta(t, 11.5, got.DistanceKM(), 0.1)

	_, err = GetActiveTravel(db)
	assert.True(t, errors.Is(err, ErrNotFound))

	// Stopped travels accept no more punches and cannot be stopped again
	assert.True(t, errors.Is(AddPunchIn(db, &models.PunchIn{TravelID: travel.ID, Location: "x", Kind: models.PunchCheckpoint}), ErrNotFound))
	assert.True(t, errors.Is(StopTravel(db, travel.ID, time.Now(), nil), ErrNotFound))
}

func TestListTravels(t *testing.T) {
	db := setupTestDB(t)
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	ended := day.Add(-12 * time.Hour)
	require.NoError(t, CreateTravel(db, &models.Travel{Title: "Yesterday", Status: models.TravelCompleted, StartedAt: day.Add(-14 * time.Hour), EndedAt: &ended}))
	require.NoError(t, CreateTravel(db, startTravel(t, "Today", day.Add(9*time.Hour))))

	all, err := ListTravels(db, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Today", all[0].Title)
	assert.Len(t, all[0].PunchIns, 1)
	assert.NotNil(t, all[1].PunchIns)

	today, err := ListTravelsStartedBetween(db, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, "Today", today[0].Title)
}

func TestGetTravelNotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := GetTravel(db, uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
}
