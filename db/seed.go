// ABOUTME: Demo data for mock mode
// ABOUTME: Inserts a sample visit schedule and travel history around the given day when tables are empty
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/fieldforce/models"
)

// Seed fills empty visit and travel tables with sample records placed
// relative to now, so the dashboard shows current activity.
func Seed(db *sql.DB, now time.Time) error {
	if err := seedVisits(db, now); err != nil {
		return err
	}
	return seedTravels(db, now)
}

func tableEmpty(db *sql.DB, table string) (bool, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n == 0, nil
}

// dayAt returns the wall-clock time hour:minute on the day offset from now.
func dayAt(now time.Time, dayOffset, hour, minute int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+dayOffset, hour, minute, 0, 0, now.Location())
}

func seedVisits(db *sql.DB, now time.Time) error {
	empty, err := tableEmpty(db, "visits")
	if err != nil || !empty {
		return err
	}

	completed := func(scheduled time.Time, reason, notes string) models.Visit {
		checkIn := scheduled.Add(5 * time.Minute)
		done := scheduled.Add(50 * time.Minute)
		return models.Visit{
			Status:      models.VisitCompleted,
			ScheduledAt: scheduled,
			CheckedInAt: &checkIn,
			CompletedAt: &done,
			Reason:      reason,
			Notes:       notes,
		}
	}

	ramesh := completed(dayAt(now, 0, 10, 30), models.ReasonInspection, "Measured all openings on the ground floor.")
	ramesh.ClientName = "Ramesh Construction"
	ramesh.Address = "Plot No. 45, Banjara Hills, Hyderabad"
	ramesh.Type = "Site Inspection"
	ramesh.ContactPerson = "Mr. Ramesh Kumar"
	ramesh.Phone = "+91 9876543210"
	ramesh.Latitude, ramesh.Longitude = 17.4065, 78.4772

	srinivas := completed(dayAt(now, -1, 11, 15), models.ReasonService, "Realigned sliding door track.")
	srinivas.ClientName = "Srinivas Enterprises"
	srinivas.Address = "Gachibowli, Hyderabad"
	srinivas.Type = "Service Call"
	srinivas.ContactPerson = "Mr. Srinivas Rao"
	srinivas.Phone = "+91 9845012345"
	srinivas.Latitude, srinivas.Longitude = 17.4401, 78.3489

	vijay := completed(dayAt(now, -2, 15, 30), models.ReasonDemo, "Demonstrated composite door range.")
	vijay.ClientName = "Vijay Constructions"
	vijay.Address = "Kondapur, Hyderabad"
	vijay.Type = "Product Demo"
	vijay.ContactPerson = "Mr. Vijay Reddy"
	vijay.Phone = "+91 9912345678"
	vijay.Latitude, vijay.Longitude = 17.4699, 78.3578

	visits := []models.Visit{
		ramesh,
		{
			ClientName:    "Lakshmi Builders",
			Address:       "Road No. 36, Jubilee Hills, Hyderabad",
			Type:          "Quote Discussion",
			Status:        models.VisitPending,
			ScheduledAt:   dayAt(now, 0, 14, 0),
			ContactPerson: "Mrs. Lakshmi Devi",
			Phone:         "+91 9123456780",
			Latitude:      17.4325,
			Longitude:     78.4071,
		},
		srinivas,
		vijay,
		{
			ClientName:    "Priya Developers",
			Address:       "Madhapur, Hyderabad",
			Type:          "Site Inspection",
			Status:        models.VisitPending,
			ScheduledAt:   dayAt(now, 1, 9, 0),
			ContactPerson: "Ms. Priya Sharma",
			Phone:         "+91 9000012345",
			Latitude:      17.4483,
			Longitude:     78.3915,
		},
	}

	for i := range visits {
		if err := CreateVisit(db, &visits[i]); err != nil {
			return fmt.Errorf("failed to seed visit %s: %w", visits[i].ClientName, err)
		}
	}
	return nil
}

func seedTravels(db *sql.DB, now time.Time) error {
	empty, err := tableEmpty(db, "travels")
	if err != nil || !empty {
		return err
	}

	coord := func(f float64) *float64 { return &f }
	ended := dayAt(now, 0, 12, 0)

	travels := []models.Travel{
		{
			Title:     "Client Visit - Ramesh Construction",
			Status:    models.TravelCompleted,
			StartedAt: dayAt(now, 0, 9, 30),
			EndedAt:   &ended,
			PunchIns: []models.PunchIn{
				{At: dayAt(now, 0, 9, 30), Location: "Office - Banjara Hills", Latitude: coord(17.4126), Longitude: coord(78.4482), Kind: models.PunchStart},
				{At: dayAt(now, 0, 10, 15), Location: "Client Site - Kondapur", Latitude: coord(17.4699), Longitude: coord(78.3578), Kind: models.PunchArrival},
				{At: dayAt(now, 0, 11, 45), Location: "Client Site - Kondapur", Latitude: coord(17.4699), Longitude: coord(78.3578), Kind: models.PunchDeparture},
			},
		},
		{
			Title:     "Site Inspection - Lakshmi Builders",
			Status:    models.TravelActive,
			StartedAt: dayAt(now, 0, 13, 30),
			PunchIns: []models.PunchIn{
				{At: dayAt(now, 0, 13, 30), Location: "Client Site - Jubilee Hills", Latitude: coord(17.4325), Longitude: coord(78.4071), Kind: models.PunchStart},
			},
		},
	}

	for i := range travels {
		if err := CreateTravel(db, &travels[i]); err != nil {
			return fmt.Errorf("failed to seed travel %q: %w", travels[i].Title, err)
		}
	}
	return nil
}
