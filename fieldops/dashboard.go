// ABOUTME: Dashboard statistics for the field agent's home screen
// ABOUTME: Gathers visit, travel, attendance, and open-lead figures concurrently
package fieldops

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/harperreed/fieldforce/db"
	"github.com/harperreed/fieldforce/logging"
	"github.com/harperreed/fieldforce/models"
)

// Dashboard returns this month's visit totals and today's activity.
// A CRM failure leaves OpenLeads at zero rather than failing the page.
func (s *Service) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	now := s.now()
	monthStart, monthEnd := monthBounds(now)
	dayStart, dayEnd := dayBounds(now)

	stats := &models.DashboardStats{
		AgentName:     s.cfg.Agent.Name,
		AgentTitle:    s.cfg.Agent.Title,
		MonthlyTarget: s.cfg.Agent.MonthlyTarget,
	}

	g, gctx := errgroup.WithContext(ctx)

	var month, today db.VisitCounts
	g.Go(func() error {
		var err error
		month, err = db.CountVisits(s.db, monthStart, monthEnd)
		return err
	})
	g.Go(func() error {
		var err error
		today, err = db.CountVisits(s.db, dayStart, dayEnd)
		return err
	})
	g.Go(func() error {
		travels, err := db.ListTravelsStartedBetween(s.db, dayStart, dayEnd)
		if err != nil {
			return err
		}
		stats.TodayTravels = len(travels)
		for i := range travels {
			stats.TodayDistanceKM += travels[i].DistanceKM()
		}
		return nil
	})
	g.Go(func() error {
		_, err := db.LatestAttendanceSince(s.db, dayStart)
		switch {
		case err == nil:
			stats.AttendanceToday = true
		case !errors.Is(err, db.ErrNotFound):
			return err
		}
		return nil
	})

	var openLeads int
	g.Go(func() error {
		leads, err := s.source.ListLeads(gctx, s.cfg.CRM.Owner)
		if err != nil {
			logging.Warn("failed to count open leads", "err", err)
			return nil
		}
		for _, l := range leads {
			if !strings.HasPrefix(l.StageName, "Closed") {
				openLeads++
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.TotalVisits = month.Total
	stats.CompletedVisits = month.Completed
	stats.PendingVisits = month.Pending
	stats.CompletionRate = models.CompletionPercent(month.Completed, month.Total)
	stats.TodayVisits = today.Total
	stats.OpenLeads = openLeads
	return stats, nil
}
