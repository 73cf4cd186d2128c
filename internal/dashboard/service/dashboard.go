package service

import (
	"context"
	"sync"
	"time"

	"villagestay/pkg/config"
	apperrors "villagestay/pkg/errors"
	"villagestay/pkg/logger"
	"villagestay/pkg/model"
)

// BookingStats is satisfied by the bookings repository.
type BookingStats interface {
	Count(ctx context.Context, filter model.BookingFilter) (int64, error)
	SumTotalPrice(ctx context.Context, filter model.BookingFilter) (float64, error)
}

type DashboardService interface {
	Summary(ctx context.Context) (*model.BookingSummary, error)
}

type dashboardService struct {
	stats BookingStats
	cfg   *config.Config
	now   func() time.Time
}

func NewDashboardService(stats BookingStats, cfg *config.Config) DashboardService {
	return &dashboardService{
		stats: stats,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Summary recomputes the dashboard figures on every call. Upcoming counts
// every booking with a future checkIn whatever its status.
func (s *dashboardService) Summary(ctx context.Context) (*model.BookingSummary, error) {
	now := s.now()
	summary := &model.BookingSummary{}

	var errs [4]error
	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		summary.TotalBookings, errs[0] = s.stats.Count(ctx, model.BookingFilter{})
	}()

	go func() {
		defer wg.Done()
		summary.Upcoming, errs[1] = s.stats.Count(ctx, model.BookingFilter{CheckInFrom: &now})
	}()

	go func() {
		defer wg.Done()
		summary.Completed, errs[2] = s.stats.Count(ctx, model.BookingFilter{Status: model.BookingCompleted})
	}()

	go func() {
		defer wg.Done()
		summary.TotalSpent, errs[3] = s.stats.SumTotalPrice(ctx, model.BookingFilter{})
	}()

	wg.Wait()
	for _, err := range errs {
		if err != nil {
			logger.FromContext(ctx, s.cfg.Log).Error("Failed to compute booking summary", "error", err)
			return nil, apperrors.Internal("Failed to compute booking summary", err)
		}
	}
	return summary, nil
}
