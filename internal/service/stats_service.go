package service

import (
	"context"
	"time"

	"netclub/internal/models"
)

// StatsStore serves aggregation queries over finalized sessions.
type StatsStore interface {
	TotalIncome(ctx context.Context, from, to *time.Time) (float64, error)
	DailyIncome(ctx context.Context, from, to *time.Time) ([]models.DailyIncome, error)
	MonthlyIncome(ctx context.Context, from, to *time.Time) ([]models.MonthlyIncome, error)
	MachineTypeIncome(ctx context.Context, from, to *time.Time) ([]models.MachineTypeIncome, error)
	MachineUsage(ctx context.Context, from, to *time.Time) ([]models.MachineUsage, error)
	MemberUsage(ctx context.Context, from, to *time.Time) ([]models.MemberUsage, error)
}

// StatsService exposes income and usage reporting.
type StatsService struct {
	stats StatsStore
}

// NewStatsService builds the service.
func NewStatsService(stats StatsStore) *StatsService {
	return &StatsService{stats: stats}
}

// TotalIncome sums revenue over an optional date range.
func (s *StatsService) TotalIncome(ctx context.Context, from, to *time.Time) (float64, error) {
	return s.stats.TotalIncome(ctx, from, to)
}

// DailyIncome groups revenue by day.
func (s *StatsService) DailyIncome(ctx context.Context, from, to *time.Time) ([]models.DailyIncome, error) {
	return s.stats.DailyIncome(ctx, from, to)
}

// MonthlyIncome groups revenue by calendar month.
func (s *StatsService) MonthlyIncome(ctx context.Context, from, to *time.Time) ([]models.MonthlyIncome, error) {
	return s.stats.MonthlyIncome(ctx, from, to)
}

// MachineTypeIncome groups revenue by machine type.
func (s *StatsService) MachineTypeIncome(ctx context.Context, from, to *time.Time) ([]models.MachineTypeIncome, error) {
	return s.stats.MachineTypeIncome(ctx, from, to)
}

// MachineUsage aggregates usage per machine.
func (s *StatsService) MachineUsage(ctx context.Context, from, to *time.Time) ([]models.MachineUsage, error) {
	return s.stats.MachineUsage(ctx, from, to)
}

// MemberUsage aggregates usage per member.
func (s *StatsService) MemberUsage(ctx context.Context, from, to *time.Time) ([]models.MemberUsage, error) {
	return s.stats.MemberUsage(ctx, from, to)
}
