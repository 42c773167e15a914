package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// SeriesDays is how many calendar days the daily series covers, today included.
const SeriesDays = 30

const dateLayout = "2006-01-02"

type Service interface {
	Summary(ctx context.Context) (*Summary, error)
}

type service struct {
	repo     *Repository
	currency string
	now      func() time.Time
}

func NewService(repo *Repository, currency string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	return &service{repo: repo, currency: currency, now: time.Now}, nil
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	out := &Summary{Currency: s.currency}

	counts := []struct {
		dst  *int64
		fn   func(context.Context) (int64, error)
		name string
	}{
		{&out.TotalOrders, s.repo.CountOrders, "count orders"},
		{&out.TotalProducts, s.repo.CountProducts, "count products"},
		{&out.TotalUsers, s.repo.CountUsers, "count users"},
		{&out.RevenueCents, s.repo.Revenue, "sum revenue"},
	}
	for _, c := range counts {
		n, err := c.fn(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, c.name)
		}
		*c.dst = n
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(SeriesDays - 1))
	rows, err := s.repo.OrdersSince(ctx, start)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load daily orders")
	}
	out.OrdersSeries, out.RevenueSeries = dailySeries(start, rows)
	return out, nil
}

// dailySeries buckets rows per UTC day starting at start. Days without orders are
// zero. Cancelled orders count as orders but not as revenue.
func dailySeries(start time.Time, rows []orderPoint) ([]TimeSeriesPoint, []TimeSeriesPoint) {
	orders := make([]TimeSeriesPoint, SeriesDays)
	revenue := make([]TimeSeriesPoint, SeriesDays)
	index := make(map[string]int, SeriesDays)
	for i := 0; i < SeriesDays; i++ {
		day := start.AddDate(0, 0, i).Format(dateLayout)
		orders[i].Date = day
		revenue[i].Date = day
		index[day] = i
	}
	for _, row := range rows {
		i, ok := index[row.CreatedAt.UTC().Format(dateLayout)]
		if !ok {
			continue
		}
		orders[i].Value++
		if row.Status != enums.OrderStatusCancelled {
			revenue[i].Value += row.TotalCents
		}
	}
	return orders, revenue
}
