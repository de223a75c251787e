package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"toolrental-backend/internal/clock"
	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/repository"
	"toolrental-backend/internal/utils"
)

type kardexService struct {
	store repository.Store
	clock clock.Clock
}

func NewKardexService(store repository.Store, clk clock.Clock) KardexService {
	return &kardexService{store: store, clock: clk}
}

func (s *kardexService) Record(ctx context.Context, entry *domain.KardexEntry) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if entry.ToolID != 0 {
			if _, err := repos.Tools.GetByID(ctx, entry.ToolID); err != nil {
				return err
			}
		}
		return recordKardex(ctx, repos, entry)
	})
}

func (s *kardexService) Get(ctx context.Context, id int32) (*domain.KardexEntry, error) {
	return s.store.Repos().Kardex.GetByID(ctx, id)
}

// dayRange turns inclusive calendar days into the half-open range the repositories expect.
func dayRange(from, to *time.Time) (*time.Time, *time.Time) {
	var start, until *time.Time
	if from != nil {
		start = ptr(utils.TruncateToDay(*from))
	}
	if to != nil {
		until = ptr(utils.TruncateToDay(*to).AddDate(0, 0, 1))
	}
	return start, until
}

func (s *kardexService) Filter(ctx context.Context, f domain.KardexFilter) ([]domain.KardexEntry, error) {
	q := repository.KardexQuery{
		ToolID:     f.ToolID,
		ClientID:   f.ClientID,
		EmployeeID: f.EmployeeID,
	}
	if t := strings.ToUpper(strings.TrimSpace(f.Type)); t != "" {
		q.Type = ptr(domain.MovementType(t))
	}
	q.From, q.Until = dayRange(f.From, f.To)
	return s.store.Repos().Kardex.Find(ctx, q)
}

func (s *kardexService) Between(ctx context.Context, start, end time.Time) ([]domain.KardexEntry, error) {
	if start.IsZero() {
		return nil, domain.Validationf("start date is required")
	}
	if end.IsZero() {
		return nil, domain.Validationf("end date is required")
	}
	q := repository.KardexQuery{}
	q.From, q.Until = dayRange(&start, &end)
	return s.store.Repos().Kardex.Find(ctx, q)
}

func (s *kardexService) Ranking(ctx context.Context, start, end *time.Time) ([]domain.RankingEntry, error) {
	var from, last time.Time
	if start == nil || end == nil {
		from, last = utils.MonthWindow(s.clock.Today())
	} else {
		from, last = *start, *end
	}
	if utils.DaysBetween(from, last) < 0 {
		return nil, domain.ErrInvalidDateRange
	}
	lo, hi := dayRange(&from, &last)

	repos := s.store.Repos()
	totals, err := repos.Kardex.SumLoansByTool(ctx, *lo, *hi, domain.RankingSize)
	if err != nil {
		return nil, err
	}
	tools, err := repos.Tools.List(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[int32]domain.Tool, len(tools))
	for _, t := range tools {
		byID[t.ID] = t
	}

	ranking := make([]domain.RankingEntry, 0, domain.RankingSize)
	for _, total := range totals {
		tool, ok := byID[total.ToolID]
		if !ok {
			continue
		}
		ranking = append(ranking, domain.RankingEntry{Tool: tool, TotalLoaned: total.Total})
	}

	// Pad with idle tools so the ranking lists every tool up to its size.
	for _, tool := range tools {
		if len(ranking) >= domain.RankingSize {
			break
		}
		if slices.ContainsFunc(ranking, func(e domain.RankingEntry) bool { return e.Tool.ID == tool.ID }) {
			continue
		}
		ranking = append(ranking, domain.RankingEntry{Tool: tool})
	}
	return ranking, nil
}
