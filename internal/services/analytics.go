package services

import (
	"context"
	"sort"

	"github.com/hearthfin/hearth-backend/internal/dto"
	"github.com/hearthfin/hearth-backend/internal/errs"
	"github.com/hearthfin/hearth-backend/internal/models"
	"github.com/hearthfin/hearth-backend/pkg/helpers"
	"github.com/hearthfin/hearth-backend/pkg/money"
)

type transactionANStore interface {
	Query(ctx context.Context, uid string, filter dto.TransactionQuery, handle func(*models.Transaction) error) error
}

// analyticsService aggregates ledger entries into income/expense summaries.
// Transfers move money between accounts without changing net worth, so they
// are excluded from every total.
type analyticsService struct {
	txs transactionANStore
}

func NewAnalyticsService(txs transactionANStore) *analyticsService {
	return &analyticsService{txs: txs}
}

func (s *analyticsService) Summary(ctx context.Context, uid string, args dto.SummaryArgs) (*dto.SummaryResult, error) {
	switch args.GroupBy {
	case "", "category", "day":
	default:
		return nil, errs.NewValidationError("groupBy must be category or day")
	}

	filter := dto.TransactionQuery{
		AccountID: args.AccountID,
		DateFrom:  args.DateFrom,
		DateTo:    args.DateTo,
	}

	var income, expense int64
	type bucket struct {
		total int64
		count int
	}
	buckets := make(map[string]*bucket)

	err := s.txs.Query(ctx, uid, filter, func(t *models.Transaction) error {
		switch t.Type {
		case models.TransactionTypeIncome:
			income += t.AmountMinor
		case models.TransactionTypeExpense:
			expense += t.AmountMinor
		default:
			return nil
		}
		if args.GroupBy == "" {
			return nil
		}
		key := t.Date
		if args.GroupBy == "category" {
			key = t.CategoryID
			if key == "" {
				key = "uncategorized"
			}
		}
		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
		}
		b.total += t.SignedEffectMinor()
		b.count++
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &dto.SummaryResult{
		TotalIncome:  money.Format(income),
		TotalExpense: money.Format(expense),
		Net:          money.Format(income - expense),
		GroupBy:      args.GroupBy,
		From:         helpers.Value(args.DateFrom),
		To:           helpers.Value(args.DateTo),
	}
	if args.GroupBy != "" {
		items := make([]dto.SummaryBreakdownItem, 0, len(buckets))
		for key, b := range buckets {
			items = append(items, dto.SummaryBreakdownItem{
				Key:   key,
				Total: money.Format(b.total),
				Count: b.count,
			})
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
		result.Items = items
	}
	return result, nil
}
