// Package aggregate answers date-filtered and superlative sales/purchase
// questions against the replicated voucher store.
package aggregate

import (
	"context"
	"math"
	"strings"
	"time"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
	"ledger-assistant/internal/parse"
)

// TransactionReader is what the aggregator needs from the voucher store.
type TransactionReader interface {
	TransactionsBetween(ctx context.Context, tenantID string, kind models.TransactionKind, start, end time.Time) ([]models.TransactionRecord, error)
	PurchaseOrders(ctx context.Context, tenantID string, status models.OrderStatus, start, end time.Time) ([]models.TransactionRecord, error)
}

type Aggregator struct {
	reader TransactionReader
	now    func() time.Time
	logger logger.Logger
}

func New(reader TransactionReader, now func() time.Time, log logger.Logger) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		reader: reader,
		now:    now,
		logger: log.WithFields(map[string]interface{}{"component": "aggregator"}),
	}
}

// Vocabularies are mutually exclusive: order terms route to the order-status
// path and are excluded from plain sales/purchase detection.
var (
	orderWords    = []string{"purchase order", "order status", "orders", "order", "po status"}
	salesWords    = []string{"sales", "sale", "sold", "bikri", "becha", "bech", "revenue", "turnover"}
	purchaseWords = []string{"purchase", "purchases", "bought", "kharid", "kharida", "buying"}
)

// DetectKind reports which voucher family a query concerns.
func DetectKind(query string) (models.TransactionKind, bool) {
	q := strings.ToLower(query)

	for _, w := range orderWords {
		if strings.Contains(q, w) {
			return models.KindPurchaseOrder, true
		}
	}
	for _, w := range salesWords {
		if strings.Contains(q, w) {
			return models.KindSales, true
		}
	}
	for _, w := range purchaseWords {
		if strings.Contains(q, w) {
			return models.KindPurchase, true
		}
	}
	return "", false
}

// DetectOrderStatus extracts a purchase-order status filter from keywords.
func DetectOrderStatus(query string) models.OrderStatus {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "pending") || strings.Contains(q, "baki"):
		return models.OrderStatusPending
	case strings.Contains(q, "fulfilled") || strings.Contains(q, "completed") || strings.Contains(q, "pura"):
		return models.OrderStatusFulfilled
	case strings.Contains(q, "cancelled") || strings.Contains(q, "canceled") || strings.Contains(q, "radd"):
		return models.OrderStatusCancelled
	default:
		return models.OrderStatusAny
	}
}

// Summarize resolves the date range, fetches matching vouchers and computes
// either the aggregate figures or, for a superlative query, the single extreme
// record. Zero matching rows is a success with zero figures, never an error.
func (a *Aggregator) Summarize(ctx context.Context, tenantID, query string, kind models.TransactionKind) (*models.TransactionSummary, error) {
	superlative := parse.DetectSuperlative(query)
	dateRange := parse.DateRangeIn(query, a.now())

	if dateRange == nil {
		today := a.now()
		if superlative.IsSuperlative {
			// a superlative with no explicit date scans all time
			dateRange = &parse.DateRange{
				Start: time.Date(1970, 1, 1, 0, 0, 0, 0, today.Location()),
				End:   time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location()),
			}
		} else {
			dateRange = &parse.DateRange{
				Start: time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location()),
				End:   time.Date(today.Year(), 12, 31, 0, 0, 0, 0, today.Location()),
			}
		}
	}

	var (
		records []models.TransactionRecord
		err     error
	)
	if kind == models.KindPurchaseOrder {
		records, err = a.reader.PurchaseOrders(ctx, tenantID, DetectOrderStatus(query), dateRange.Start, dateRange.End)
	} else {
		records, err = a.reader.TransactionsBetween(ctx, tenantID, kind, dateRange.Start, dateRange.End)
	}
	if err != nil {
		return nil, err
	}

	summary := &models.TransactionSummary{
		Kind:      kind,
		StartDate: dateRange.Start,
		EndDate:   dateRange.End,
	}

	if superlative.IsSuperlative {
		if extreme := pickExtreme(records, superlative.Direction); extreme != nil {
			summary.Extreme = extreme
			summary.TotalAmount = extreme.Amount
			summary.TaxAmount = extreme.TaxAmount
			summary.TransactionCount = 1
			summary.AverageAmount = extreme.Amount
			summary.UniqueParties = 1
		}
		return summary, nil
	}

	parties := make(map[string]bool)
	for _, r := range records {
		summary.TotalAmount += r.Amount
		summary.TaxAmount += r.TaxAmount
		parties[r.PartyName] = true
	}
	summary.TransactionCount = len(records)
	summary.UniqueParties = len(parties)
	if summary.TransactionCount > 0 {
		summary.AverageAmount = summary.TotalAmount / float64(summary.TransactionCount)
	}
	return summary, nil
}

// pickExtreme compares by absolute net amount so credit-heavy vouchers rank
// correctly.
func pickExtreme(records []models.TransactionRecord, dir parse.Direction) *models.TransactionRecord {
	if len(records) == 0 {
		return nil
	}

	best := records[0]
	for _, r := range records[1:] {
		switch dir {
		case parse.DirectionLowest:
			if math.Abs(r.Amount) < math.Abs(best.Amount) {
				best = r
			}
		default:
			if math.Abs(r.Amount) > math.Abs(best.Amount) {
				best = r
			}
		}
	}
	return &best
}
