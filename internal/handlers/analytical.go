package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ledger-assistant/internal/aggregate"
	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
	"ledger-assistant/internal/source"
)

// Summarizer is the sales/purchase aggregation the analytical handler
// delegates to.
type Summarizer interface {
	Summarize(ctx context.Context, tenantID, query string, kind models.TransactionKind) (*models.TransactionSummary, error)
}

// AnalyticalHandler answers sales/purchase/order aggregation questions via
// the aggregator, and cash/bank balance questions from the accounting source.
type AnalyticalHandler struct {
	agg    Summarizer
	src    source.AccountingSource
	sync   SyncTimeProvider
	loc    *time.Location
	logger logger.Logger
}

func NewAnalyticalHandler(agg Summarizer, src source.AccountingSource, sync SyncTimeProvider, loc *time.Location, log logger.Logger) *AnalyticalHandler {
	return &AnalyticalHandler{agg: agg, src: src, sync: sync, loc: loc, logger: log}
}

func (h *AnalyticalHandler) Name() string { return "analytical" }

func (h *AnalyticalHandler) Handle(ctx context.Context, req models.QueryRequest) (*Result, error) {
	if kind, ok := aggregate.DetectKind(req.Text); ok {
		summary, err := h.agg.Summarize(ctx, req.TenantID, req.Text, kind)
		if err != nil {
			return nil, err
		}
		return &Result{
			Success:   true,
			Data:      summary,
			HumanText: FormatSummary(summary) + syncStamp(ctx, h.sync, req.TenantID, h.loc),
		}, nil
	}

	q := strings.ToLower(req.Text)
	if containsAny(q, "cash", "bank", "balance", "paisa") {
		return h.cashBankBalance(ctx, req, q)
	}
	return nil, nil
}

func (h *AnalyticalHandler) cashBankBalance(ctx context.Context, req models.QueryRequest, q string) (*Result, error) {
	groups := []string{"Cash-in-Hand", "Bank Accounts"}
	if containsAny(q, "cash") && !containsAny(q, "bank") {
		groups = groups[:1]
	} else if containsAny(q, "bank") && !containsAny(q, "cash") {
		groups = groups[1:]
	}

	var (
		total   float64
		records []models.LedgerRecord
	)
	for _, group := range groups {
		queryText := fmt.Sprintf("SELECT name, parent, closing_balance FROM ledgers WHERE parent = '%s'", group)
		res, err := h.src.ExecuteQuery(ctx, queryText)
		if err != nil {
			return nil, err
		}
		if !res.Success {
			return nil, source.ErrQueryFailed
		}
		for _, row := range res.Rows {
			rec := models.LedgerRecord{
				Name:           rowString(row, "name", "ledger_name"),
				ParentGroup:    group,
				ClosingBalance: rowAmount(row, "closing_balance", "balance"),
			}
			if rec.Name == "" {
				continue
			}
			records = append(records, rec)
			total += rec.ClosingBalance
		}
	}

	if len(records) == 0 {
		return &Result{
			Success: true,
			HumanText: "No cash or bank ledgers found.\nKoi cash ya bank ledger nahi mila." +
				syncStamp(ctx, h.sync, req.TenantID, h.loc),
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total balance: %s\n", FormatMoney(total))
	for _, rec := range records {
		b.WriteString("- " + LedgerLine(rec) + "\n")
	}
	b.WriteString("Aapka total balance upar diya gaya hai.")
	return &Result{
		Success:   true,
		Data:      records,
		HumanText: b.String() + syncStamp(ctx, h.sync, req.TenantID, h.loc),
	}, nil
}

// FormatSummary renders an aggregation answer, singling out the extreme
// record for superlative queries and the no-data message for empty periods.
func FormatSummary(s *models.TransactionSummary) string {
	label := "Sales"
	hindi := "bikri"
	switch s.Kind {
	case models.KindPurchase:
		label, hindi = "Purchases", "kharidari"
	case models.KindPurchaseOrder:
		label, hindi = "Purchase orders", "purchase orders"
	}
	period := fmt.Sprintf("%s to %s", s.StartDate.Format("02 Jan 2006"), s.EndDate.Format("02 Jan 2006"))

	if s.Extreme != nil {
		e := s.Extreme
		return fmt.Sprintf("%s (%s)\nVoucher %s — %s: %s on %s\nSabse extreme %s upar di gayi hai.",
			label, period, e.VoucherNumber, e.PartyName, FormatMoney(e.Amount), e.Date.Format("02 Jan 2006"), hindi)
	}

	if s.TransactionCount == 0 {
		return fmt.Sprintf("%s (%s)\nNo data for this period.\nIs avadhi mein koi %s nahi mili.", label, period, hindi)
	}

	return fmt.Sprintf("%s (%s)\nTotal: %s across %d transactions\nAverage: %s | Tax: %s | Parties: %d\nIs avadhi ki %s upar di gayi hai.",
		label, period, FormatMoney(s.TotalAmount), s.TransactionCount,
		FormatMoney(s.AverageAmount), FormatMoney(s.TaxAmount), s.UniqueParties, hindi)
}
