package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
)

// OutstandingReader lists open bills grouped by counterparty, sorted by
// absolute outstanding amount descending.
type OutstandingReader interface {
	OutstandingByParty(ctx context.Context, tenantID string, receivable bool, asOf time.Time) ([]models.OutstandingEntry, error)
}

// OutstandingHandler answers receivable/payable questions from bill-level
// data: per-party totals, earliest due date and overdue-day counts.
type OutstandingHandler struct {
	reader     OutstandingReader
	sync       SyncTimeProvider
	loc        *time.Location
	maxResults int
	now        func() time.Time
	logger     logger.Logger
}

func NewOutstandingHandler(reader OutstandingReader, sync SyncTimeProvider, loc *time.Location, maxResults int, now func() time.Time, log logger.Logger) *OutstandingHandler {
	if maxResults <= 0 {
		maxResults = 10
	}
	if now == nil {
		now = time.Now
	}
	return &OutstandingHandler{reader: reader, sync: sync, loc: loc, maxResults: maxResults, now: now, logger: log}
}

func (h *OutstandingHandler) Name() string { return "outstanding" }

// IsPayableQuery reports whether the query asks for what we owe rather than
// what is owed to us. Receivable is the default reading of "outstanding".
func IsPayableQuery(query string) bool {
	q := strings.ToLower(query)
	return containsAny(q, "payable", "we owe", "to pay", "dena", "dene", "creditors")
}

// IsOutstandingQuery gates the handler so it never hijacks plain
// balance-by-name questions sharing its chain.
func IsOutstandingQuery(query string) bool {
	q := strings.ToLower(query)
	return containsAny(q, "outstanding", "receivable", "payable", "overdue",
		"udhaar", "lena", "dena", "dene", "bills due", "we owe", "debtors", "creditors")
}

func (h *OutstandingHandler) Handle(ctx context.Context, req models.QueryRequest) (*Result, error) {
	if !IsOutstandingQuery(req.Text) {
		return nil, nil
	}
	receivable := !IsPayableQuery(req.Text)

	entries, err := h.reader.OutstandingByParty(ctx, req.TenantID, receivable, h.now())
	if err != nil {
		return nil, err
	}

	label, hindi := "receivable", "lena"
	if !receivable {
		label, hindi = "payable", "dena"
	}

	if len(entries) == 0 {
		return &Result{
			Success:   true,
			HumanText: fmt.Sprintf("Nothing %s right now.\nAbhi kisi se %s nahi hai.", label, hindi),
		}, nil
	}

	var total float64
	for _, e := range entries {
		total += e.Amount
	}

	shown := entries
	if len(shown) > h.maxResults {
		shown = shown[:h.maxResults]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total %s: %s from %d parties\n", label, FormatMoney(total), len(entries))
	for i, e := range shown {
		fmt.Fprintf(&b, "%d. %s: %s (%d bills", i+1, e.PartyName, FormatMoney(e.Amount), e.BillCount)
		if e.OverdueDays > 0 {
			fmt.Fprintf(&b, ", %d days overdue", e.OverdueDays)
		}
		b.WriteString(")\n")
	}
	fmt.Fprintf(&b, "Kul %s upar diya gaya hai.", hindi)

	return &Result{
		Success:   true,
		Data:      entries,
		HumanText: b.String() + syncStamp(ctx, h.sync, req.TenantID, h.loc),
	}, nil
}
