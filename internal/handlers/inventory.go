package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
	"ledger-assistant/internal/source"
)

const stockItemsQuery = "SELECT name, parent, unit, closing_qty, closing_value FROM stock_items"

// InventoryHandler summarizes stock items, optionally narrowed to items whose
// name matches the query.
type InventoryHandler struct {
	src        source.AccountingSource
	sync       SyncTimeProvider
	loc        *time.Location
	maxResults int
	logger     logger.Logger
}

func NewInventoryHandler(src source.AccountingSource, sync SyncTimeProvider, loc *time.Location, maxResults int, log logger.Logger) *InventoryHandler {
	if maxResults <= 0 {
		maxResults = 10
	}
	return &InventoryHandler{src: src, sync: sync, loc: loc, maxResults: maxResults, logger: log}
}

func (h *InventoryHandler) Name() string { return "inventory-summary" }

var inventoryStopWords = map[string]bool{
	"stock": true, "inventory": true, "item": true, "items": true,
	"maal": true, "saman": true, "quantity": true, "qty": true,
	"summary": true, "list": true, "show": true, "me": true, "my": true,
	"the": true, "of": true, "what": true, "is": true, "how": true,
	"much": true, "many": true, "kitna": true, "hai": true, "in": true,
	"left": true, "available": true, "godown": true,
}

func (h *InventoryHandler) Handle(ctx context.Context, req models.QueryRequest) (*Result, error) {
	res, err := h.src.ExecuteQuery(ctx, stockItemsQuery)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, source.ErrQueryFailed
	}

	items := make([]models.StockItem, 0, len(res.Rows))
	for _, row := range res.Rows {
		name := rowString(row, "name", "item_name")
		if name == "" {
			continue
		}
		items = append(items, models.StockItem{
			Name:         name,
			ParentGroup:  rowString(row, "parent", "parent_group"),
			Unit:         rowString(row, "unit"),
			ClosingQty:   rowAmount(row, "closing_qty", "quantity"),
			ClosingValue: rowAmount(row, "closing_value", "value"),
		})
	}

	term := extractInventoryTerm(req.Text)
	if term != "" {
		var filtered []models.StockItem
		for _, it := range items {
			if strings.Contains(strings.ToLower(it.Name), term) {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	if len(items) == 0 {
		return &Result{
			Success: true,
			HumanText: "No stock items found.\nKoi stock item nahi mila." +
				syncStamp(ctx, h.sync, req.TenantID, h.loc),
		}, nil
	}

	var totalValue float64
	for _, it := range items {
		totalValue += it.ClosingValue
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d stock items, value %s\n", len(items), FormatMoney(totalValue))
	shown := items
	if len(shown) > h.maxResults {
		shown = shown[:h.maxResults]
	}
	for _, it := range shown {
		fmt.Fprintf(&b, "- %s: %.2f %s (%s)\n", it.Name, it.ClosingQty, it.Unit, FormatMoney(it.ClosingValue))
	}
	if len(items) > len(shown) {
		fmt.Fprintf(&b, "…and %d more\n", len(items)-len(shown))
	}
	b.WriteString("Aapke stock ka summary upar diya gaya hai.")

	return &Result{
		Success:   true,
		Data:      items,
		HumanText: b.String() + syncStamp(ctx, h.sync, req.TenantID, h.loc),
	}, nil
}

func extractInventoryTerm(query string) string {
	var kept []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, "?.,!\"'")
		if w == "" || inventoryStopWords[w] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
