package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
	"ledger-assistant/internal/source"
)

func stockRow(name, unit string, qty, value float64) map[string]interface{} {
	return map[string]interface{}{
		"name": name, "parent": "Finished Goods", "unit": unit,
		"closing_qty": qty, "closing_value": value,
	}
}

func TestInventoryHandlerSummarizes(t *testing.T) {
	src := &fakeSource{fn: func(string) (*source.QueryResult, error) {
		return &source.QueryResult{Success: true, Rows: []map[string]interface{}{
			stockRow("Cotton Saree", "pcs", 40, 80000),
			stockRow("Silk Saree", "pcs", 12, 96000),
		}}, nil
	}}
	h := NewInventoryHandler(src, nil, time.UTC, 10, logger.NewNoOpLogger())

	res, err := h.Handle(context.Background(), models.QueryRequest{Text: "stock summary", TenantID: "t1"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Success)
	assert.Contains(t, res.HumanText, "2 stock items, value ₹176000.00 Dr")
	assert.Contains(t, res.HumanText, "- Cotton Saree: 40.00 pcs")
	assert.Contains(t, res.HumanText, "- Silk Saree: 12.00 pcs")
}

func TestInventoryHandlerFiltersByTerm(t *testing.T) {
	src := &fakeSource{fn: func(string) (*source.QueryResult, error) {
		return &source.QueryResult{Success: true, Rows: []map[string]interface{}{
			stockRow("Cotton Saree", "pcs", 40, 80000),
			stockRow("Silk Saree", "pcs", 12, 96000),
		}}, nil
	}}
	h := NewInventoryHandler(src, nil, time.UTC, 10, logger.NewNoOpLogger())

	res, err := h.Handle(context.Background(), models.QueryRequest{Text: "how much silk stock is left", TenantID: "t1"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Contains(t, res.HumanText, "1 stock items")
	assert.Contains(t, res.HumanText, "Silk Saree")
	assert.NotContains(t, res.HumanText, "Cotton Saree")
}

func TestInventoryHandlerCapsListing(t *testing.T) {
	rows := make([]map[string]interface{}, 5)
	for i, name := range []string{"A", "B", "C", "D", "E"} {
		rows[i] = stockRow(name+" Item", "pcs", 1, 100)
	}
	src := &fakeSource{fn: func(string) (*source.QueryResult, error) {
		return &source.QueryResult{Success: true, Rows: rows}, nil
	}}
	h := NewInventoryHandler(src, nil, time.UTC, 3, logger.NewNoOpLogger())

	res, err := h.Handle(context.Background(), models.QueryRequest{Text: "inventory", TenantID: "t1"})
	require.NoError(t, err)
	assert.Contains(t, res.HumanText, "…and 2 more")
}

func TestInventoryHandlerNoMatches(t *testing.T) {
	src := &fakeSource{fn: func(string) (*source.QueryResult, error) {
		return &source.QueryResult{Success: true}, nil
	}}
	h := NewInventoryHandler(src, nil, time.UTC, 10, logger.NewNoOpLogger())

	res, err := h.Handle(context.Background(), models.QueryRequest{Text: "stock", TenantID: "t1"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.HumanText, "No stock items found")
}
