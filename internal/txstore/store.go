// Package txstore reads the replicated ledger and voucher tables that the
// periodic sync job maintains. It is the data plane for date-filtered
// sales/purchase aggregation and outstanding grouping.
package txstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
)

var (
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
)

// Store wraps the replicated transaction tables.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "txstore"}),
	}
}

// TransactionsBetween returns a tenant's vouchers of one kind inside the
// inclusive calendar-date window.
func (s *Store) TransactionsBetween(ctx context.Context, tenantID string, kind models.TransactionKind, start, end time.Time) ([]models.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT voucher_number, party_name, amount, tax_amount, voucher_date, COALESCE(status, '')
		FROM vouchers
		WHERE tenant_id = $1 AND kind = $2 AND voucher_date >= $3 AND voucher_date < $4
		ORDER BY voucher_date`,
		tenantID, string(kind), start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, s.mapError(ctx, "transactions_between", err)
	}
	defer rows.Close()

	var out []models.TransactionRecord
	for rows.Next() {
		var r models.TransactionRecord
		var status string
		if err := rows.Scan(&r.VoucherNumber, &r.PartyName, &r.Amount, &r.TaxAmount, &r.Date, &status); err != nil {
			return nil, s.mapError(ctx, "transactions_between", err)
		}
		r.Kind = kind
		r.Status = models.OrderStatus(status)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(ctx, "transactions_between", err)
	}
	return out, nil
}

// PurchaseOrders returns a tenant's purchase orders, optionally filtered by
// status.
func (s *Store) PurchaseOrders(ctx context.Context, tenantID string, status models.OrderStatus, start, end time.Time) ([]models.TransactionRecord, error) {
	query := `
		SELECT voucher_number, party_name, amount, tax_amount, voucher_date, COALESCE(status, '')
		FROM vouchers
		WHERE tenant_id = $1 AND kind = $2 AND voucher_date >= $3 AND voucher_date < $4`
	args := []interface{}{tenantID, string(models.KindPurchaseOrder), start, end.AddDate(0, 0, 1)}

	if status != models.OrderStatusAny {
		query += ` AND status = $5`
		args = append(args, string(status))
	}
	query += ` ORDER BY voucher_date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapError(ctx, "purchase_orders", err)
	}
	defer rows.Close()

	var out []models.TransactionRecord
	for rows.Next() {
		var r models.TransactionRecord
		var st string
		if err := rows.Scan(&r.VoucherNumber, &r.PartyName, &r.Amount, &r.TaxAmount, &r.Date, &st); err != nil {
			return nil, s.mapError(ctx, "purchase_orders", err)
		}
		r.Kind = models.KindPurchaseOrder
		r.Status = models.OrderStatus(st)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(ctx, "purchase_orders", err)
	}
	return out, nil
}

// OutstandingByParty groups open bills by counterparty, earliest due date
// first inside each group, sorted by absolute outstanding amount descending.
func (s *Store) OutstandingByParty(ctx context.Context, tenantID string, receivable bool, asOf time.Time) ([]models.OutstandingEntry, error) {
	side := "receivable"
	if !receivable {
		side = "payable"
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT party_name, SUM(amount), COUNT(*), MIN(due_date)
		FROM bills
		WHERE tenant_id = $1 AND side = $2 AND settled = FALSE
		GROUP BY party_name
		ORDER BY ABS(SUM(amount)) DESC`,
		tenantID, side)
	if err != nil {
		return nil, s.mapError(ctx, "outstanding_by_party", err)
	}
	defer rows.Close()

	var out []models.OutstandingEntry
	for rows.Next() {
		var e models.OutstandingEntry
		var due sql.NullTime
		if err := rows.Scan(&e.PartyName, &e.Amount, &e.BillCount, &due); err != nil {
			return nil, s.mapError(ctx, "outstanding_by_party", err)
		}
		if due.Valid {
			d := due.Time
			e.EarliestDue = &d
			if asOf.After(d) {
				e.OverdueDays = int(asOf.Sub(d).Hours() / 24)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(ctx, "outstanding_by_party", err)
	}
	return out, nil
}

// LastSyncedAt reports when the replication job last refreshed this tenant.
func (s *Store) LastSyncedAt(ctx context.Context, tenantID string) (time.Time, error) {
	var t time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT synced_at FROM sync_state WHERE tenant_id = $1`, tenantID).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, s.mapError(ctx, "last_synced_at", err)
	}
	return t, nil
}

func (s *Store) mapError(ctx context.Context, queryType string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %s", ErrQueryTimeout, queryType)
	}
	return fmt.Errorf("%w: %s: %v", ErrQueryExecutionFailed, queryType, err)
}
