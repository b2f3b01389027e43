package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	cerrors "ledger-assistant/internal/common/errors"
	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
)

// ReminderSender delivers a payment reminder out of band. Nil means delivery
// is not configured and reminders are listed only.
type ReminderSender interface {
	SendReminder(ctx context.Context, tenantID, partyName, message string) error
}

// RemindersHandler lists overdue receivables and, when asked to and a sender
// is configured, dispatches reminders fire-and-forget.
type RemindersHandler struct {
	reader OutstandingReader
	sender ReminderSender
	sync   SyncTimeProvider
	loc    *time.Location
	now    func() time.Time
	logger logger.Logger
}

func NewRemindersHandler(reader OutstandingReader, sender ReminderSender, sync SyncTimeProvider, loc *time.Location, now func() time.Time, log logger.Logger) *RemindersHandler {
	if now == nil {
		now = time.Now
	}
	return &RemindersHandler{reader: reader, sender: sender, sync: sync, loc: loc, now: now, logger: log}
}

func (h *RemindersHandler) Name() string { return "payment-reminders" }

func (h *RemindersHandler) Handle(ctx context.Context, req models.QueryRequest) (*Result, error) {
	entries, err := h.reader.OutstandingByParty(ctx, req.TenantID, true, h.now())
	if err != nil {
		return nil, err
	}

	var overdue []models.OutstandingEntry
	for _, e := range entries {
		if e.OverdueDays > 0 {
			overdue = append(overdue, e)
		}
	}

	if len(overdue) == 0 {
		return &Result{
			Success:   true,
			HumanText: "No overdue payments to remind about.\nKoi baki payment nahi hai.",
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d parties have overdue payments:\n", len(overdue))
	for i, e := range overdue {
		fmt.Fprintf(&b, "%d. %s: %s, %d days overdue\n", i+1, e.PartyName, FormatMoney(e.Amount), e.OverdueDays)
	}

	if h.sender != nil && containsAny(strings.ToLower(req.Text), "send", "bhejo", "bhej do", "remind them") {
		h.dispatch(req.TenantID, overdue)
		b.WriteString("Reminders queued for delivery.\nReminders bhej diye gaye hain.")
	} else {
		b.WriteString("Say \"send reminders\" to notify them.\n\"Send reminders\" bol kar inhe yaad dilayein.")
	}

	return &Result{
		Success:   true,
		Data:      overdue,
		HumanText: b.String() + syncStamp(ctx, h.sync, req.TenantID, h.loc),
	}, nil
}

// dispatch sends in the background so slow providers never block the reply.
// Each delivery gets the notification retry budget before being given up on.
func (h *RemindersHandler) dispatch(tenantID string, overdue []models.OutstandingEntry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, e := range overdue {
			msg := fmt.Sprintf("Payment reminder: %s is outstanding for %d days. Kripya bhugtan karein.",
				FormatMoney(e.Amount), e.OverdueDays)
			if err := h.deliver(ctx, tenantID, e.PartyName, msg); err != nil {
				stdErr := cerrors.NewNotificationFailedError("reminder", err)
				h.logger.Warn("reminder delivery failed", map[string]interface{}{
					"party": e.PartyName,
					"code":  string(stdErr.Code),
					"error": stdErr.Details,
				})
			}
		}
	}()
}

func (h *RemindersHandler) deliver(ctx context.Context, tenantID, partyName, msg string) error {
	var err error
	for attempt := 0; attempt <= cerrors.GetRetryCount(cerrors.ErrCodeNotificationFailed); attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(100*(1<<(attempt-1))) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = h.sender.SendReminder(ctx, tenantID, partyName, msg); err == nil {
			return nil
		}
	}
	return err
}
