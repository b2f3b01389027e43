package handlers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
)

type fakeOutstandingReader struct {
	entries       []models.OutstandingEntry
	err           error
	gotReceivable bool
}

func (f *fakeOutstandingReader) OutstandingByParty(_ context.Context, _ string, receivable bool, _ time.Time) ([]models.OutstandingEntry, error) {
	f.gotReceivable = receivable
	return f.entries, f.err
}

func TestIsPayableQuery(t *testing.T) {
	assert.False(t, IsPayableQuery("outstanding receivables"))
	assert.False(t, IsPayableQuery("kisse lena hai"))
	assert.True(t, IsPayableQuery("accounts payable"))
	assert.True(t, IsPayableQuery("kisko dena hai"))
	assert.True(t, IsPayableQuery("how much do we owe"))
}

func TestOutstandingHandlerFormatsEntries(t *testing.T) {
	reader := &fakeOutstandingReader{entries: []models.OutstandingEntry{
		{PartyName: "Acme Traders", Amount: 50000, BillCount: 3, OverdueDays: 12},
		{PartyName: "Bharat Mills", Amount: 20000, BillCount: 1},
	}}
	h := NewOutstandingHandler(reader, nil, time.UTC, 10, nil, logger.NewNoOpLogger())

	res, err := h.Handle(context.Background(), models.QueryRequest{Text: "outstanding receivables", TenantID: "t1"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, reader.gotReceivable)
	assert.Contains(t, res.HumanText, "Total receivable: ₹70000.00 Dr from 2 parties")
	assert.Contains(t, res.HumanText, "1. Acme Traders: ₹50000.00 Dr (3 bills, 12 days overdue)")
	assert.Contains(t, res.HumanText, "2. Bharat Mills: ₹20000.00 Dr (1 bills)")
}

func TestOutstandingHandlerPayableDirection(t *testing.T) {
	reader := &fakeOutstandingReader{}
	h := NewOutstandingHandler(reader, nil, time.UTC, 10, nil, logger.NewNoOpLogger())

	res, err := h.Handle(context.Background(), models.QueryRequest{Text: "kisko dena hai", TenantID: "t1"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, reader.gotReceivable)
	assert.Contains(t, res.HumanText, "Nothing payable")
}

func TestRemindersHandlerListsOverdueOnly(t *testing.T) {
	reader := &fakeOutstandingReader{entries: []models.OutstandingEntry{
		{PartyName: "Acme Traders", Amount: 50000, BillCount: 3, OverdueDays: 12},
		{PartyName: "Bharat Mills", Amount: 20000, BillCount: 1},
	}}
	h := NewRemindersHandler(reader, nil, nil, time.UTC, nil, logger.NewNoOpLogger())

	res, err := h.Handle(context.Background(), models.QueryRequest{Text: "payment reminders", TenantID: "t1"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Contains(t, res.HumanText, "1 parties have overdue payments")
	assert.Contains(t, res.HumanText, "Acme Traders")
	assert.NotContains(t, res.HumanText, "Bharat Mills")
	assert.Contains(t, res.HumanText, "Say \"send reminders\"")
}

type fakeReminderSender struct {
	sent chan string
}

func (f *fakeReminderSender) SendReminder(_ context.Context, _ string, partyName string, _ string) error {
	f.sent <- partyName
	return nil
}

func TestRemindersHandlerDispatchesOnSend(t *testing.T) {
	reader := &fakeOutstandingReader{entries: []models.OutstandingEntry{
		{PartyName: "Acme Traders", Amount: 50000, BillCount: 3, OverdueDays: 12},
	}}
	sender := &fakeReminderSender{sent: make(chan string, 1)}
	h := NewRemindersHandler(reader, sender, nil, time.UTC, nil, logger.NewNoOpLogger())

	res, err := h.Handle(context.Background(), models.QueryRequest{Text: "send payment reminders", TenantID: "t1"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Contains(t, res.HumanText, "Reminders queued for delivery")

	select {
	case party := <-sender.sent:
		assert.Equal(t, "Acme Traders", party)
	case <-time.After(2 * time.Second):
		t.Fatal("reminder was never dispatched")
	}
}

type flakyReminderSender struct {
	attempts  int32
	failUntil int32
	delivered chan struct{}
}

func (f *flakyReminderSender) SendReminder(context.Context, string, string, string) error {
	if atomic.AddInt32(&f.attempts, 1) <= f.failUntil {
		return errors.New("throttled")
	}
	close(f.delivered)
	return nil
}

func TestRemindersHandlerRetriesDelivery(t *testing.T) {
	reader := &fakeOutstandingReader{entries: []models.OutstandingEntry{
		{PartyName: "Acme Traders", Amount: 50000, BillCount: 3, OverdueDays: 12},
	}}
	sender := &flakyReminderSender{failUntil: 2, delivered: make(chan struct{})}
	h := NewRemindersHandler(reader, sender, nil, time.UTC, nil, logger.NewNoOpLogger())

	_, err := h.Handle(context.Background(), models.QueryRequest{Text: "send payment reminders", TenantID: "t1"})
	require.NoError(t, err)

	select {
	case <-sender.delivered:
		assert.Equal(t, int32(3), atomic.LoadInt32(&sender.attempts))
	case <-time.After(3 * time.Second):
		t.Fatal("delivery never succeeded despite retry budget")
	}
}
