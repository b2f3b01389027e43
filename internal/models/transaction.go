package models

import "time"

// TransactionKind distinguishes the mutually exclusive voucher families the
// aggregator handles.
type TransactionKind string

const (
	KindSales         TransactionKind = "sales"
	KindPurchase      TransactionKind = "purchase"
	KindPurchaseOrder TransactionKind = "purchase_order"
)

// OrderStatus filters purchase-order queries.
type OrderStatus string

const (
	OrderStatusAny       OrderStatus = ""
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// TransactionRecord is one replicated voucher row.
type TransactionRecord struct {
	VoucherNumber string          `json:"voucherNumber"`
	Kind          TransactionKind `json:"kind"`
	PartyName     string          `json:"partyName"`
	Amount        float64         `json:"amount"`
	TaxAmount     float64         `json:"taxAmount"`
	Date          time.Time       `json:"date"`
	Status        OrderStatus     `json:"status,omitempty"`
}

// TransactionSummary is the aggregate answer for a sales/purchase query.
type TransactionSummary struct {
	Kind             TransactionKind    `json:"kind"`
	TotalAmount      float64            `json:"totalAmount"`
	TransactionCount int                `json:"transactionCount"`
	AverageAmount    float64            `json:"averageAmount"`
	TaxAmount        float64            `json:"taxAmount"`
	UniqueParties    int                `json:"uniqueParties"`
	StartDate        time.Time          `json:"startDate"`
	EndDate          time.Time          `json:"endDate"`
	Extreme          *TransactionRecord `json:"extreme,omitempty"`
}
