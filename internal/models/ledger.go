package models

import "time"

// LedgerRecord is a named account with a parent group and a signed closing
// balance. Debit-normal balances are positive, credit-normal negative.
type LedgerRecord struct {
	Name           string  `json:"name"`
	ParentGroup    string  `json:"parentGroup"`
	ClosingBalance float64 `json:"closingBalance"`
}

// CompanyProfile is the single company-information record per tenant.
type CompanyProfile struct {
	Name         string `json:"name"`
	MailingName  string `json:"mailingName,omitempty"`
	Address      string `json:"address,omitempty"`
	State        string `json:"state,omitempty"`
	Pincode      string `json:"pincode,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	GSTIN        string `json:"gstin,omitempty"`
	BooksFrom    string `json:"booksFrom,omitempty"`
	LastSyncedAt time.Time `json:"lastSyncedAt,omitempty"`
}

// StockItem is one inventory line with quantity and value.
type StockItem struct {
	Name         string  `json:"name"`
	ParentGroup  string  `json:"parentGroup,omitempty"`
	Unit         string  `json:"unit,omitempty"`
	ClosingQty   float64 `json:"closingQty"`
	ClosingValue float64 `json:"closingValue"`
}

// OutstandingEntry is one counterparty's receivable or payable position.
type OutstandingEntry struct {
	PartyName   string     `json:"partyName"`
	Amount      float64    `json:"amount"`
	BillCount   int        `json:"billCount"`
	EarliestDue *time.Time `json:"earliestDue,omitempty"`
	OverdueDays int        `json:"overdueDays"`
}
