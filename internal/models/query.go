package models

import "time"

// Category identifies which part of the pipeline produced a response.
type Category string

const (
	CategoryCompany    Category = "company"
	CategoryLedger     Category = "ledger"
	CategoryAnalytical Category = "analytical"
	CategoryInventory  Category = "inventory"
	CategoryReminders  Category = "reminders"
	CategoryCached     Category = "cached"
	CategoryError      Category = "error"
	CategoryGeneral    Category = "general"
)

// QueryRequest is the single inbound shape of the pipeline. Immutable per call.
type QueryRequest struct {
	Text      string `json:"text"`
	TenantID  string `json:"tenantId"`
	ChannelID string `json:"channelId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// QueryResponse is always produced, even on total strategy failure.
type QueryResponse struct {
	Success     bool        `json:"success"`
	Category    Category    `json:"category"`
	Data        interface{} `json:"data,omitempty"`
	HumanText   string      `json:"humanText"`
	ElapsedMs   int64       `json:"elapsedMs"`
	CacheHit    bool        `json:"cacheHit"`
	Suggestions []string    `json:"suggestions,omitempty"`
}

// CacheEntry memoizes a response per (tenant, verbatim query text).
type CacheEntry struct {
	TenantID  string      `json:"tenantId"`
	QueryText string      `json:"queryText"`
	Data      interface{} `json:"data,omitempty"`
	HumanText string      `json:"humanText"`
	CreatedAt time.Time   `json:"createdAt"`
}
