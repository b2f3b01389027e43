package models

import "time"

// ConversationContext is the short-lived per (channelId, tenantId) session
// state. A context past its ExpiresAt is indistinguishable from absent.
type ConversationContext struct {
	SessionID        string        `json:"sessionId"`
	ChannelID        string        `json:"channelId"`
	TenantID         string        `json:"tenantId"`
	LastQueryText    string        `json:"lastQueryText"`
	LastResponseText string        `json:"lastResponseText"`
	LastCategory     Category      `json:"lastCategory"`
	LastResultSet    []interface{} `json:"lastResultSet,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	ExpiresAt        time.Time     `json:"expiresAt"`
}
