package domain

import "time"

// RequesterSession is the persisted replacement for the conversation layer's
// in-memory "pending amount" state: the amount a requester asked for while
// they are still choosing a store. Keyed by requester id, expires.
type RequesterSession struct {
	RequesterID   string    `json:"requesterID"`
	PendingAmount int64     `json:"pendingAmount"`
	ExpiresAt     time.Time `json:"expiresAt"`
	AuditFields
}

// Expired reports whether the session is past its expiry at the given time.
func (s RequesterSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
