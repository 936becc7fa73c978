package models

import "time"

// RequesterSession is the persisted per-requester conversation state row.
type RequesterSession struct {
	RequesterID   string    `db:"requester_id"`
	PendingAmount int64     `db:"pending_amount"`
	ExpiresAt     time.Time `db:"expires_at"`
	AuditFields
}
