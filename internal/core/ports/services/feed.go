package services

import (
	"context"

	"github.com/vouchly/voucher_ledger/internal/core/domain"
)

// VoucherFeed is an ingestion source: a sequence of raw voucher events with
// explicit acknowledgement.
//
// Acknowledgement contract: the ingestion reconciler acks an event after
// Ingest returns any terminal outcome (Created, Duplicate or Rejected).
// Events are left unacked only when Ingest itself fails, so the source
// re-delivers them on a later run.
type VoucherFeed interface {
	// Source names the feed for logging and single-flight keying.
	Source() string

	// Fetch returns the currently unacknowledged events.
	Fetch(ctx context.Context) ([]domain.RawVoucherEvent, error)

	// Ack marks one event consumed so it is never delivered again.
	Ack(ctx context.Context, externalID string) error
}
