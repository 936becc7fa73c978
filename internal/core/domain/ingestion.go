package domain

import "time"

// RawVoucherEvent is a single observation from an ingestion source (e.g. one
// mailbox message). ExternalID is the source's own identity for the event and
// is the idempotency key for the whole pipeline.
type RawVoucherEvent struct {
	ExternalID      string
	Subject         string
	RawPayload      string
	AttachmentName  string
	AttachmentBytes []byte
	ObservedAt      time.Time
}

// IngestOutcome classifies the result of ingesting one event.
//
// All three outcomes are terminal: the caller must acknowledge the source
// event for any of them and must never re-deliver it. Only an error from
// Ingest itself (storage unavailable) leaves the event unacknowledged.
type IngestOutcome string

const (
	IngestCreated   IngestOutcome = "CREATED"
	IngestDuplicate IngestOutcome = "DUPLICATE"
	IngestRejected  IngestOutcome = "REJECTED"
)

// IngestResult is the per-event outcome plus a human-readable reason for
// rejections and a review flag for duplicates whose payload disagrees with
// the stored row.
type IngestResult struct {
	Outcome     IngestOutcome
	Reason      string
	NeedsReview bool
}

// IngestionRunReport summarises one drain of a feed source.
type IngestionRunReport struct {
	Source     string
	Created    int
	Duplicates int
	Rejected   int
	Unacked    int
	StartedAt  time.Time
	FinishedAt time.Time
}
