package dto

import (
	"time"

	"github.com/vouchly/voucher_ledger/internal/core/domain"
)

// IngestEventRequest is a raw voucher event submitted over the API (a feed
// collaborator that pushes instead of being polled).
type IngestEventRequest struct {
	ExternalID string    `json:"externalID" binding:"required"`
	Subject    string    `json:"subject" binding:"required"`
	RawPayload string    `json:"rawPayload" binding:"required"`
	ObservedAt time.Time `json:"observedAt"`
}

// IngestResultResponse reports the terminal outcome for one event.
type IngestResultResponse struct {
	Outcome     string `json:"outcome"`
	Reason      string `json:"reason,omitempty"`
	NeedsReview bool   `json:"needsReview,omitempty"`
}

// IngestionRunResponse summarises one feed drain or bulk import.
type IngestionRunResponse struct {
	Source     string    `json:"source"`
	Created    int       `json:"created"`
	Duplicates int       `json:"duplicates"`
	Rejected   int       `json:"rejected"`
	Unacked    int       `json:"unacked"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// ToIngestResultResponse converts a domain IngestResult.
func ToIngestResultResponse(r domain.IngestResult) IngestResultResponse {
	return IngestResultResponse{
		Outcome:     string(r.Outcome),
		Reason:      r.Reason,
		NeedsReview: r.NeedsReview,
	}
}

// ToIngestionRunResponse converts a domain IngestionRunReport.
func ToIngestionRunResponse(r domain.IngestionRunReport) IngestionRunResponse {
	return IngestionRunResponse{
		Source:     r.Source,
		Created:    r.Created,
		Duplicates: r.Duplicates,
		Rejected:   r.Rejected,
		Unacked:    r.Unacked,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}
