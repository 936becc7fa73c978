package mapping

import (
	"github.com/vouchly/voucher_ledger/internal/core/domain"
	"github.com/vouchly/voucher_ledger/internal/models"
)

// ToModelSession converts a domain RequesterSession to a model RequesterSession.
func ToModelSession(d domain.RequesterSession) models.RequesterSession {
	return models.RequesterSession{
		RequesterID:   d.RequesterID,
		PendingAmount: d.PendingAmount,
		ExpiresAt:     d.ExpiresAt,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			LastUpdatedAt: d.LastUpdatedAt,
		},
	}
}

// ToDomainSession converts a model RequesterSession to a domain RequesterSession.
func ToDomainSession(m models.RequesterSession) domain.RequesterSession {
	return domain.RequesterSession{
		RequesterID:   m.RequesterID,
		PendingAmount: m.PendingAmount,
		ExpiresAt:     m.ExpiresAt,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			LastUpdatedAt: m.LastUpdatedAt,
		},
	}
}
