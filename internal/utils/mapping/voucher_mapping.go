package mapping

import (
	"github.com/vouchly/voucher_ledger/internal/core/domain"
	"github.com/vouchly/voucher_ledger/internal/models"
)

// ToModelVoucher converts a domain Voucher to a model Voucher.
func ToModelVoucher(d domain.Voucher) models.Voucher {
	m := models.Voucher{
		VoucherID:  d.VoucherID,
		ExternalID: d.ExternalID,
		Store:      d.Store,
		FaceValue:  d.FaceValue,
		Code:       d.Code,
		Status:     models.VoucherStatus(d.Status),
		ClaimedAt:  d.ClaimedAt,
		AssignedAt: d.AssignedAt,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			LastUpdatedAt: d.LastUpdatedAt,
		},
	}
	if d.ImageRef != "" {
		m.ImageRef = &d.ImageRef
	}
	if d.OwnerID != "" {
		m.OwnerID = &d.OwnerID
	}
	return m
}

// ToDomainVoucher converts a model Voucher to a domain Voucher.
func ToDomainVoucher(m models.Voucher) domain.Voucher {
	d := domain.Voucher{
		VoucherID:  m.VoucherID,
		ExternalID: m.ExternalID,
		Store:      m.Store,
		FaceValue:  m.FaceValue,
		Code:       m.Code,
		Status:     domain.VoucherStatus(m.Status),
		ClaimedAt:  m.ClaimedAt,
		AssignedAt: m.AssignedAt,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			LastUpdatedAt: m.LastUpdatedAt,
		},
	}
	if m.ImageRef != nil {
		d.ImageRef = *m.ImageRef
	}
	if m.OwnerID != nil {
		d.OwnerID = *m.OwnerID
	}
	return d
}

// ToDomainVouchers converts a slice of model Vouchers.
func ToDomainVouchers(ms []models.Voucher) []domain.Voucher {
	ds := make([]domain.Voucher, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainVoucher(m)
	}
	return ds
}
