package services

import "context"

// ArtifactStore persists voucher artifacts (barcode images) and hands back a
// location-independent reference. The ledger stores only the reference,
// never an absolute machine-specific path; a collaborator resolves it back
// to bytes at delivery time.
type ArtifactStore interface {
	// Save stores the artifact under a name derived from the voucher and
	// returns its reference.
	Save(ctx context.Context, name string, data []byte) (ref string, err error)

	// Open resolves a reference previously returned by Save.
	Open(ctx context.Context, ref string) ([]byte, error)
}
