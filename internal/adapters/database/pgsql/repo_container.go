package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/vouchly/voucher_ledger/internal/core/ports/repositories"
)

// NewRepositoryProvider wires all pgx repositories onto one pool.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		VoucherRepo: NewPgxVoucherRepository(dbPool),
		SessionRepo: NewPgxSessionRepository(dbPool),
	}
}
