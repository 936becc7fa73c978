package services

import (
	portsrepo "github.com/vouchly/voucher_ledger/internal/core/ports/repositories"
	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
	"github.com/vouchly/voucher_ledger/internal/platform/lock"
	"github.com/vouchly/voucher_ledger/pkg/config"
)

// NewServiceContainer creates all application services with properly
// initialized dependencies. artifacts may be nil when no artifact storage is
// configured.
func NewServiceContainer(repos *portsrepo.RepositoryProvider, cfg *config.Config, artifacts portssvc.ArtifactStore, guard lock.RunGuard) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		Claim: NewClaimService(
			repos.VoucherRepo,
			cfg.MinClaimAmount,
			cfg.MaxClaimAmount,
			cfg.ClaimTimeout,
			cfg.ClaimMaxRetries,
		),
		Ingestion: NewIngestionService(repos.VoucherRepo, artifacts, guard),
		Inventory: NewInventoryService(repos.VoucherRepo),
		Session:   NewSessionService(repos.SessionRepo, cfg.SessionTTL, cfg.MinClaimAmount, cfg.MaxClaimAmount),
		Auth:      NewAuthService(cfg.JWTSecret, cfg.JWTExpiryDuration, cfg.AllowedRequesters, cfg.RequesterKeys),
	}
}
