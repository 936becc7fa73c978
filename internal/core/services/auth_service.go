package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vouchly/voucher_ledger/internal/apperrors"
	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
	"github.com/vouchly/voucher_ledger/internal/dto"
	"github.com/vouchly/voucher_ledger/internal/middleware"
)

// authService issues requester tokens against a static allowlist. There is no
// user table; the set of identities allowed to claim vouchers is operator
// configuration.
type authService struct {
	jwtSecret     string
	jwtExpiry     time.Duration
	allowed       map[string]struct{}
	requesterKeys map[string]string
}

// NewAuthService creates the requester auth service.
func NewAuthService(jwtSecret string, jwtExpiry time.Duration, allowedRequesters []string, requesterKeys map[string]string) portssvc.AuthSvc {
	allowed := make(map[string]struct{}, len(allowedRequesters))
	for _, id := range allowedRequesters {
		allowed[id] = struct{}{}
	}
	return &authService{
		jwtSecret:     jwtSecret,
		jwtExpiry:     jwtExpiry,
		allowed:       allowed,
		requesterKeys: requesterKeys,
	}
}

var _ portssvc.AuthSvc = (*authService)(nil)

// IssueToken exchanges a requester id + access key for a signed JWT. Bad
// credentials and unknown identities both come back as ErrForbidden so the
// response does not reveal which half was wrong.
func (s *authService) IssueToken(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.RequesterID == "" || req.AccessKey == "" {
		return nil, fmt.Errorf("%w: requester id and access key are required", apperrors.ErrValidation)
	}

	key, ok := s.requesterKeys[req.RequesterID]
	if !ok || subtle.ConstantTimeCompare([]byte(key), []byte(req.AccessKey)) != 1 {
		logger.Warn("Token request with bad credentials", slog.String("requester_id", req.RequesterID))
		return nil, apperrors.ErrForbidden
	}
	if !s.IsAllowedRequester(req.RequesterID) {
		logger.Warn("Token request from requester not on allowlist", slog.String("requester_id", req.RequesterID))
		return nil, apperrors.ErrForbidden
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   req.RequesterID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	logger.Info("Issued requester token", slog.String("requester_id", req.RequesterID))
	return &dto.TokenResponse{
		Token:     signed,
		ExpiresIn: int64(s.jwtExpiry.Seconds()),
	}, nil
}

func (s *authService) IsAllowedRequester(requesterID string) bool {
	_, ok := s.allowed[requesterID]
	return ok
}
