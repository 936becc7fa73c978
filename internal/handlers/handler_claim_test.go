package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/vouchly/voucher_ledger/internal/apperrors"
	"github.com/vouchly/voucher_ledger/internal/core/domain"
	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
	"github.com/vouchly/voucher_ledger/internal/core/services"
	"github.com/vouchly/voucher_ledger/internal/dto"
	"github.com/vouchly/voucher_ledger/internal/handlers"
	"github.com/vouchly/voucher_ledger/pkg/config"
)

const testJWTSecret = "handler-test-secret-key"

// --- Mock ClaimSvc ---
type MockClaimService struct {
	mock.Mock
}

func (m *MockClaimService) Claim(ctx context.Context, req domain.AllocationRequest) (*domain.ClaimResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClaimResult), args.Error(1)
}

func (m *MockClaimService) Confirm(ctx context.Context, ownerID string, voucherIDs []int64) error {
	args := m.Called(ctx, ownerID, voucherIDs)
	return args.Error(0)
}

func (m *MockClaimService) Release(ctx context.Context, ownerID string, voucherIDs []int64) error {
	args := m.Called(ctx, ownerID, voucherIDs)
	return args.Error(0)
}

func (m *MockClaimService) ListPending(ctx context.Context, ownerID string) ([]domain.Voucher, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Voucher), args.Error(1)
}

func (m *MockClaimService) SweepStaleClaims(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

var _ portssvc.ClaimSvcFacade = (*MockClaimService)(nil)

// --- Test Suite Setup ---

type ClaimHandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	mockClaim *MockClaimService
}

func (suite *ClaimHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.mockClaim = new(MockClaimService)

	cfg := &config.Config{
		JWTSecret:         testJWTSecret,
		AllowedRequesters: []string{"req-1"},
	}
	container := &portssvc.ServiceContainer{
		Claim: suite.mockClaim,
		Auth:  services.NewAuthService(testJWTSecret, time.Hour, cfg.AllowedRequesters, nil),
	}

	suite.router = gin.New()
	handlers.RegisterRoutes(suite.router, cfg, container, nil)
}

func (suite *ClaimHandlerTestSuite) tokenFor(requesterID string) string {
	claims := jwt.RegisteredClaims{
		Subject:   requesterID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	suite.Require().NoError(err)
	return signed
}

func (suite *ClaimHandlerTestSuite) doJSON(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *ClaimHandlerTestSuite) TestCreateClaim_Success() {
	result := &domain.ClaimResult{
		ClaimID: "claim-1",
		OwnerID: "req-1",
		Total:   150,
		Vouchers: []domain.Voucher{
			{VoucherID: 1, Store: "רמי לוי", FaceValue: 150, Code: "12345678901234567890"},
		},
	}
	suite.mockClaim.On("Claim", mock.Anything, domain.AllocationRequest{
		RequesterID:  "req-1",
		TargetAmount: 150,
	}).Return(result, nil).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/claims", suite.tokenFor("req-1"), dto.CreateClaimRequest{TargetAmount: 150})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.ClaimResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("claim-1", resp.ClaimID)
	suite.Equal(int64(150), resp.Total)
	suite.Require().Len(resp.Vouchers, 1)
	suite.Equal("12345678901234567890", resp.Vouchers[0].Code)
	suite.mockClaim.AssertExpectations(suite.T())
}

func (suite *ClaimHandlerTestSuite) TestCreateClaim_Unsatisfiable() {
	suite.mockClaim.On("Claim", mock.Anything, mock.AnythingOfType("domain.AllocationRequest")).
		Return(nil, apperrors.ErrUnsatisfiable).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/claims", suite.tokenFor("req-1"), dto.CreateClaimRequest{TargetAmount: 45})

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *ClaimHandlerTestSuite) TestCreateClaim_Busy() {
	suite.mockClaim.On("Claim", mock.Anything, mock.AnythingOfType("domain.AllocationRequest")).
		Return(nil, apperrors.ErrBusy).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/claims", suite.tokenFor("req-1"), dto.CreateClaimRequest{TargetAmount: 100})

	suite.Equal(http.StatusServiceUnavailable, w.Code)
	suite.NotEmpty(w.Header().Get("Retry-After"))
}

func (suite *ClaimHandlerTestSuite) TestCreateClaim_NoToken() {
	w := suite.doJSON(http.MethodPost, "/api/v1/claims", "", dto.CreateClaimRequest{TargetAmount: 100})

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockClaim.AssertNotCalled(suite.T(), "Claim", mock.Anything, mock.Anything)
}

func (suite *ClaimHandlerTestSuite) TestCreateClaim_NotAllowlisted() {
	w := suite.doJSON(http.MethodPost, "/api/v1/claims", suite.tokenFor("stranger"), dto.CreateClaimRequest{TargetAmount: 100})

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockClaim.AssertNotCalled(suite.T(), "Claim", mock.Anything, mock.Anything)
}

func (suite *ClaimHandlerTestSuite) TestCreateClaim_BadBody() {
	w := suite.doJSON(http.MethodPost, "/api/v1/claims", suite.tokenFor("req-1"), map[string]interface{}{"targetAmount": 0})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *ClaimHandlerTestSuite) TestConfirmClaim_Success() {
	suite.mockClaim.On("Confirm", mock.Anything, "req-1", []int64{1, 2}).Return(nil).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/claims/confirm", suite.tokenFor("req-1"), dto.FinalizeClaimRequest{VoucherIDs: []int64{1, 2}})

	suite.Equal(http.StatusOK, w.Code)
	suite.mockClaim.AssertExpectations(suite.T())
}

func (suite *ClaimHandlerTestSuite) TestReleaseClaim_Conflict() {
	suite.mockClaim.On("Release", mock.Anything, "req-1", []int64{9}).Return(apperrors.ErrConflict).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/claims/release", suite.tokenFor("req-1"), dto.FinalizeClaimRequest{VoucherIDs: []int64{9}})

	suite.Equal(http.StatusConflict, w.Code)
}

func TestClaimHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ClaimHandlerTestSuite))
}
