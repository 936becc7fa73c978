package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/vouchly/voucher_ledger/internal/apperrors"
	"github.com/vouchly/voucher_ledger/internal/core/domain"
	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
	"github.com/vouchly/voucher_ledger/internal/core/services"
)

// MockSessionRepository is a mock type for the SessionRepository interface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) UpsertSession(ctx context.Context, session domain.RequesterSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) FindSession(ctx context.Context, requesterID string) (*domain.RequesterSession, error) {
	args := m.Called(ctx, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RequesterSession), args.Error(1)
}

func (m *MockSessionRepository) DeleteSession(ctx context.Context, requesterID string) error {
	args := m.Called(ctx, requesterID)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// --- Test Suite Setup ---

type SessionServiceTestSuite struct {
	suite.Suite
	mockRepo *MockSessionRepository
	service  portssvc.SessionSvc
}

func (suite *SessionServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockSessionRepository)
	suite.service = services.NewSessionService(suite.mockRepo, 10*time.Minute, 1, 10000)
}

// --- Test Cases ---

func (suite *SessionServiceTestSuite) TestPutPendingAmount_Success() {
	ctx := context.Background()
	suite.mockRepo.On("UpsertSession", ctx, mock.MatchedBy(func(s domain.RequesterSession) bool {
		return s.RequesterID == "req-1" &&
			s.PendingAmount == 150 &&
			s.ExpiresAt.After(time.Now())
	})).Return(nil).Once()

	err := suite.service.PutPendingAmount(ctx, "req-1", 150)

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *SessionServiceTestSuite) TestPutPendingAmount_Validation() {
	ctx := context.Background()

	suite.ErrorIs(suite.service.PutPendingAmount(ctx, "", 100), apperrors.ErrValidation)
	suite.ErrorIs(suite.service.PutPendingAmount(ctx, "req-1", 0), apperrors.ErrValidation)
	suite.ErrorIs(suite.service.PutPendingAmount(ctx, "req-1", 10001), apperrors.ErrValidation)

	suite.mockRepo.AssertNotCalled(suite.T(), "UpsertSession", mock.Anything, mock.Anything)
}

func (suite *SessionServiceTestSuite) TestGetPendingAmount_Live() {
	ctx := context.Background()
	suite.mockRepo.On("FindSession", ctx, "req-1").Return(&domain.RequesterSession{
		RequesterID:   "req-1",
		PendingAmount: 150,
		ExpiresAt:     time.Now().Add(5 * time.Minute),
	}, nil).Once()

	amount, err := suite.service.GetPendingAmount(ctx, "req-1")

	suite.Require().NoError(err)
	suite.Equal(int64(150), amount)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *SessionServiceTestSuite) TestGetPendingAmount_ExpiredIsDeleted() {
	ctx := context.Background()
	suite.mockRepo.On("FindSession", ctx, "req-1").Return(&domain.RequesterSession{
		RequesterID:   "req-1",
		PendingAmount: 150,
		ExpiresAt:     time.Now().Add(-time.Minute),
	}, nil).Once()
	suite.mockRepo.On("DeleteSession", ctx, "req-1").Return(nil).Once()

	_, err := suite.service.GetPendingAmount(ctx, "req-1")

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *SessionServiceTestSuite) TestGetPendingAmount_Missing() {
	ctx := context.Background()
	suite.mockRepo.On("FindSession", ctx, "req-1").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.GetPendingAmount(ctx, "req-1")

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *SessionServiceTestSuite) TestPurgeExpired() {
	ctx := context.Background()
	suite.mockRepo.On("DeleteExpiredSessions", ctx).Return(int64(3), nil).Once()

	purged, err := suite.service.PurgeExpired(ctx)

	suite.Require().NoError(err)
	suite.Equal(int64(3), purged)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *SessionServiceTestSuite) TestClearSession() {
	ctx := context.Background()
	suite.mockRepo.On("DeleteSession", ctx, "req-1").Return(nil).Once()

	suite.NoError(suite.service.ClearSession(ctx, "req-1"))
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestSessionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SessionServiceTestSuite))
}
