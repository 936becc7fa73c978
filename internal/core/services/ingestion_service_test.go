package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/vouchly/voucher_ledger/internal/apperrors"
	"github.com/vouchly/voucher_ledger/internal/core/domain"
	"github.com/vouchly/voucher_ledger/internal/core/services"
	"github.com/vouchly/voucher_ledger/internal/platform/lock"
)

// MockArtifactStore is a mock type for the ArtifactStore interface
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	args := m.Called(ctx, name, data)
	return args.String(0), args.Error(1)
}

func (m *MockArtifactStore) Open(ctx context.Context, ref string) ([]byte, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// fakeFeed replays a fixed batch and records acknowledgements.
type fakeFeed struct {
	events   []domain.RawVoucherEvent
	fetchErr error
	acked    []string
}

func (f *fakeFeed) Source() string { return "test" }

func (f *fakeFeed) Fetch(context.Context) ([]domain.RawVoucherEvent, error) {
	return f.events, f.fetchErr
}

func (f *fakeFeed) Ack(_ context.Context, externalID string) error {
	f.acked = append(f.acked, externalID)
	return nil
}

// --- Test Suite Setup ---

const (
	voucherSubject = "שובר על סך ₪100.00 - רמי לוי - חיפה"
	voucherBody    = "הקוד שלך:\n12345678901234567890\n"
)

type IngestionServiceTestSuite struct {
	suite.Suite
	mockRepo *MockVoucherRepository
}

func (suite *IngestionServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockVoucherRepository)
}

func TestIngestionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(IngestionServiceTestSuite))
}

func (suite *IngestionServiceTestSuite) TestIngest_Created() {
	ctx := context.Background()
	svc := services.NewIngestionService(suite.mockRepo, nil, lock.NewLocalGuard())

	expected := domain.VoucherDraft{
		ExternalID: "msg-1",
		Store:      "רמי לוי",
		FaceValue:  100,
		Code:       "12345678901234567890",
	}
	suite.mockRepo.On("Insert", ctx, expected).
		Return(&domain.Voucher{VoucherID: 1}, nil).Once()

	result, err := svc.Ingest(ctx, domain.RawVoucherEvent{
		ExternalID: "msg-1",
		Subject:    voucherSubject,
		RawPayload: voucherBody,
	})

	suite.Require().NoError(err)
	suite.Equal(domain.IngestCreated, result.Outcome)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *IngestionServiceTestSuite) TestIngest_RedeliveryIsDuplicate() {
	ctx := context.Background()
	svc := services.NewIngestionService(suite.mockRepo, nil, lock.NewLocalGuard())

	stored := &domain.Voucher{
		VoucherID:  1,
		ExternalID: "msg-1",
		Store:      "רמי לוי",
		FaceValue:  100,
		Code:       "12345678901234567890",
	}
	suite.mockRepo.On("Insert", ctx, mock.AnythingOfType("domain.VoucherDraft")).
		Return(nil, apperrors.ErrDuplicate).Once()
	suite.mockRepo.On("FindByExternalID", ctx, "msg-1").Return(stored, nil).Once()

	result, err := svc.Ingest(ctx, domain.RawVoucherEvent{
		ExternalID: "msg-1",
		Subject:    voucherSubject,
		RawPayload: voucherBody,
	})

	suite.Require().NoError(err)
	suite.Equal(domain.IngestDuplicate, result.Outcome)
	suite.False(result.NeedsReview)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *IngestionServiceTestSuite) TestIngest_DuplicateWithDifferingPayloadNeedsReview() {
	ctx := context.Background()
	svc := services.NewIngestionService(suite.mockRepo, nil, lock.NewLocalGuard())

	stored := &domain.Voucher{
		VoucherID:  1,
		ExternalID: "msg-1",
		Store:      "רמי לוי",
		FaceValue:  200, // disagrees with the event's 100
		Code:       "12345678901234567890",
	}
	suite.mockRepo.On("Insert", ctx, mock.AnythingOfType("domain.VoucherDraft")).
		Return(nil, apperrors.ErrDuplicate).Once()
	suite.mockRepo.On("FindByExternalID", ctx, "msg-1").Return(stored, nil).Once()

	result, err := svc.Ingest(ctx, domain.RawVoucherEvent{
		ExternalID: "msg-1",
		Subject:    voucherSubject,
		RawPayload: voucherBody,
	})

	suite.Require().NoError(err)
	suite.Equal(domain.IngestDuplicate, result.Outcome)
	suite.True(result.NeedsReview)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *IngestionServiceTestSuite) TestIngest_RedeliveryWithCorruptedPayloadIsDuplicate() {
	ctx := context.Background()
	svc := services.NewIngestionService(suite.mockRepo, nil, lock.NewLocalGuard())

	stored := &domain.Voucher{
		VoucherID:  1,
		ExternalID: "msg-1",
		Store:      "רמי לוי",
		FaceValue:  100,
		Code:       "12345678901234567890",
	}
	suite.mockRepo.On("Insert", ctx, mock.AnythingOfType("domain.VoucherDraft")).
		Return(&domain.Voucher{VoucherID: 1}, nil).Once()
	suite.mockRepo.On("FindByExternalID", ctx, "msg-1").Return(stored, nil).Once()

	first, err := svc.Ingest(ctx, domain.RawVoucherEvent{
		ExternalID: "msg-1",
		Subject:    voucherSubject,
		RawPayload: voucherBody,
	})
	suite.Require().NoError(err)
	suite.Equal(domain.IngestCreated, first.Outcome)

	// The same event comes back mangled beyond parsing. The ledger row
	// already exists, so the external id wins over the payload.
	second, err := svc.Ingest(ctx, domain.RawVoucherEvent{
		ExternalID: "msg-1",
		Subject:    "???",
		RawPayload: "garbled",
	})
	suite.Require().NoError(err)
	suite.Equal(domain.IngestDuplicate, second.Outcome)
	suite.True(second.NeedsReview)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *IngestionServiceTestSuite) TestIngest_UnparsableIsRejected() {
	ctx := context.Background()
	svc := services.NewIngestionService(suite.mockRepo, nil, lock.NewLocalGuard())

	suite.mockRepo.On("FindByExternalID", ctx, "msg-2").
		Return(nil, apperrors.ErrNotFound).Once()

	result, err := svc.Ingest(ctx, domain.RawVoucherEvent{
		ExternalID: "msg-2",
		Subject:    "סתם הודעה",
		RawPayload: "בלי קוד",
	})

	suite.Require().NoError(err)
	suite.Equal(domain.IngestRejected, result.Outcome)
	suite.NotEmpty(result.Reason)
	suite.mockRepo.AssertNotCalled(suite.T(), "Insert", mock.Anything, mock.Anything)
}

func (suite *IngestionServiceTestSuite) TestIngest_MissingExternalIDIsRejected() {
	ctx := context.Background()
	svc := services.NewIngestionService(suite.mockRepo, nil, lock.NewLocalGuard())

	result, err := svc.Ingest(ctx, domain.RawVoucherEvent{
		Subject:    voucherSubject,
		RawPayload: voucherBody,
	})

	suite.Require().NoError(err)
	suite.Equal(domain.IngestRejected, result.Outcome)
}

func (suite *IngestionServiceTestSuite) TestIngest_StorageFailureIsNotTerminal() {
	ctx := context.Background()
	svc := services.NewIngestionService(suite.mockRepo, nil, lock.NewLocalGuard())

	suite.mockRepo.On("Insert", ctx, mock.AnythingOfType("domain.VoucherDraft")).
		Return(nil, errors.New("connection reset")).Once()

	_, err := svc.Ingest(ctx, domain.RawVoucherEvent{
		ExternalID: "msg-3",
		Subject:    voucherSubject,
		RawPayload: voucherBody,
	})

	suite.Error(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *IngestionServiceTestSuite) TestIngest_AttachmentSaved() {
	ctx := context.Background()
	artifacts := new(MockArtifactStore)
	svc := services.NewIngestionService(suite.mockRepo, artifacts, lock.NewLocalGuard())

	artifacts.On("Save", ctx, "12345678901234567890.png", []byte{1, 2, 3}).
		Return("12345678901234567890.png", nil).Once()
	suite.mockRepo.On("Insert", ctx, mock.MatchedBy(func(d domain.VoucherDraft) bool {
		return d.ImageRef == "12345678901234567890.png"
	})).Return(&domain.Voucher{VoucherID: 1}, nil).Once()

	result, err := svc.Ingest(ctx, domain.RawVoucherEvent{
		ExternalID:      "msg-4",
		Subject:         voucherSubject,
		RawPayload:      voucherBody,
		AttachmentName:  "barcode.png",
		AttachmentBytes: []byte{1, 2, 3},
	})

	suite.Require().NoError(err)
	suite.Equal(domain.IngestCreated, result.Outcome)
	artifacts.AssertExpectations(suite.T())
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *IngestionServiceTestSuite) TestRunIngestion_AcksTerminalOutcomesOnly() {
	ctx := context.Background()
	svc := services.NewIngestionService(suite.mockRepo, nil, lock.NewLocalGuard())

	feed := &fakeFeed{events: []domain.RawVoucherEvent{
		{ExternalID: "msg-1", Subject: voucherSubject, RawPayload: voucherBody},
		{ExternalID: "msg-2", Subject: "ללא סכום", RawPayload: "ללא קוד"},
		{ExternalID: "msg-3", Subject: voucherSubject, RawPayload: voucherBody},
	}}

	suite.mockRepo.On("Insert", ctx, mock.AnythingOfType("domain.VoucherDraft")).
		Return(&domain.Voucher{VoucherID: 1}, nil).Once()
	suite.mockRepo.On("FindByExternalID", ctx, "msg-2").
		Return(nil, apperrors.ErrNotFound).Once()
	// msg-3 hits a storage failure and must stay unacknowledged.
	suite.mockRepo.On("Insert", ctx, mock.AnythingOfType("domain.VoucherDraft")).
		Return(nil, errors.New("connection reset")).Once()

	report, err := svc.RunIngestion(ctx, feed)

	suite.Require().NoError(err)
	suite.Equal(1, report.Created)
	suite.Equal(1, report.Rejected)
	suite.Equal(1, report.Unacked)
	suite.Equal([]string{"msg-1", "msg-2"}, feed.acked)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *IngestionServiceTestSuite) TestRunIngestion_SingleFlight() {
	ctx := context.Background()
	guard := lock.NewLocalGuard()
	svc := services.NewIngestionService(suite.mockRepo, nil, guard)

	// Hold the guard as a concurrent run would.
	release, err := guard.Acquire(ctx, "ingest:test", time.Minute)
	suite.Require().NoError(err)
	defer release(ctx)

	_, err = svc.RunIngestion(ctx, &fakeFeed{})
	suite.ErrorIs(err, apperrors.ErrBusy)
}
