package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/vouchly/voucher_ledger/internal/apperrors"
	"github.com/vouchly/voucher_ledger/internal/core/domain"
	portsrepo "github.com/vouchly/voucher_ledger/internal/core/ports/repositories"
	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
	"github.com/vouchly/voucher_ledger/internal/middleware"
	"github.com/vouchly/voucher_ledger/internal/platform/lock"
	"github.com/vouchly/voucher_ledger/internal/utils/voucherparse"
	"github.com/vouchly/voucher_ledger/internal/utils/xlsximport"
)

// runGuardTTL bounds how long a crashed ingestion run can keep its
// single-flight guard held.
const runGuardTTL = 10 * time.Minute

// ingestionService reconciles external voucher events into the ledger.
type ingestionService struct {
	voucherRepo portsrepo.VoucherRepositoryFacade
	artifacts   portssvc.ArtifactStore
	guard       lock.RunGuard
}

// NewIngestionService creates the ingestion reconciler. artifacts may be nil
// when no artifact storage is configured; attachment refs are then dropped.
func NewIngestionService(voucherRepo portsrepo.VoucherRepositoryFacade, artifacts portssvc.ArtifactStore, guard lock.RunGuard) portssvc.IngestionSvc {
	return &ingestionService{
		voucherRepo: voucherRepo,
		artifacts:   artifacts,
		guard:       guard,
	}
}

var _ portssvc.IngestionSvc = (*ingestionService)(nil)

// Ingest parses one event and inserts the resulting draft. Created,
// Duplicate and Rejected are all terminal: the source event must be
// acknowledged for each of them. A non-nil error (storage failure) is the
// only case that leaves the event eligible for re-delivery.
func (s *ingestionService) Ingest(ctx context.Context, event domain.RawVoucherEvent) (domain.IngestResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("external_id", event.ExternalID))

	if event.ExternalID == "" {
		return domain.IngestResult{Outcome: domain.IngestRejected, Reason: "missing external id"}, nil
	}

	parsed, err := voucherparse.Parse(event.Subject, event.RawPayload)
	if err != nil {
		// The external id decides before the payload does: a re-delivery of an
		// already-ingested event is a Duplicate even when this copy is
		// corrupted beyond parsing.
		if _, findErr := s.voucherRepo.FindByExternalID(ctx, event.ExternalID); findErr == nil {
			logger.Warn("Duplicate event re-delivered with unparsable payload, flagging for review",
				slog.String("reason", err.Error()))
			return domain.IngestResult{
				Outcome:     domain.IngestDuplicate,
				Reason:      "payload unparsable, stored voucher stands",
				NeedsReview: true,
			}, nil
		} else if !errors.Is(findErr, apperrors.ErrNotFound) {
			// Storage failure: the outcome is unknown, leave the event unacked.
			return domain.IngestResult{}, findErr
		}
		// Malformed events are rejected and acknowledged so they are never
		// re-fetched forever.
		logger.Warn("Rejected unparsable voucher event", slog.String("reason", err.Error()))
		return domain.IngestResult{Outcome: domain.IngestRejected, Reason: err.Error()}, nil
	}

	draft := domain.VoucherDraft{
		ExternalID: event.ExternalID,
		Store:      parsed.Store,
		FaceValue:  parsed.FaceValue,
		Code:       parsed.Code,
	}
	if ref := s.saveAttachment(ctx, logger, event, parsed.Code); ref != "" {
		draft.ImageRef = ref
	}

	if _, err := s.voucherRepo.Insert(ctx, draft); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return s.classifyDuplicate(ctx, logger, event, draft), nil
		}
		// Unknown outcome: leave the event unacknowledged for a later run.
		return domain.IngestResult{}, err
	}

	logger.Info("Ingested voucher",
		slog.Int64("face_value", draft.FaceValue),
		slog.String("store", draft.Store))
	return domain.IngestResult{Outcome: domain.IngestCreated}, nil
}

// saveAttachment stores the barcode image, if any. Artifact failures never
// fail the ingest; the voucher is simply stored without an image ref.
func (s *ingestionService) saveAttachment(ctx context.Context, logger *slog.Logger, event domain.RawVoucherEvent, code string) string {
	if s.artifacts == nil || len(event.AttachmentBytes) == 0 {
		return ""
	}
	ext := strings.ToLower(path.Ext(event.AttachmentName))
	if ext == "" {
		ext = ".gif"
	}
	ref, err := s.artifacts.Save(ctx, code+ext, event.AttachmentBytes)
	if err != nil {
		logger.Warn("Could not save barcode image", slog.String("error", err.Error()))
		return ""
	}
	return ref
}

// classifyDuplicate decides what a repeated external id means. A re-delivery
// carrying the same voucher fields is routine; one whose payload disagrees
// with the stored row is flagged for manual review instead of being silently
// discarded.
func (s *ingestionService) classifyDuplicate(ctx context.Context, logger *slog.Logger, event domain.RawVoucherEvent, draft domain.VoucherDraft) domain.IngestResult {
	existing, err := s.voucherRepo.FindByExternalID(ctx, event.ExternalID)
	if err != nil {
		// Duplicate on the code constraint rather than the external id: the
		// same voucher arrived through a different channel.
		logger.Info("Duplicate voucher code via different event")
		return domain.IngestResult{Outcome: domain.IngestDuplicate, Reason: "voucher code already ingested"}
	}
	if existing.Code != draft.Code || existing.FaceValue != draft.FaceValue || existing.Store != draft.Store {
		logger.Warn("Duplicate event payload disagrees with stored voucher, flagging for review",
			slog.Int64("stored_face_value", existing.FaceValue),
			slog.Int64("event_face_value", draft.FaceValue))
		return domain.IngestResult{
			Outcome:     domain.IngestDuplicate,
			Reason:      "payload differs from stored voucher",
			NeedsReview: true,
		}
	}
	logger.Info("Duplicate voucher event, skipped")
	return domain.IngestResult{Outcome: domain.IngestDuplicate}
}

// RunIngestion drains the feed once. Runs for the same source are
// single-flight: a second run started while one is in progress reports Busy
// and touches nothing.
func (s *ingestionService) RunIngestion(ctx context.Context, feed portssvc.VoucherFeed) (*domain.IngestionRunReport, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("source", feed.Source()))

	release, err := s.guard.Acquire(ctx, "ingest:"+feed.Source(), runGuardTTL)
	if err != nil {
		if errors.Is(err, apperrors.ErrBusy) {
			logger.Info("Ingestion run already in flight, skipping")
		}
		return nil, err
	}
	defer release(ctx)

	events, err := feed.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch from %s: %w", feed.Source(), err)
	}

	report := &domain.IngestionRunReport{Source: feed.Source(), StartedAt: time.Now()}
	for _, event := range events {
		res, err := s.Ingest(ctx, event)
		if err != nil {
			// Storage failure: leave unacked, the next run retries it.
			logger.Error("Ingest failed, leaving event unacknowledged",
				slog.String("external_id", event.ExternalID),
				slog.String("error", err.Error()))
			report.Unacked++
			continue
		}
		switch res.Outcome {
		case domain.IngestCreated:
			report.Created++
		case domain.IngestDuplicate:
			report.Duplicates++
		case domain.IngestRejected:
			report.Rejected++
		}
		if err := feed.Ack(ctx, event.ExternalID); err != nil {
			logger.Warn("Could not acknowledge event",
				slog.String("external_id", event.ExternalID),
				slog.String("error", err.Error()))
			report.Unacked++
		}
	}
	report.FinishedAt = time.Now()

	logger.Info("Ingestion run finished",
		slog.Int("created", report.Created),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("rejected", report.Rejected),
		slog.Int("unacked", report.Unacked))
	return report, nil
}

// ImportSpreadsheet bulk-ingests vouchers from an uploaded workbook. Rows go
// through the same Insert primitive as feed events, so re-importing a sheet
// is idempotent.
func (s *ingestionService) ImportSpreadsheet(ctx context.Context, filename string, contents []byte) (*domain.IngestionRunReport, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("filename", filename))

	parsed, err := xlsximport.ParseWorkbook(contents)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	report := &domain.IngestionRunReport{Source: "import:" + filename, StartedAt: time.Now()}
	report.Rejected = parsed.SkippedUsed + parsed.SkippedBad
	for _, draft := range parsed.Drafts {
		if _, err := s.voucherRepo.Insert(ctx, draft); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				report.Duplicates++
				continue
			}
			return nil, err
		}
		report.Created++
	}
	report.FinishedAt = time.Now()

	logger.Info("Spreadsheet import finished",
		slog.Int("created", report.Created),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("rejected", report.Rejected))
	return report, nil
}
