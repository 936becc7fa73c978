package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vouchly/voucher_ledger/internal/apperrors"
	"github.com/vouchly/voucher_ledger/internal/core/domain"
	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
	"github.com/vouchly/voucher_ledger/internal/dto"
	"github.com/vouchly/voucher_ledger/internal/middleware"
)

// maxImportSize bounds uploaded workbooks. Real exports are well under this.
const maxImportSize = 10 << 20

// ingestionHandler handles pushed events, bulk imports and manual feed runs.
type ingestionHandler struct {
	ingestionService portssvc.IngestionSvc
	feed             portssvc.VoucherFeed
}

func newIngestionHandler(is portssvc.IngestionSvc, feed portssvc.VoucherFeed) *ingestionHandler {
	return &ingestionHandler{ingestionService: is, feed: feed}
}

// registerIngestionRoutes registers routes related to ingestion. feed may be
// nil when no pollable feed is configured; the run endpoint then returns 404.
func registerIngestionRoutes(rg *gin.RouterGroup, ingestionService portssvc.IngestionSvc, feed portssvc.VoucherFeed) {
	h := newIngestionHandler(ingestionService, feed)

	ingestion := rg.Group("/ingestion")
	{
		ingestion.POST("/events", h.ingestEvent)
		ingestion.POST("/import", h.importSpreadsheet)
		ingestion.POST("/run", h.runFeed)
	}
}

// ingestEvent accepts one pushed voucher event. The response outcome is
// terminal; the caller must not re-deliver the event after a 2xx.
func (h *ingestionHandler) ingestEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.IngestEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for IngestEvent", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result, err := h.ingestionService.Ingest(c.Request.Context(), domain.RawVoucherEvent{
		ExternalID: req.ExternalID,
		Subject:    req.Subject,
		RawPayload: req.RawPayload,
		ObservedAt: req.ObservedAt,
	})
	if err != nil {
		// Storage failure: tell the caller to retry the same event later.
		logger.Error("Failed to ingest event", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest event, retry later"})
		return
	}

	status := http.StatusCreated
	if result.Outcome != domain.IngestCreated {
		status = http.StatusOK
	}
	c.JSON(status, dto.ToIngestResultResponse(result))
}

// importSpreadsheet bulk-ingests a voucher workbook uploaded as multipart
// form file "workbook".
func (h *ingestionHandler) importSpreadsheet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	fileHeader, err := c.FormFile("workbook")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing workbook file"})
		return
	}
	if fileHeader.Size > maxImportSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Workbook too large"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded workbook", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read workbook"})
		return
	}
	defer file.Close()
	contents, err := io.ReadAll(file)
	if err != nil {
		logger.Error("Failed to read uploaded workbook", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read workbook"})
		return
	}

	report, err := h.ingestionService.ImportSpreadsheet(c.Request.Context(), fileHeader.Filename, contents)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to import workbook", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import workbook"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToIngestionRunResponse(*report))
}

// runFeed triggers one feed drain outside the regular polling schedule.
func (h *ingestionHandler) runFeed(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	if h.feed == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No pollable feed is configured"})
		return
	}

	report, err := h.ingestionService.RunIngestion(c.Request.Context(), h.feed)
	if err != nil {
		if errors.Is(err, apperrors.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "An ingestion run is already in progress"})
		} else {
			logger.Error("Failed to run ingestion", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run ingestion"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToIngestionRunResponse(*report))
}
