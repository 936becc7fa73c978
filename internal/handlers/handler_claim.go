package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vouchly/voucher_ledger/internal/apperrors"
	"github.com/vouchly/voucher_ledger/internal/core/domain"
	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
	"github.com/vouchly/voucher_ledger/internal/dto"
	"github.com/vouchly/voucher_ledger/internal/middleware"
)

// claimHandler handles HTTP requests for the claim lifecycle.
type claimHandler struct {
	claimService portssvc.ClaimSvc
}

func newClaimHandler(cs portssvc.ClaimSvc) *claimHandler {
	return &claimHandler{claimService: cs}
}

// registerClaimRoutes registers routes related to claims. The rate limiter is
// applied to claim creation only; reads and finalisation stay unthrottled.
func registerClaimRoutes(rg *gin.RouterGroup, claimService portssvc.ClaimSvc, claimLimiter gin.HandlerFunc) {
	h := newClaimHandler(claimService)

	claims := rg.Group("/claims")
	{
		claims.POST("", claimLimiter, h.createClaim)
		claims.POST("/confirm", h.confirmClaim)
		claims.POST("/release", h.releaseClaim)
		claims.GET("/pending", h.listPending)
	}
}

// createClaim reserves the best voucher subset for the authenticated
// requester. The reservation is atomic; concurrent claimants never receive
// overlapping vouchers.
func (h *claimHandler) createClaim(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateClaim", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	requesterID, ok := middleware.GetRequesterIDFromContext(c)
	if !ok {
		logger.Error("Requester ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.claimService.Claim(c.Request.Context(), domain.AllocationRequest{
		RequesterID:  requesterID,
		TargetAmount: req.TargetAmount,
		StoreFilter:  req.StoreFilter,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrUnsatisfiable):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No voucher combination fits the requested amount"})
		case errors.Is(err, apperrors.ErrBusy):
			c.Header("Retry-After", "1")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Inventory is contended, try again shortly"})
		default:
			logger.Error("Failed to create claim", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create claim"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToClaimResponse(*result))
}

// confirmClaim finalises delivery of reserved vouchers.
func (h *claimHandler) confirmClaim(c *gin.Context) {
	h.finalize(c, h.claimService.Confirm, "confirm")
}

// releaseClaim returns reserved vouchers to the pool after a failed delivery.
func (h *claimHandler) releaseClaim(c *gin.Context) {
	h.finalize(c, h.claimService.Release, "release")
}

// finalize is the shared body of confirm and release: both take the same
// request shape and the same owner-checked transition semantics.
func (h *claimHandler) finalize(c *gin.Context, op func(ctx context.Context, ownerID string, voucherIDs []int64) error, name string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.FinalizeClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for FinalizeClaim", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	requesterID, ok := middleware.GetRequesterIDFromContext(c)
	if !ok {
		logger.Error("Requester ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := op(c.Request.Context(), requesterID, req.VoucherIDs); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "One or more vouchers are not reserved by you"})
		default:
			logger.Error("Failed to "+name+" claim", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + name + " claim"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listPending returns the vouchers currently reserved by the requester.
func (h *claimHandler) listPending(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	requesterID, ok := middleware.GetRequesterIDFromContext(c)
	if !ok {
		logger.Error("Requester ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	vouchers, err := h.claimService.ListPending(c.Request.Context(), requesterID)
	if err != nil {
		logger.Error("Failed to list pending vouchers", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list pending vouchers"})
		return
	}

	out := make([]dto.ClaimedVoucherResponse, len(vouchers))
	for i, v := range vouchers {
		out[i] = dto.ToClaimedVoucherResponse(v)
	}
	c.JSON(http.StatusOK, out)
}
