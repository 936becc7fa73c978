package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vouchly/voucher_ledger/internal/apperrors"
	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
	"github.com/vouchly/voucher_ledger/internal/dto"
	"github.com/vouchly/voucher_ledger/internal/middleware"
)

// sessionHandler handles the requester's persisted conversation state.
type sessionHandler struct {
	sessionService portssvc.SessionSvc
}

func newSessionHandler(ss portssvc.SessionSvc) *sessionHandler {
	return &sessionHandler{sessionService: ss}
}

// registerSessionRoutes registers routes related to requester sessions.
func registerSessionRoutes(rg *gin.RouterGroup, sessionService portssvc.SessionSvc) {
	h := newSessionHandler(sessionService)

	session := rg.Group("/session")
	{
		session.PUT("", h.putSession)
		session.GET("", h.getSession)
		session.DELETE("", h.clearSession)
	}
}

func (h *sessionHandler) putSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PutSession", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	requesterID, ok := middleware.GetRequesterIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.sessionService.PutPendingAmount(c.Request.Context(), requesterID, req.PendingAmount); err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to store session", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store session"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.SessionResponse{RequesterID: requesterID, PendingAmount: req.PendingAmount})
}

func (h *sessionHandler) getSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	requesterID, ok := middleware.GetRequesterIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	amount, err := h.sessionService.GetPendingAmount(c.Request.Context(), requesterID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No live session"})
		} else {
			logger.Error("Failed to get session", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get session"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.SessionResponse{RequesterID: requesterID, PendingAmount: amount})
}

func (h *sessionHandler) clearSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	requesterID, ok := middleware.GetRequesterIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.sessionService.ClearSession(c.Request.Context(), requesterID); err != nil {
		logger.Error("Failed to clear session", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear session"})
		return
	}

	c.Status(http.StatusNoContent)
}
