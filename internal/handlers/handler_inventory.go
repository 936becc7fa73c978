package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
	"github.com/vouchly/voucher_ledger/internal/dto"
	"github.com/vouchly/voucher_ledger/internal/middleware"
)

// inventoryHandler handles the read-only inventory views.
type inventoryHandler struct {
	inventoryService portssvc.InventorySvc
}

func newInventoryHandler(is portssvc.InventorySvc) *inventoryHandler {
	return &inventoryHandler{inventoryService: is}
}

// registerInventoryRoutes registers routes related to inventory.
func registerInventoryRoutes(rg *gin.RouterGroup, inventoryService portssvc.InventorySvc) {
	h := newInventoryHandler(inventoryService)

	vouchers := rg.Group("/vouchers")
	{
		vouchers.GET("", h.listAll)
		vouchers.GET("/available", h.listAvailable)
	}
	inventory := rg.Group("/inventory")
	{
		inventory.GET("", h.grouped)
		inventory.GET("/stores", h.storeSummaries)
		inventory.GET("/statuses", h.statusSummaries)
	}
	rg.GET("/stores", h.stores)
}

func (h *inventoryHandler) listAll(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	vouchers, err := h.inventoryService.ListAll(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list vouchers", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list vouchers"})
		return
	}
	c.JSON(http.StatusOK, dto.ToVoucherResponses(vouchers))
}

// listAvailable lists the claimable inventory, optionally filtered by the
// `store` query parameter (substring match).
func (h *inventoryHandler) listAvailable(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	vouchers, err := h.inventoryService.ListAvailable(c.Request.Context(), c.Query("store"))
	if err != nil {
		logger.Error("Failed to list available vouchers", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list available vouchers"})
		return
	}
	c.JSON(http.StatusOK, dto.ToVoucherResponses(vouchers))
}

func (h *inventoryHandler) grouped(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	lines, err := h.inventoryService.GroupedInventory(c.Request.Context())
	if err != nil {
		logger.Error("Failed to get grouped inventory", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get inventory"})
		return
	}
	c.JSON(http.StatusOK, dto.ToInventoryLineResponses(lines))
}

func (h *inventoryHandler) storeSummaries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sums, err := h.inventoryService.StoreSummaries(c.Request.Context())
	if err != nil {
		logger.Error("Failed to get store summaries", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get store summaries"})
		return
	}
	c.JSON(http.StatusOK, dto.ToStoreSummaryResponses(sums))
}

func (h *inventoryHandler) statusSummaries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sums, err := h.inventoryService.StatusSummaries(c.Request.Context())
	if err != nil {
		logger.Error("Failed to get status summaries", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get status summaries"})
		return
	}
	c.JSON(http.StatusOK, dto.ToStatusSummaryResponses(sums))
}

func (h *inventoryHandler) stores(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	stores, err := h.inventoryService.Stores(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list stores", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list stores"})
		return
	}
	c.JSON(http.StatusOK, stores)
}
