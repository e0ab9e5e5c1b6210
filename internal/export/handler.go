package export

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/bisrat6/Huletfish/internal/auth"
	"github.com/bisrat6/Huletfish/internal/logger"
)

type Handler struct {
	service *Service
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{service: NewService(db)}
}

// CreateExport handles POST /admin/payouts/export. It returns the batch
// metadata plus the CSV artifact the operator hands to the bank.
func (h *Handler) CreateExport(c *gin.Context) {
	adminID, _ := auth.GetUserID(c)

	result, err := h.service.CreateExportBatch(c.Request.Context())
	if err != nil {
		logger.Errorf("Failed to create payout export (admin %d): %v", adminID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create payout export"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ListBatches(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	batches, err := h.service.ListBatches(c.Request.Context(), limit)
	if err != nil {
		logger.Errorf("Failed to list payout batches: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payout batches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": len(batches), "batches": batches})
}
