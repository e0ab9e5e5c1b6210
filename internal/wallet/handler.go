package wallet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/bisrat6/Huletfish/internal/auth"
	"github.com/bisrat6/Huletfish/internal/logger"
)

type Handler struct {
	repo *Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{
		repo: NewRepository(db),
	}
}

type CreditRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required"`
	RefType     string `json:"ref_type"`
	RefID       string `json:"ref_id"`
}

// GetMyWallet returns the caller's wallet, creating it on first access.
func (h *Handler) GetMyWallet(c *gin.Context) {
	hostID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	w, err := h.repo.GetOrCreateWallet(c.Request.Context(), hostID)
	if err != nil {
		logger.Errorf("Failed to load wallet for host %d: %v", hostID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wallet"})
		return
	}

	c.JSON(http.StatusOK, w)
}

// ListLedger returns the caller's ledger entries in creation order,
// optionally filtered by entry type or reference id.
func (h *Handler) ListLedger(c *gin.Context) {
	hostID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.repo.ListLedgerEntries(c.Request.Context(), hostID, LedgerFilter{
		Type:   c.Query("type"),
		RefID:  c.Query("ref_id"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		logger.Errorf("Failed to load ledger for host %d: %v", hostID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ledger entries"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

// CreditHost books earnings into a host wallet. Admin surface; the settlement
// pipeline calls this when a booking clears.
func (h *Handler) CreditHost(c *gin.Context) {
	hostID, err := strconv.Atoi(c.Param("hostID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid host ID"})
		return
	}

	var req CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AmountCents <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_cents must be positive"})
		return
	}

	ref := LedgerRef{Type: req.RefType, ID: req.RefID}
	if ref.Type == "" {
		ref.Type = "ManualCredit"
	}
	if ref.ID == "" {
		adminID, _ := auth.GetUserID(c)
		ref.ID = "admin:" + strconv.Itoa(adminID)
	}

	w, err := h.repo.Credit(c.Request.Context(), hostID, req.AmountCents, ref)
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Errorf("Failed to credit host %d: %v", hostID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to credit wallet"})
		return
	}

	logger.Info("wallet_credited",
		"host_id", hostID,
		"amount_cents", req.AmountCents,
		"ref_type", ref.Type,
		"ref_id", ref.ID,
	)

	c.JSON(http.StatusOK, gin.H{
		"message": "wallet credited",
		"wallet":  w,
	})
}
