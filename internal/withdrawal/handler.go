package withdrawal

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/bisrat6/Huletfish/internal/api"
	"github.com/bisrat6/Huletfish/internal/auth"
	"github.com/bisrat6/Huletfish/internal/email"
	"github.com/bisrat6/Huletfish/internal/logger"
	"github.com/bisrat6/Huletfish/internal/wallet"
)

type Handler struct {
	service *Service
}

func NewHandler(db *sqlx.DB, emailService *email.Service, currency string) *Handler {
	return &Handler{
		service: NewService(db, emailService, currency),
	}
}

type CreateWithdrawalRequest struct {
	AmountCents     int64        `json:"amount_cents" binding:"required,gt=0"`
	ClientRequestID *string      `json:"client_request_id"`
	Destination     *Destination `json:"destination"`
}

type MarkFailedRequest struct {
	Reason string `json:"reason"`
}

// Create handles POST /withdrawals. The caller identity supplies the host id;
// approval is enforced by route middleware.
func (h *Handler) Create(c *gin.Context) {
	hostID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_cents must be a positive integer"})
		return
	}

	dest := Destination{}
	if req.Destination != nil {
		if errs := api.ValidateStruct(*req.Destination); len(errs) > 0 {
			api.RespondWithValidationErrors(c, errs)
			return
		}
		dest = *req.Destination
	}

	wr, err := h.service.Create(c.Request.Context(), hostID, req.AmountCents, req.ClientRequestID, dest)
	if err != nil {
		switch {
		case errors.Is(err, ErrAmountBelowMinimum):
			c.JSON(http.StatusBadRequest, gin.H{"error": "minimum withdrawal is " + strconv.FormatInt(MinWithdrawalCents, 10) + " cents"})
		case errors.Is(err, wallet.ErrInsufficientFunds):
			c.JSON(http.StatusConflict, gin.H{"error": "insufficient available balance"})
		default:
			logger.Errorf("Failed to create withdrawal for host %d: %v", hostID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create withdrawal"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"withdrawal": wr})
}

// ListMine handles GET /withdrawals, paginated and scoped to the caller.
func (h *Handler) ListMine(c *gin.Context) {
	hostID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, total, err := h.service.ListByHost(c.Request.Context(), hostID, page, limit)
	if err != nil {
		logger.Errorf("Failed to list withdrawals for host %d: %v", hostID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list withdrawals"})
		return
	}

	c.JSON(http.StatusOK, api.PaginatedResponse{
		Results: len(items),
		Total:   total,
		Page:    page,
		Limit:   limit,
		Data:    gin.H{"withdrawals": items},
	})
}

// ListAll handles GET /admin/withdrawals?status=.
func (h *Handler) ListAll(c *gin.Context) {
	items, err := h.service.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		logger.Errorf("Failed to list withdrawals: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list withdrawals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": len(items), "withdrawals": items})
}

func (h *Handler) MarkPaid(c *gin.Context) {
	adminID, _ := auth.GetUserID(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal ID"})
		return
	}

	wr, err := h.service.MarkPaid(c.Request.Context(), adminID, id)
	if err != nil {
		h.respondTransitionError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawal": wr})
}

func (h *Handler) MarkFailed(c *gin.Context) {
	adminID, _ := auth.GetUserID(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal ID"})
		return
	}

	var req MarkFailedRequest
	_ = c.ShouldBindJSON(&req)

	wr, err := h.service.MarkFailed(c.Request.Context(), adminID, id, req.Reason)
	if err != nil {
		h.respondTransitionError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawal": wr})
}

func (h *Handler) respondTransitionError(c *gin.Context, id int, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
	case errors.Is(err, ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "withdrawal is not pending transfer"})
	case errors.Is(err, wallet.ErrInsufficientPending):
		c.JSON(http.StatusConflict, gin.H{"error": "insufficient pending payout balance"})
	default:
		logger.Errorf("Failed to process withdrawal %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process withdrawal"})
	}
}
