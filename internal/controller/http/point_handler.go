package http

import (
	"net/http"
	"strconv"

	"codemarket/internal/entity"
	"codemarket/internal/usecase"
	"codemarket/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PointHandler struct {
	ledgerUseCase usecase.LedgerUseCase
	logger        *logger.Logger
}

func NewPointHandler(ledgerUseCase usecase.LedgerUseCase, logger *logger.Logger) *PointHandler {
	return &PointHandler{
		ledgerUseCase: ledgerUseCase,
		logger:        logger,
	}
}

// callerID parses the authenticated user id the auth middleware stored.
func callerID(c *gin.Context) (uint64, bool) {
	userID, err := strconv.ParseUint(c.GetString("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user identity"})
		return 0, false
	}
	return userID, true
}

// pagination reads limit/offset query params with sane bounds.
func pagination(c *gin.Context) (int, int) {
	limit := 20
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}

// statusFor maps domain errors to HTTP statuses. Anything unmapped is a 500.
func statusFor(err error) int {
	switch err {
	case entity.ErrInvalidAmount,
		entity.ErrInsufficientPoints,
		entity.ErrInsufficientFrozenPoints,
		entity.ErrSelfTransfer,
		entity.ErrSelfPurchase,
		entity.ErrAlreadyPurchased,
		entity.ErrProjectNotPurchasable:
		return http.StatusBadRequest
	case entity.ErrAccessDenied:
		return http.StatusForbidden
	case entity.ErrAccountNotFound,
		entity.ErrOrderNotFound,
		entity.ErrProjectNotFound:
		return http.StatusNotFound
	case entity.ErrInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type RechargeRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

type TransferRequest struct {
	ToUserID    uint64          `json:"to_user_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

type AdjustRequest struct {
	UserID uint64          `json:"user_id" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason" binding:"required"`
}

type BatchRewardRequest struct {
	UserIDs []uint64        `json:"user_ids" binding:"required,min=1"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
	Reason  string          `json:"reason" binding:"required"`
}

// GetAccount godoc
// @Summary      Get point account
// @Description  Get the point account of the authenticated user, creating it on first access
// @Tags         points
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  entity.PointAccount
// @Router       /points/account [get]
func (h *PointHandler) GetAccount(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	account, err := h.ledgerUseCase.GetAccount(userID)
	if err != nil {
		h.logger.Error("Failed to get account: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, account)
}

// Recharge godoc
// @Summary      Recharge points
// @Description  Add points to the authenticated user's account
// @Tags         points
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body RechargeRequest true "Recharge amount"
// @Success      200  {object}  entity.PointTransaction
// @Failure      400  {object}  map[string]string
// @Router       /points/recharge [post]
func (h *PointHandler) Recharge(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transaction, err := h.ledgerUseCase.Recharge(userID, req.Amount, req.Description)
	if err != nil {
		h.logger.Error("Failed to recharge: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// Transfer godoc
// @Summary      Transfer points
// @Description  Transfer points from the authenticated user to another user
// @Tags         points
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body TransferRequest true "Transfer details"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /points/transfer [post]
func (h *PointHandler) Transfer(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	legs, err := h.ledgerUseCase.Transfer(userID, req.ToUserID, req.Amount, req.Description)
	if err != nil {
		h.logger.Error("Failed to transfer: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Transfer completed",
		"transactions": legs,
	})
}

// GetTransactions godoc
// @Summary      Get point transactions
// @Description  Get transaction history for the authenticated user, optionally filtered by type
// @Tags         points
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        type query string false "Transaction type"
// @Param        limit query int false "Number of transactions"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /points/transactions [get]
func (h *PointHandler) GetTransactions(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)

	var transactions []*entity.PointTransaction
	var err error
	if txType := c.Query("type"); txType != "" {
		transactions, err = h.ledgerUseCase.GetTransactionsByType(userID, entity.TransactionType(txType), limit, offset)
	} else {
		transactions, err = h.ledgerUseCase.GetTransactions(userID, limit, offset)
	}
	if err != nil {
		h.logger.Error("Failed to get transactions: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "count": len(transactions)})
}

// GetStatistics godoc
// @Summary      Get point statistics
// @Description  Get aggregate point statistics for the authenticated user
// @Tags         points
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  usecase.PointStatistics
// @Router       /points/statistics [get]
func (h *PointHandler) GetStatistics(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	stats, err := h.ledgerUseCase.GetStatistics(userID)
	if err != nil {
		h.logger.Error("Failed to get statistics: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// AdjustPoints godoc
// @Summary      Adjust points
// @Description  Admin adjustment of a user's points, positive or negative
// @Tags         points
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body AdjustRequest true "Adjustment details"
// @Success      200  {object}  entity.PointTransaction
// @Failure      403  {object}  map[string]string
// @Router       /points/adjust [post]
func (h *PointHandler) AdjustPoints(c *gin.Context) {
	adminID, ok := callerID(c)
	if !ok {
		return
	}
	if c.GetString("user_role") != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}

	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transaction, err := h.ledgerUseCase.AdjustPoints(req.UserID, req.Amount, req.Reason, adminID)
	if err != nil {
		h.logger.Error("Failed to adjust points: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// BatchReward godoc
// @Summary      Batch reward
// @Description  Admin reward of the same amount to multiple users
// @Tags         points
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body BatchRewardRequest true "Reward details"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]string
// @Router       /points/batch-reward [post]
func (h *PointHandler) BatchReward(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	if c.GetString("user_role") != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}

	var req BatchRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transactions, err := h.ledgerUseCase.BatchReward(req.UserIDs, req.Amount, req.Reason)
	if err != nil {
		h.logger.Error("Failed to batch reward: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rewarded":  len(transactions),
		"requested": len(req.UserIDs),
	})
}

// AuditAccounts godoc
// @Summary      Audit point accounts
// @Description  Admin listing of accounts whose balances violate the bookkeeping invariants
// @Tags         points
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]string
// @Router       /points/audit [get]
func (h *PointHandler) AuditAccounts(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	if c.GetString("user_role") != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}

	accounts, err := h.ledgerUseCase.FindInconsistentAccounts()
	if err != nil {
		h.logger.Error("Failed to audit accounts: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": accounts, "count": len(accounts)})
}
