package http

import (
	"net/http"
	"strconv"

	"codemarket/internal/usecase"
	"codemarket/pkg/logger"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderUseCase usecase.OrderUseCase
	logger       *logger.Logger
}

func NewOrderHandler(orderUseCase usecase.OrderUseCase, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUseCase,
		logger:       logger,
	}
}

type CreateOrderRequest struct {
	ProjectID uint64 `json:"project_id" binding:"required"`
	Remark    string `json:"remark"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type RefundOrderRequest struct {
	Reason string `json:"reason"`
}

// CreateOrder godoc
// @Summary      Create order
// @Description  Create a pending order for a project at its current catalog price
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateOrderRequest true "Order details"
// @Success      201  {object}  entity.Order
// @Failure      400  {object}  map[string]string
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orderUseCase.CreateOrder(c.Request.Context(), userID, req.ProjectID, req.Remark)
	if err != nil {
		h.logger.Error("Failed to create order: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, order)
}

// PayOrder godoc
// @Summary      Pay order
// @Description  Pay a pending order with points; the amount is held until completion
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        order_no path string true "Order number"
// @Success      200  {object}  entity.Order
// @Failure      402  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /orders/{order_no}/pay [post]
func (h *OrderHandler) PayOrder(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	order, err := h.orderUseCase.PayOrder(c.Param("order_no"), userID)
	if err != nil {
		h.logger.Error("Failed to pay order: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, order)
}

// CompleteOrder godoc
// @Summary      Complete order
// @Description  Confirm delivery; the held points settle to the seller
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        order_no path string true "Order number"
// @Success      200  {object}  entity.Order
// @Failure      409  {object}  map[string]string
// @Router       /orders/{order_no}/complete [post]
func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	order, err := h.orderUseCase.CompleteOrder(c.Param("order_no"), userID)
	if err != nil {
		h.logger.Error("Failed to complete order: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, order)
}

// CancelOrder godoc
// @Summary      Cancel order
// @Description  Cancel a pending or paid order; held points are released
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        order_no path string true "Order number"
// @Param        request body CancelOrderRequest false "Cancellation reason"
// @Success      200  {object}  entity.Order
// @Failure      409  {object}  map[string]string
// @Router       /orders/{order_no}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req CancelOrderRequest
	c.ShouldBindJSON(&req)

	order, err := h.orderUseCase.CancelOrder(c.Param("order_no"), userID, req.Reason)
	if err != nil {
		h.logger.Error("Failed to cancel order: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, order)
}

// RefundOrder godoc
// @Summary      Refund order
// @Description  Refund a paid or completed order back to the buyer
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        order_no path string true "Order number"
// @Param        request body RefundOrderRequest false "Refund reason"
// @Success      200  {object}  entity.Order
// @Failure      409  {object}  map[string]string
// @Router       /orders/{order_no}/refund [post]
func (h *OrderHandler) RefundOrder(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req RefundOrderRequest
	c.ShouldBindJSON(&req)

	order, err := h.orderUseCase.RequestRefund(c.Param("order_no"), userID, req.Reason)
	if err != nil {
		h.logger.Error("Failed to refund order: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetOrder godoc
// @Summary      Get order
// @Description  Get a single order; only the buyer and the seller may see it
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        order_no path string true "Order number"
// @Success      200  {object}  entity.Order
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /orders/{order_no} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	order, err := h.orderUseCase.GetOrder(c.Param("order_no"), userID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListPurchases godoc
// @Summary      List purchases
// @Description  List the authenticated user's orders as a buyer
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Number of orders"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /orders/purchases [get]
func (h *OrderHandler) ListPurchases(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)

	orders, err := h.orderUseCase.ListPurchases(userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list purchases: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// ListSales godoc
// @Summary      List sales
// @Description  List the authenticated user's orders as a seller
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Number of orders"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /orders/sales [get]
func (h *OrderHandler) ListSales(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)

	orders, err := h.orderUseCase.ListSales(userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list sales: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// GetOrderStats godoc
// @Summary      Get order statistics
// @Description  Get completed purchase and sales totals for the authenticated user
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  usecase.OrderStats
// @Router       /orders/stats [get]
func (h *OrderHandler) GetOrderStats(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	stats, err := h.orderUseCase.GetUserOrderStats(userID)
	if err != nil {
		h.logger.Error("Failed to get order stats: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetProjectSalesStats godoc
// @Summary      Get project sales statistics
// @Description  Get completed sales count and amount for a project
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        project_id path int true "Project ID"
// @Success      200  {object}  usecase.ProjectSalesStats
// @Router       /orders/projects/{project_id}/stats [get]
func (h *OrderHandler) GetProjectSalesStats(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}

	projectID, err := strconv.ParseUint(c.Param("project_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	stats, err := h.orderUseCase.GetProjectSalesStats(projectID)
	if err != nil {
		h.logger.Error("Failed to get project sales stats: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
