package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"codemarket/internal/entity"
	"codemarket/internal/usecase"
	"codemarket/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockOrderUseCase is a mock implementation of OrderUseCase
type MockOrderUseCase struct {
	mock.Mock
}

func (m *MockOrderUseCase) CreateOrder(ctx context.Context, buyerID, projectID uint64, remark string) (*entity.Order, error) {
	args := m.Called(buyerID, projectID, remark)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderUseCase) PayOrder(orderNo string, buyerID uint64) (*entity.Order, error) {
	args := m.Called(orderNo, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderUseCase) CompleteOrder(orderNo string, userID uint64) (*entity.Order, error) {
	args := m.Called(orderNo, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderUseCase) CancelOrder(orderNo string, userID uint64, reason string) (*entity.Order, error) {
	args := m.Called(orderNo, userID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderUseCase) RequestRefund(orderNo string, buyerID uint64, reason string) (*entity.Order, error) {
	args := m.Called(orderNo, buyerID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderUseCase) GetOrder(orderNo string, userID uint64) (*entity.Order, error) {
	args := m.Called(orderNo, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderUseCase) ListPurchases(buyerID uint64, limit, offset int) ([]*entity.Order, error) {
	args := m.Called(buyerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Order), args.Error(1)
}

func (m *MockOrderUseCase) ListSales(sellerID uint64, limit, offset int) ([]*entity.Order, error) {
	args := m.Called(sellerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Order), args.Error(1)
}

func (m *MockOrderUseCase) GetUserOrderStats(userID uint64) (*usecase.OrderStats, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.OrderStats), args.Error(1)
}

func (m *MockOrderUseCase) GetProjectSalesStats(projectID uint64) (*usecase.ProjectSalesStats, error) {
	args := m.Called(projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ProjectSalesStats), args.Error(1)
}

func (m *MockOrderUseCase) HandleTimeoutOrders() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *MockOrderUseCase) AutoCompleteOrders() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

var _ usecase.OrderUseCase = (*MockOrderUseCase)(nil)

func TestCreateOrder_Created(t *testing.T) {
	mockUseCase := new(MockOrderUseCase)
	handler := NewOrderHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/orders", asUser("1", "user", handler.CreateOrder))

	mockUseCase.On("CreateOrder", uint64(1), uint64(101), "").Return(&entity.Order{
		OrderNo:   "20260101120000123456",
		BuyerID:   1,
		SellerID:  2,
		ProjectID: 101,
		Amount:    dec("120.00"),
		Status:    entity.OrderStatusPendingPayment,
	}, nil)

	body := `{"project_id":101}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "20260101120000123456", response["order_no"])

	mockUseCase.AssertExpectations(t)
}

func TestCreateOrder_SelfPurchase(t *testing.T) {
	mockUseCase := new(MockOrderUseCase)
	handler := NewOrderHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/orders", asUser("2", "user", handler.CreateOrder))

	mockUseCase.On("CreateOrder", uint64(2), uint64(101), "").Return(nil, entity.ErrSelfPurchase)

	body := `{"project_id":101}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestPayOrder_Success(t *testing.T) {
	mockUseCase := new(MockOrderUseCase)
	handler := NewOrderHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/orders/:order_no/pay", asUser("1", "user", handler.PayOrder))

	orderNo := "20260101120000123456"
	mockUseCase.On("PayOrder", orderNo, uint64(1)).Return(&entity.Order{
		OrderNo: orderNo,
		Status:  entity.OrderStatusPaid,
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/orders/"+orderNo+"/pay", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestPayOrder_AlreadyPaid(t *testing.T) {
	mockUseCase := new(MockOrderUseCase)
	handler := NewOrderHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/orders/:order_no/pay", asUser("1", "user", handler.PayOrder))

	orderNo := "20260101120000123456"
	mockUseCase.On("PayOrder", orderNo, uint64(1)).Return(nil, entity.ErrInvalidState)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/orders/"+orderNo+"/pay", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestPayOrder_InsufficientPoints(t *testing.T) {
	mockUseCase := new(MockOrderUseCase)
	handler := NewOrderHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/orders/:order_no/pay", asUser("1", "user", handler.PayOrder))

	orderNo := "20260101120000123456"
	mockUseCase.On("PayOrder", orderNo, uint64(1)).Return(nil, entity.ErrInsufficientPoints)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/orders/"+orderNo+"/pay", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestGetOrder_Forbidden(t *testing.T) {
	mockUseCase := new(MockOrderUseCase)
	handler := NewOrderHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/orders/:order_no", asUser("3", "user", handler.GetOrder))

	orderNo := "20260101120000123456"
	mockUseCase.On("GetOrder", orderNo, uint64(3)).Return(nil, entity.ErrAccessDenied)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/orders/"+orderNo, nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestGetOrder_NotFound(t *testing.T) {
	mockUseCase := new(MockOrderUseCase)
	handler := NewOrderHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/orders/:order_no", asUser("1", "user", handler.GetOrder))

	mockUseCase.On("GetOrder", "missing", uint64(1)).Return(nil, entity.ErrOrderNotFound)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/orders/missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestCancelOrder_WithReason(t *testing.T) {
	mockUseCase := new(MockOrderUseCase)
	handler := NewOrderHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/orders/:order_no/cancel", asUser("1", "user", handler.CancelOrder))

	orderNo := "20260101120000123456"
	mockUseCase.On("CancelOrder", orderNo, uint64(1), "changed my mind").Return(&entity.Order{
		OrderNo: orderNo,
		Status:  entity.OrderStatusCancelled,
	}, nil)

	body := `{"reason":"changed my mind"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/orders/"+orderNo+"/cancel", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestRefundOrder_Success(t *testing.T) {
	mockUseCase := new(MockOrderUseCase)
	handler := NewOrderHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/orders/:order_no/refund", asUser("1", "user", handler.RefundOrder))

	orderNo := "20260101120000123456"
	mockUseCase.On("RequestRefund", orderNo, uint64(1), "").Return(&entity.Order{
		OrderNo:      orderNo,
		Status:       entity.OrderStatusRefunded,
		RefundAmount: dec("120.00"),
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/orders/"+orderNo+"/refund", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestListPurchases_Success(t *testing.T) {
	mockUseCase := new(MockOrderUseCase)
	handler := NewOrderHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/orders/purchases", asUser("1", "user", handler.ListPurchases))

	mockUseCase.On("ListPurchases", uint64(1), 20, 0).Return([]*entity.Order{
		{OrderNo: "a", Status: entity.OrderStatusCompleted},
		{OrderNo: "b", Status: entity.OrderStatusPendingPayment},
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/orders/purchases", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, float64(2), response["count"])

	mockUseCase.AssertExpectations(t)
}

func TestGetOrderStats_Success(t *testing.T) {
	mockUseCase := new(MockOrderUseCase)
	handler := NewOrderHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/orders/stats", asUser("1", "user", handler.GetOrderStats))

	mockUseCase.On("GetUserOrderStats", uint64(1)).Return(&usecase.OrderStats{
		UserID:         1,
		PurchaseCount:  2,
		PurchaseAmount: dec("240.00"),
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/orders/stats", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestGetProjectSalesStats_BadID(t *testing.T) {
	mockUseCase := new(MockOrderUseCase)
	handler := NewOrderHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/orders/projects/:project_id/stats", asUser("1", "user", handler.GetProjectSalesStats))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/orders/projects/abc/stats", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUseCase.AssertNotCalled(t, "GetProjectSalesStats")
}
