package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"codemarket/internal/entity"
	"codemarket/internal/repo/persistent"
	"codemarket/pkg/logger"
	"codemarket/pkg/queue"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EventPublisher pushes order lifecycle events to the message broker.
type EventPublisher interface {
	PublishOrderEvent(event queue.OrderEvent) error
}

// OrderUseCase drives the order state machine. Each transition locks the
// order row, re-checks the guard under the lock, applies the matching ledger
// movement through LedgerUseCase and commits both together. Events go out
// only after the commit.
type OrderUseCase interface {
	CreateOrder(ctx context.Context, buyerID, projectID uint64, remark string) (*entity.Order, error)
	PayOrder(orderNo string, buyerID uint64) (*entity.Order, error)
	CompleteOrder(orderNo string, userID uint64) (*entity.Order, error)
	CancelOrder(orderNo string, userID uint64, reason string) (*entity.Order, error)
	RequestRefund(orderNo string, buyerID uint64, reason string) (*entity.Order, error)

	GetOrder(orderNo string, userID uint64) (*entity.Order, error)
	ListPurchases(buyerID uint64, limit, offset int) ([]*entity.Order, error)
	ListSales(sellerID uint64, limit, offset int) ([]*entity.Order, error)
	GetUserOrderStats(userID uint64) (*OrderStats, error)
	GetProjectSalesStats(projectID uint64) (*ProjectSalesStats, error)

	HandleTimeoutOrders() (int, error)
	AutoCompleteOrders() (int, error)
}

// OrderStats aggregates a user's completed orders on both sides of the market.
type OrderStats struct {
	UserID         uint64          `json:"user_id"`
	PurchaseCount  int64           `json:"purchase_count"`
	PurchaseAmount decimal.Decimal `json:"purchase_amount"`
	SalesCount     int64           `json:"sales_count"`
	SalesAmount    decimal.Decimal `json:"sales_amount"`
}

// ProjectSalesStats aggregates completed sales of a single project.
type ProjectSalesStats struct {
	ProjectID   uint64          `json:"project_id"`
	SalesCount  int64           `json:"sales_count"`
	SalesAmount decimal.Decimal `json:"sales_amount"`
}

type orderUseCase struct {
	db                *gorm.DB
	orderRepo         persistent.OrderRepository
	ledger            LedgerUseCase
	catalog           ProjectCatalog
	publisher         EventPublisher
	logger            *logger.Logger
	timeoutAfter      time.Duration
	autoCompleteAfter time.Duration
}

func NewOrderUseCase(
	db *gorm.DB,
	orderRepo persistent.OrderRepository,
	ledger LedgerUseCase,
	catalog ProjectCatalog,
	publisher EventPublisher,
	logger *logger.Logger,
	timeoutAfter time.Duration,
	autoCompleteAfter time.Duration,
) OrderUseCase {
	return &orderUseCase{
		db:                db,
		orderRepo:         orderRepo,
		ledger:            ledger,
		catalog:           catalog,
		publisher:         publisher,
		logger:            logger,
		timeoutAfter:      timeoutAfter,
		autoCompleteAfter: autoCompleteAfter,
	}
}

func (uc *orderUseCase) CreateOrder(ctx context.Context, buyerID, projectID uint64, remark string) (*entity.Order, error) {
	uc.logger.Info("Creating order: buyerID=%d projectID=%d", buyerID, projectID)

	project, err := uc.catalog.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.Purchasable {
		return nil, entity.ErrProjectNotPurchasable
	}
	if project.SellerID == buyerID {
		return nil, entity.ErrSelfPurchase
	}
	if project.Price.LessThanOrEqual(decimal.Zero) {
		return nil, entity.ErrInvalidAmount
	}

	active, err := uc.orderRepo.HasActiveOrder(buyerID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing orders: %w", err)
	}
	if active {
		return nil, entity.ErrAlreadyPurchased
	}

	orderNo, err := uc.generateOrderNo()
	if err != nil {
		return nil, err
	}

	order := entity.NewOrder(orderNo, buyerID, project.SellerID, projectID, project.Price, remark)
	if err := uc.orderRepo.Create(order); err != nil {
		uc.logger.Error("Failed to create order for buyer %d project %d: %v", buyerID, projectID, err)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	uc.logger.Info("Order created: orderNo=%s amount=%s", order.OrderNo, order.Amount)
	uc.publishEvent(order)
	return order, nil
}

// PayOrder holds the buyer's points for the order amount. The order row lock
// makes a double pay a clean ErrInvalidState instead of a double freeze.
func (uc *orderUseCase) PayOrder(orderNo string, buyerID uint64) (*entity.Order, error) {
	uc.logger.Info("Paying order: orderNo=%s buyerID=%d", orderNo, buyerID)

	var order *entity.Order
	err := uc.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = uc.orderRepo.WithTx(tx).GetByOrderNoForUpdate(orderNo)
		if err != nil {
			return err
		}
		if order.BuyerID != buyerID {
			return entity.ErrAccessDenied
		}
		if err := order.MarkAsPaid(entity.PaymentMethodPoints); err != nil {
			return err
		}
		if err := uc.ledger.FreezeTx(tx, order.BuyerID, order.Amount, order.OrderNo); err != nil {
			return err
		}
		return uc.orderRepo.WithTx(tx).Save(order)
	})
	if err != nil {
		uc.logger.Error("Pay failed: orderNo=%s: %v", orderNo, err)
		return nil, err
	}

	uc.publishEvent(order)
	return order, nil
}

// CompleteOrder settles a paid order: the buyer's hold is spent and the
// seller is credited in the same transaction as the status change.
func (uc *orderUseCase) CompleteOrder(orderNo string, userID uint64) (*entity.Order, error) {
	uc.logger.Info("Completing order: orderNo=%s userID=%d", orderNo, userID)

	var order *entity.Order
	err := uc.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = uc.orderRepo.WithTx(tx).GetByOrderNoForUpdate(orderNo)
		if err != nil {
			return err
		}
		if !order.InvolvedUser(userID) {
			return entity.ErrAccessDenied
		}
		if err := order.MarkAsCompleted(); err != nil {
			return err
		}
		if err := uc.ledger.SettleTx(tx, order.BuyerID, order.SellerID, order.Amount, order.OrderNo); err != nil {
			return err
		}
		return uc.orderRepo.WithTx(tx).Save(order)
	})
	if err != nil {
		uc.logger.Error("Complete failed: orderNo=%s: %v", orderNo, err)
		return nil, err
	}

	uc.publishEvent(order)
	return order, nil
}

// CancelOrder cancels a pending or paid order. A paid order gets its hold
// released in the same transaction; a pending one has nothing to release.
func (uc *orderUseCase) CancelOrder(orderNo string, userID uint64, reason string) (*entity.Order, error) {
	uc.logger.Info("Cancelling order: orderNo=%s userID=%d", orderNo, userID)

	var order *entity.Order
	err := uc.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = uc.orderRepo.WithTx(tx).GetByOrderNoForUpdate(orderNo)
		if err != nil {
			return err
		}
		if !order.InvolvedUser(userID) {
			return entity.ErrAccessDenied
		}
		wasPaid := order.IsPaidFor()
		if err := order.MarkAsCancelled(reason); err != nil {
			return err
		}
		if wasPaid {
			if err := uc.ledger.UnfreezeTx(tx, order.BuyerID, order.Amount, order.OrderNo); err != nil {
				return err
			}
		}
		return uc.orderRepo.WithTx(tx).Save(order)
	})
	if err != nil {
		uc.logger.Error("Cancel failed: orderNo=%s: %v", orderNo, err)
		return nil, err
	}

	uc.publishEvent(order)
	return order, nil
}

// RequestRefund refunds a paid or completed order. A paid order only needs
// its hold released; a completed one reverses the settlement, taking the
// earnings back from the seller and crediting the buyer.
func (uc *orderUseCase) RequestRefund(orderNo string, buyerID uint64, reason string) (*entity.Order, error) {
	uc.logger.Info("Refunding order: orderNo=%s buyerID=%d", orderNo, buyerID)

	var order *entity.Order
	err := uc.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = uc.orderRepo.WithTx(tx).GetByOrderNoForUpdate(orderNo)
		if err != nil {
			return err
		}
		if order.BuyerID != buyerID {
			return entity.ErrAccessDenied
		}
		wasCompleted := order.Status == entity.OrderStatusCompleted
		if err := order.MarkAsRefunded(order.Amount); err != nil {
			return err
		}
		if reason != "" {
			order.Remark = reason
		}
		if wasCompleted {
			err = uc.ledger.ReverseTx(tx, order.SellerID, order.BuyerID, order.Amount, order.OrderNo)
		} else {
			err = uc.ledger.UnfreezeTx(tx, order.BuyerID, order.Amount, order.OrderNo)
		}
		if err != nil {
			return err
		}
		return uc.orderRepo.WithTx(tx).Save(order)
	})
	if err != nil {
		uc.logger.Error("Refund failed: orderNo=%s: %v", orderNo, err)
		return nil, err
	}

	uc.publishEvent(order)
	return order, nil
}

func (uc *orderUseCase) GetOrder(orderNo string, userID uint64) (*entity.Order, error) {
	order, err := uc.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if !order.InvolvedUser(userID) {
		return nil, entity.ErrAccessDenied
	}
	return order, nil
}

func (uc *orderUseCase) ListPurchases(buyerID uint64, limit, offset int) ([]*entity.Order, error) {
	return uc.orderRepo.ListByBuyer(buyerID, limit, offset)
}

func (uc *orderUseCase) ListSales(sellerID uint64, limit, offset int) ([]*entity.Order, error) {
	return uc.orderRepo.ListBySeller(sellerID, limit, offset)
}

func (uc *orderUseCase) GetUserOrderStats(userID uint64) (*OrderStats, error) {
	purchaseCount, err := uc.orderRepo.CountByBuyer(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count purchases: %w", err)
	}
	purchaseAmount, err := uc.orderRepo.SumAmountByBuyer(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum purchases: %w", err)
	}
	salesCount, err := uc.orderRepo.CountBySeller(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}
	salesAmount, err := uc.orderRepo.SumAmountBySeller(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum sales: %w", err)
	}

	return &OrderStats{
		UserID:         userID,
		PurchaseCount:  purchaseCount,
		PurchaseAmount: purchaseAmount,
		SalesCount:     salesCount,
		SalesAmount:    salesAmount,
	}, nil
}

func (uc *orderUseCase) GetProjectSalesStats(projectID uint64) (*ProjectSalesStats, error) {
	count, err := uc.orderRepo.CountByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count project sales: %w", err)
	}
	amount, err := uc.orderRepo.SumAmountByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum project sales: %w", err)
	}

	return &ProjectSalesStats{
		ProjectID:   projectID,
		SalesCount:  count,
		SalesAmount: amount,
	}, nil
}

// HandleTimeoutOrders cancels unpaid orders older than the payment window.
// Each order is cancelled in its own transaction so one failure does not
// block the sweep.
func (uc *orderUseCase) HandleTimeoutOrders() (int, error) {
	cutoff := time.Now().Add(-uc.timeoutAfter)
	orders, err := uc.orderRepo.FindPendingCreatedBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to find timed out orders: %w", err)
	}

	cancelled := 0
	for _, o := range orders {
		if _, err := uc.CancelOrder(o.OrderNo, o.BuyerID, "payment timeout"); err != nil {
			uc.logger.Warn("Timeout cancel failed: orderNo=%s: %v", o.OrderNo, err)
			continue
		}
		cancelled++
	}
	if cancelled > 0 {
		uc.logger.Info("Cancelled %d timed out orders", cancelled)
	}
	return cancelled, nil
}

// AutoCompleteOrders settles paid orders the buyer never confirmed within the
// confirmation window.
func (uc *orderUseCase) AutoCompleteOrders() (int, error) {
	cutoff := time.Now().Add(-uc.autoCompleteAfter)
	orders, err := uc.orderRepo.FindPaidBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to find stale paid orders: %w", err)
	}

	completed := 0
	for _, o := range orders {
		if _, err := uc.CompleteOrder(o.OrderNo, o.BuyerID); err != nil {
			uc.logger.Warn("Auto complete failed: orderNo=%s: %v", o.OrderNo, err)
			continue
		}
		completed++
	}
	if completed > 0 {
		uc.logger.Info("Auto completed %d paid orders", completed)
	}
	return completed, nil
}

// generateOrderNo builds a timestamp-prefixed number with a random suffix and
// retries on the unlikely collision.
func (uc *orderUseCase) generateOrderNo() (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		orderNo := fmt.Sprintf("%s%06d", time.Now().Format("20060102150405"), rand.Intn(1000000))
		exists, err := uc.orderRepo.ExistsByOrderNo(orderNo)
		if err != nil {
			return "", fmt.Errorf("failed to check order number: %w", err)
		}
		if !exists {
			return orderNo, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique order number")
}

// publishEvent emits the order's new status after commit. Publishing is best
// effort; failures are logged and swallowed.
func (uc *orderUseCase) publishEvent(order *entity.Order) {
	if uc.publisher == nil {
		return
	}
	err := uc.publisher.PublishOrderEvent(queue.OrderEvent{
		OrderNo:   order.OrderNo,
		Status:    string(order.Status),
		BuyerID:   order.BuyerID,
		SellerID:  order.SellerID,
		ProjectID: order.ProjectID,
		Amount:    order.Amount.String(),
		Timestamp: time.Now(),
	})
	if err != nil {
		uc.logger.Warn("Order event publish failed: orderNo=%s status=%s: %v", order.OrderNo, order.Status, err)
	}
}
