// internal/service/order/application/service.go
package application

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"primeshop/internal/pkg/logger"
	"primeshop/internal/pkg/metrics"
	"primeshop/internal/service/order/domain"
)

// OrderApplicationService 编排订单装配与生命周期流转。
// 下单的全部步骤（库存预留、券核销、订单落库、清空购物车）
// 运行在同一个数据库事务内，任何一步失败都不会留下部分状态。
type OrderApplicationService struct {
	orders    domain.OrderRepository
	carts     domain.CartRepository
	products  domain.ProductRepository
	inventory *InventoryReserver
	vouchers  domain.VoucherRedeemer
	events    domain.StatusEventProducer
	txm       domain.TxManager
	tracer    trace.Tracer
}

// NewOrderApplicationService 创建订单应用服务。
func NewOrderApplicationService(
	orders domain.OrderRepository,
	carts domain.CartRepository,
	products domain.ProductRepository,
	inventory *InventoryReserver,
	vouchers domain.VoucherRedeemer,
	events domain.StatusEventProducer,
	txm domain.TxManager,
	tracer trace.Tracer,
) *OrderApplicationService {
	return &OrderApplicationService{
		orders:    orders,
		carts:     carts,
		products:  products,
		inventory: inventory,
		vouchers:  vouchers,
		events:    events,
		txm:       txm,
		tracer:    tracer,
	}
}

// CreateOrder 把 userID 的购物车转换为一张 PENDING 状态的订单。
func (s *OrderApplicationService) CreateOrder(ctx context.Context, userID int64, req *CreateOrderRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	var order *domain.Order
	err := s.txm.Transaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.assembleOrder(ctx, userID, req)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order creation failed")
		metrics.OrderCreateFailures.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	span.AddEvent("order created in PENDING state")
	logger.Ctx(ctx).Info().
		Int64("order_id", order.ID).
		Int64("user_id", userID).
		Float64("final_amount", order.FinalAmount).
		Msg("order created")
	return order, nil
}

// assembleOrder 在事务内执行订单装配的全部步骤。
func (s *OrderApplicationService) assembleOrder(ctx context.Context, userID int64, req *CreateOrderRequest) (*domain.Order, error) {
	// 1. 读取购物车，空车直接失败
	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	// 2. 逐行构造订单项并预留库存
	items := make([]domain.OrderItem, 0, len(cart.Items))
	productIDs := make([]int64, 0, len(cart.Items))
	categoryIDs := make([]int64, 0, len(cart.Items))
	for _, ci := range cart.Items {
		product, err := s.products.FindByID(ctx, ci.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    ci.Quantity,
			TotalPrice:  ci.TotalPrice,
		})
		productIDs = append(productIDs, product.ID)
		categoryIDs = append(categoryIDs, product.CategoryID)
	}
	if err := s.inventory.Reserve(ctx, items); err != nil {
		return nil, err
	}

	// 3. 折扣前合计
	totalAmount := 0.0
	for _, item := range items {
		totalAmount += item.TotalPrice
	}

	// 4. 券码来源：请求里显式传入的优先，否则用购物车上挂的
	voucherCodes := req.VoucherCodes
	if len(voucherCodes) == 0 {
		voucherCodes = cart.VoucherCodes
	}

	// 5. 整批核销；任何券失败则整个事务回滚，库存扣减一并撤销
	var applied []domain.AppliedVoucher
	if len(voucherCodes) > 0 {
		fact := domain.RedemptionFact{
			OrderValue:  totalAmount,
			ProductIDs:  productIDs,
			CategoryIDs: categoryIDs,
		}
		applied, err = s.vouchers.Redeem(ctx, voucherCodes, totalAmount, fact)
		if err != nil {
			return nil, err
		}
	}

	// 6. 折扣相加并封顶，实付金额不为负
	discountAmount := 0.0
	for _, v := range applied {
		discountAmount += v.Discount
	}
	discountAmount = math.Min(discountAmount, totalAmount)

	// 7. 以 PENDING 状态落库
	order, err := domain.NewOrder(userID, items, domain.ShippingInfo{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Note:        req.Note,
	}, applied, totalAmount, discountAmount)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	// 8. 清空购物车的行项目、折扣与券码
	if err := s.carts.Clear(ctx, cart.ID); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrderStatus 执行一次状态流转。
// 在事务内以行锁重读当前状态再校验，并发的流转请求在行锁上串行化，
// 后到的请求会基于已更新的状态被拒绝，而不是覆盖先到的结果。
func (s *OrderApplicationService) UpdateOrderStatus(ctx context.Context, orderID int64, next domain.Status) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.UpdateOrderStatus")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.requested_status", string(next)),
	)

	var (
		order *domain.Order
		from  domain.Status
	)
	err := s.txm.Transaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		from = order.Status

		if err := order.TransitionTo(next); err != nil {
			return err
		}
		if err := s.orders.UpdateStatus(ctx, orderID, next); err != nil {
			return err
		}

		// 取消订单时在同一事务内回补库存
		if next == domain.StatusCancelled {
			return s.inventory.Restock(ctx, order.Items)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	metrics.StatusTransitions.WithLabelValues(string(from), string(next)).Inc()

	// 事务提交后发布事件；发布失败只记日志，不影响已提交的流转
	event := &domain.OrderStatusChanged{
		OrderID:   orderID,
		UserID:    order.UserID,
		From:      string(from),
		To:        string(next),
		ChangedAt: time.Now(),
	}
	if err := s.events.PublishStatusChanged(ctx, event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Int64("order_id", orderID).Msg("failed to publish status event")
	}

	span.AddEvent("order status updated")
	return order, nil
}

// SetEstimatedDelivery 更新预计送达时间。
func (s *OrderApplicationService) SetEstimatedDelivery(ctx context.Context, orderID int64, estimated time.Time) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.SetEstimatedDelivery")
	defer span.End()

	var order *domain.Order
	err := s.txm.Transaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		order.SetEstimatedDelivery(estimated)
		return s.orders.UpdateEstimatedDelivery(ctx, orderID, estimated)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return order, nil
}

// ApplyVouchersToCart 把券码挂到购物车上，只校验与计算折扣，不消耗额度。
func (s *OrderApplicationService) ApplyVouchersToCart(ctx context.Context, userID int64, codes []string) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "order.ApplyVouchersToCart")
	defer span.End()

	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	total := cart.TotalAmount()
	discount, err := s.vouchers.ValidateOnly(ctx, codes, total, domain.RedemptionFact{OrderValue: total})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	cart.VoucherCodes = codes
	cart.DiscountAmount = discount
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveVouchersFromCart 摘除购物车上的全部券码。
func (s *OrderApplicationService) RemoveVouchersFromCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.VoucherCodes = nil
	cart.DiscountAmount = 0
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// GetOrder 按 ID 查询订单。
func (s *OrderApplicationService) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.orders.FindByID(ctx, orderID)
}

// ListOrdersByUser 查询某用户的全部订单。
func (s *OrderApplicationService) ListOrdersByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return s.orders.FindByUser(ctx, userID)
}

// ListOrdersByStatuses 按状态集合查询订单，供运营与配送方使用。
func (s *OrderApplicationService) ListOrdersByStatuses(ctx context.Context, statuses []domain.Status) ([]*domain.Order, error) {
	return s.orders.FindByStatusIn(ctx, statuses)
}

// TotalPurchaseByUser 统计某用户已签收订单的实付总额。
func (s *OrderApplicationService) TotalPurchaseByUser(ctx context.Context, userID int64) (float64, error) {
	return s.orders.TotalPurchaseByUser(ctx, userID)
}

// failureReason 把下单失败的错误归类为指标标签。
func failureReason(err error) string {
	var (
		oos        *domain.OutOfStockError
		transition *domain.InvalidTransitionError
	)
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrCartNotFound):
		return "cart_not_found"
	case errors.As(err, &oos):
		return "out_of_stock"
	case errors.As(err, &transition):
		return "invalid_transition"
	case isVoucherRejection(err):
		return "voucher_rejected"
	default:
		return "internal"
	}
}
