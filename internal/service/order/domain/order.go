// internal/service/order/domain/order.go
package domain

import (
	"math"
	"time"
)

// OrderItem 是订单行项目。订单创建后行项目不再变化，
// 取消订单通过独立的库存回补实现，不会改写行项目。
type OrderItem struct {
	ProductID   int64
	ProductName string
	Quantity    int
	TotalPrice  float64
}

// ShippingInfo 是收货信息。
type ShippingInfo struct {
	FullName    string
	PhoneNumber string
	Address     string
	Note        string
}

// AppliedVoucher 记录订单上生效的一张券及其贡献的折扣额。
// 下单时从券台账一次性计算好传入，订单不反向关联券的可变状态。
type AppliedVoucher struct {
	VoucherID int64
	Code      string
	Discount  float64
}

// Order 是订单聚合根。
type Order struct {
	ID     int64
	UserID int64

	Items []OrderItem

	TotalAmount    float64 // 折扣前的行项目合计
	DiscountAmount float64 // 各券折扣之和（已封顶）
	FinalAmount    float64 // max(TotalAmount - DiscountAmount, 0)

	Vouchers []AppliedVoucher

	Status   Status
	Shipping ShippingInfo

	EstimatedDeliveryDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	Deleted   bool
}

// NewOrder 是订单的工厂函数。订单总是以 PENDING 状态创建。
func NewOrder(userID int64, items []OrderItem, shipping ShippingInfo, vouchers []AppliedVoucher, totalAmount, discountAmount float64) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	now := time.Now()
	return &Order{
		UserID:         userID,
		Items:          items,
		TotalAmount:    totalAmount,
		DiscountAmount: discountAmount,
		FinalAmount:    math.Max(totalAmount-discountAmount, 0),
		Vouchers:       vouchers,
		Status:         StatusPending,
		Shipping:       shipping,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// TransitionTo 校验并执行一次状态流转。
// 非法流转返回 InvalidTransitionError，订单保持原状态。
// 本方法只负责状态本身；库存回补、退款等副作用由上层协作方触发。
func (o *Order) TransitionTo(next Status) error {
	if !o.Status.CanTransitionTo(next) {
		return &InvalidTransitionError{From: o.Status, To: next}
	}
	o.Status = next
	o.UpdatedAt = time.Now()
	return nil
}

// SetEstimatedDelivery 更新预计送达时间。
func (o *Order) SetEstimatedDelivery(t time.Time) {
	o.EstimatedDeliveryDate = &t
	o.UpdatedAt = time.Now()
}
