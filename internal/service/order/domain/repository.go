// internal/service/order/domain/repository.go
package domain

import (
	"context"
	"time"
)

// OrderRepository 是订单的仓储端口。
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id int64) (*Order, error)
	// FindByIDForUpdate 在当前事务内以行锁读取订单，
	// 状态流转必须通过它重读当前状态，避免并发流转互相覆盖。
	FindByIDForUpdate(ctx context.Context, id int64) (*Order, error)
	FindByUser(ctx context.Context, userID int64) ([]*Order, error)
	FindByStatusIn(ctx context.Context, statuses []Status) ([]*Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	UpdateEstimatedDelivery(ctx context.Context, id int64, estimated time.Time) error
	Count(ctx context.Context) (int64, error)
	// TotalPurchaseByUser 统计某用户所有已签收订单的实付总额。
	TotalPurchaseByUser(ctx context.Context, userID int64) (float64, error)
}

// ProductRepository 是商品库存的仓储端口。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (*Product, error)
	// DecrementStock 以原子条件更新扣减库存：
	//
	//   UPDATE products SET stock = stock - ?, sold = sold + ?
	//   WHERE id = ? AND stock >= ?
	//
	// 返回 false 表示库存不足，一行都不会被修改。
	DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error)
	// Restock 回补库存，用于订单取消。
	Restock(ctx context.Context, productID int64, quantity int) error
}

// CartRepository 是购物车的仓储端口。FindByUser 需要带出行项目。
type CartRepository interface {
	FindByUser(ctx context.Context, userID int64) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	// Clear 清空购物车的行项目、折扣与券码关联。
	Clear(ctx context.Context, cartID int64) error
}

// TxManager 在一个数据库事务内执行 fn。
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// RedemptionFact 是核销时移交给券台账的订单事实。
type RedemptionFact struct {
	OrderValue  float64
	ProductIDs  []int64
	CategoryIDs []int64
}

// VoucherRedeemer 是券台账的防腐端口：整批核销，全部成功或全部失败。
// 实现方必须加入 ctx 中已有的事务，保证核销与下单一起提交或回滚。
type VoucherRedeemer interface {
	Redeem(ctx context.Context, codes []string, orderValue float64, fact RedemptionFact) ([]AppliedVoucher, error)
	// ValidateOnly 只校验并计算折扣，不消耗使用次数，用于购物车挂券。
	ValidateOnly(ctx context.Context, codes []string, orderValue float64, fact RedemptionFact) (float64, error)
}

// StatusEventProducer 发布状态流转事件。
type StatusEventProducer interface {
	PublishStatusChanged(ctx context.Context, event *OrderStatusChanged) error
}
