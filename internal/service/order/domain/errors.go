// internal/service/order/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// 订单领域的哨兵错误。
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrCartNotFound    = errors.New("cart not found")
	ErrEmptyCart       = errors.New("no items in cart to order")
	ErrProductNotFound = errors.New("product not found")
)

// OutOfStockError 表示某个商品库存不足，错误信息中指明是哪个商品。
type OutOfStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %q (id=%d) is out of stock: requested %d, available %d",
		e.ProductName, e.ProductID, e.Requested, e.Available)
}

// InvalidTransitionError 表示一次非法的状态流转请求。
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}
