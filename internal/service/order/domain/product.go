// internal/service/order/domain/product.go
package domain

// Product 是商品在本核心中承担库存职责的切面。
// Stock 只允许通过仓储层的条件更新增减（见 ProductRepository），
// 保证任何时刻都不会为负。
type Product struct {
	ID         int64
	Name       string
	CategoryID int64
	Price      float64
	Stock      int
	Sold       int
}
