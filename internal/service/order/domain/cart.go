// internal/service/order/domain/cart.go
package domain

// CartItem 是购物车行项目。
type CartItem struct {
	ProductID   int64
	ProductName string
	Quantity    int
	TotalPrice  float64
}

// Cart 是用户的购物车。
// 券码只以值的形式挂在购物车上，下单时显式读取并移交给订单，
// 不维护购物车与券之间的双向关联。
type Cart struct {
	ID     int64
	UserID int64

	Items []CartItem

	VoucherCodes   []string
	DiscountAmount float64
}

// TotalAmount 计算购物车行项目合计。
func (c *Cart) TotalAmount() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += item.TotalPrice
	}
	return total
}

// IsEmpty 判断购物车是否为空。
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
