// internal/service/order/infrastructure/gorm_model.go
package infrastructure

import "time"

// OrderModel 对应数据库中的 orders 表。
// 订单只做软删除，Deleted 置位后普通查询不再返回。
type OrderModel struct {
	ID             int64 `gorm:"primaryKey;autoIncrement"`
	UserID         int64 `gorm:"index;not null"`
	TotalAmount    float64
	DiscountAmount float64
	FinalAmount    float64
	Status         string `gorm:"size:32;index;not null"`

	FullName    string `gorm:"size:128"`
	PhoneNumber string `gorm:"size:32"`
	Address     string `gorm:"size:255"`
	Note        string `gorm:"size:255"`

	EstimatedDeliveryDate *time.Time

	Deleted   bool `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items    []OrderItemModel    `gorm:"foreignKey:OrderID"`
	Vouchers []OrderVoucherModel `gorm:"foreignKey:OrderID"`
}

func (OrderModel) TableName() string { return "orders" }

// OrderItemModel 对应 order_items 表。
type OrderItemModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	OrderID     int64  `gorm:"index;not null"`
	ProductID   int64  `gorm:"not null"`
	ProductName string `gorm:"size:255"`
	Quantity    int
	TotalPrice  float64
}

func (OrderItemModel) TableName() string { return "order_items" }

// OrderVoucherModel 对应 order_vouchers 表，
// 记录订单上生效的券及其当时贡献的折扣额（值快照，不回指券的可变状态）。
type OrderVoucherModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	OrderID   int64  `gorm:"index;not null"`
	VoucherID int64  `gorm:"not null"`
	Code      string `gorm:"size:64;not null"`
	Discount  float64
}

func (OrderVoucherModel) TableName() string { return "order_vouchers" }

// ProductModel 对应 products 表的库存切面。
type ProductModel struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	Name       string `gorm:"size:255"`
	CategoryID int64  `gorm:"index"`
	Price      float64
	Stock      int `gorm:"not null;default:0"`
	Sold       int `gorm:"not null;default:0"`
}

func (ProductModel) TableName() string { return "products" }

// CartModel 对应 carts 表。券码以逗号拼接存储，值传递给订单。
type CartModel struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	UserID         int64  `gorm:"uniqueIndex;not null"`
	VoucherCodes   string `gorm:"size:512"`
	DiscountAmount float64
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Items []CartItemModel `gorm:"foreignKey:CartID"`
}

func (CartModel) TableName() string { return "carts" }

// CartItemModel 对应 cart_items 表。
type CartItemModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	CartID      int64  `gorm:"index;not null"`
	ProductID   int64  `gorm:"not null"`
	ProductName string `gorm:"size:255"`
	Quantity    int
	TotalPrice  float64
}

func (CartItemModel) TableName() string { return "cart_items" }
