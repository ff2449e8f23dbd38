// internal/service/order/application/dto.go
package application

import (
	"time"

	"primeshop/internal/service/order/domain"
)

// CreateOrderRequest 是创建订单的请求体。
// 操作主体（用户）通过显式参数传入应用服务，不放在请求体里。
type CreateOrderRequest struct {
	FullName     string   `json:"full_name"`
	PhoneNumber  string   `json:"phone_number"`
	Address      string   `json:"address"`
	Note         string   `json:"note,omitempty"`
	VoucherCodes []string `json:"voucher_codes,omitempty"`
}

// OrderItemResponse 是订单行项目视图。
type OrderItemResponse struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	TotalPrice  float64 `json:"total_price"`
}

// OrderResponse 是订单视图。
type OrderResponse struct {
	ID                    int64               `json:"id"`
	UserID                int64               `json:"user_id"`
	Items                 []OrderItemResponse `json:"items"`
	TotalAmount           float64             `json:"total_amount"`
	DiscountAmount        float64             `json:"discount_amount"`
	FinalAmount           float64             `json:"final_amount"`
	VoucherCodes          []string            `json:"voucher_codes,omitempty"`
	Status                string              `json:"status"`
	FullName              string              `json:"full_name"`
	PhoneNumber           string              `json:"phone_number"`
	Address               string              `json:"address"`
	Note                  string              `json:"note,omitempty"`
	EstimatedDeliveryDate *time.Time          `json:"estimated_delivery_date,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// ToOrderResponse 将领域对象转换为对外视图。
func ToOrderResponse(o *domain.Order) *OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			TotalPrice:  item.TotalPrice,
		}
	}
	codes := make([]string, len(o.Vouchers))
	for i, v := range o.Vouchers {
		codes[i] = v.Code
	}
	return &OrderResponse{
		ID:                    o.ID,
		UserID:                o.UserID,
		Items:                 items,
		TotalAmount:           o.TotalAmount,
		DiscountAmount:        o.DiscountAmount,
		FinalAmount:           o.FinalAmount,
		VoucherCodes:          codes,
		Status:                string(o.Status),
		FullName:              o.Shipping.FullName,
		PhoneNumber:           o.Shipping.PhoneNumber,
		Address:               o.Shipping.Address,
		Note:                  o.Shipping.Note,
		EstimatedDeliveryDate: o.EstimatedDeliveryDate,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
}
