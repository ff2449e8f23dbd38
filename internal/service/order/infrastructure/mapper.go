// internal/service/order/infrastructure/mapper.go
package infrastructure

import (
	"strings"

	"primeshop/internal/service/order/domain"
)

// ToDomainOrder 将数据库模型转换为领域模型。
func ToDomainOrder(model *OrderModel) *domain.Order {
	if model == nil {
		return nil
	}
	items := make([]domain.OrderItem, len(model.Items))
	for i, m := range model.Items {
		items[i] = domain.OrderItem{
			ProductID:   m.ProductID,
			ProductName: m.ProductName,
			Quantity:    m.Quantity,
			TotalPrice:  m.TotalPrice,
		}
	}
	vouchers := make([]domain.AppliedVoucher, len(model.Vouchers))
	for i, m := range model.Vouchers {
		vouchers[i] = domain.AppliedVoucher{
			VoucherID: m.VoucherID,
			Code:      m.Code,
			Discount:  m.Discount,
		}
	}
	return &domain.Order{
		ID:             model.ID,
		UserID:         model.UserID,
		Items:          items,
		TotalAmount:    model.TotalAmount,
		DiscountAmount: model.DiscountAmount,
		FinalAmount:    model.FinalAmount,
		Vouchers:       vouchers,
		Status:         domain.Status(model.Status),
		Shipping: domain.ShippingInfo{
			FullName:    model.FullName,
			PhoneNumber: model.PhoneNumber,
			Address:     model.Address,
			Note:        model.Note,
		},
		EstimatedDeliveryDate: model.EstimatedDeliveryDate,
		CreatedAt:             model.CreatedAt,
		UpdatedAt:             model.UpdatedAt,
		Deleted:               model.Deleted,
	}
}

// FromDomainOrder 将领域模型转换为数据库模型（用于插入）。
func FromDomainOrder(o *domain.Order) *OrderModel {
	if o == nil {
		return nil
	}
	items := make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemModel{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			TotalPrice:  item.TotalPrice,
		}
	}
	vouchers := make([]OrderVoucherModel, len(o.Vouchers))
	for i, v := range o.Vouchers {
		vouchers[i] = OrderVoucherModel{
			VoucherID: v.VoucherID,
			Code:      v.Code,
			Discount:  v.Discount,
		}
	}
	return &OrderModel{
		ID:                    o.ID,
		UserID:                o.UserID,
		TotalAmount:           o.TotalAmount,
		DiscountAmount:        o.DiscountAmount,
		FinalAmount:           o.FinalAmount,
		Status:                string(o.Status),
		FullName:              o.Shipping.FullName,
		PhoneNumber:           o.Shipping.PhoneNumber,
		Address:               o.Shipping.Address,
		Note:                  o.Shipping.Note,
		EstimatedDeliveryDate: o.EstimatedDeliveryDate,
		Deleted:               o.Deleted,
		Items:                 items,
		Vouchers:              vouchers,
	}
}

// ToDomainProduct 将数据库模型转换为领域模型。
func ToDomainProduct(model *ProductModel) *domain.Product {
	if model == nil {
		return nil
	}
	return &domain.Product{
		ID:         model.ID,
		Name:       model.Name,
		CategoryID: model.CategoryID,
		Price:      model.Price,
		Stock:      model.Stock,
		Sold:       model.Sold,
	}
}

// ToDomainCart 将数据库模型转换为领域模型。
func ToDomainCart(model *CartModel) *domain.Cart {
	if model == nil {
		return nil
	}
	items := make([]domain.CartItem, len(model.Items))
	for i, m := range model.Items {
		items[i] = domain.CartItem{
			ProductID:   m.ProductID,
			ProductName: m.ProductName,
			Quantity:    m.Quantity,
			TotalPrice:  m.TotalPrice,
		}
	}
	var codes []string
	if model.VoucherCodes != "" {
		codes = strings.Split(model.VoucherCodes, ",")
	}
	return &domain.Cart{
		ID:             model.ID,
		UserID:         model.UserID,
		Items:          items,
		VoucherCodes:   codes,
		DiscountAmount: model.DiscountAmount,
	}
}
