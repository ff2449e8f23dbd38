// internal/service/promotion/infrastructure/mapper.go
package infrastructure

import (
	"primeshop/internal/service/promotion/domain"
)

// ToDomainVoucher 将数据库模型转换为领域模型。
func ToDomainVoucher(model *VoucherModel) *domain.Voucher {
	if model == nil {
		return nil
	}
	return &domain.Voucher{
		ID:               model.ID,
		Code:             model.Code,
		DiscountType:     domain.DiscountType(model.DiscountType),
		DiscountValue:    model.DiscountValue,
		MaxDiscountValue: model.MaxDiscountValue,
		MinOrderValue:    model.MinOrderValue,
		StartDate:        model.StartDate,
		EndDate:          model.EndDate,
		MaxUsage:         model.MaxUsage,
		CurrentUsage:     model.UsedCount,
		IsActive:         model.IsActive,
		ScopeRule:        model.ScopeRule,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// FromDomainVoucher 将领域模型转换为数据库模型。
func FromDomainVoucher(v *domain.Voucher) *VoucherModel {
	if v == nil {
		return nil
	}
	return &VoucherModel{
		ID:               v.ID,
		Code:             v.Code,
		DiscountType:     string(v.DiscountType),
		DiscountValue:    v.DiscountValue,
		MaxDiscountValue: v.MaxDiscountValue,
		MinOrderValue:    v.MinOrderValue,
		StartDate:        v.StartDate,
		EndDate:          v.EndDate,
		MaxUsage:         v.MaxUsage,
		UsedCount:        v.CurrentUsage,
		IsActive:         v.IsActive,
		ScopeRule:        v.ScopeRule,
	}
}
