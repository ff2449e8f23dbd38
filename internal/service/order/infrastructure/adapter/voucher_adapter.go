// internal/service/order/infrastructure/adapter/voucher_adapter.go
package adapter

import (
	"context"

	orderdomain "primeshop/internal/service/order/domain"
	"primeshop/internal/service/promotion/application"
	promodomain "primeshop/internal/service/promotion/domain"
)

// VoucherLedgerAdapter 把券台账的应用服务适配为订单领域的 VoucherRedeemer 端口。
// 核销调用发生在下单事务内（ctx 携带事务句柄），
// 券服务的事务管理器会加入同一事务而不是另起一个。
type VoucherLedgerAdapter struct {
	vouchers *application.VoucherService
}

func NewVoucherLedgerAdapter(vouchers *application.VoucherService) *VoucherLedgerAdapter {
	return &VoucherLedgerAdapter{vouchers: vouchers}
}

var _ orderdomain.VoucherRedeemer = (*VoucherLedgerAdapter)(nil)

// Redeem 整批核销。折扣额由券服务在核销时点算好带回，
// 这里只做一次值映射，不再基于核销后的券状态重算。
func (a *VoucherLedgerAdapter) Redeem(ctx context.Context, codes []string, orderValue float64, fact orderdomain.RedemptionFact) ([]orderdomain.AppliedVoucher, error) {
	redeemed, err := a.vouchers.Redeem(ctx, codes, orderValue, toFact(fact))
	if err != nil {
		return nil, err
	}

	applied := make([]orderdomain.AppliedVoucher, len(redeemed))
	for i, r := range redeemed {
		applied[i] = orderdomain.AppliedVoucher{
			VoucherID: r.Voucher.ID,
			Code:      r.Voucher.Code,
			Discount:  r.Discount,
		}
	}
	return applied, nil
}

// ValidateOnly 只校验并计算折扣总额，不消耗使用次数。
func (a *VoucherLedgerAdapter) ValidateOnly(ctx context.Context, codes []string, orderValue float64, fact orderdomain.RedemptionFact) (float64, error) {
	valid, err := a.vouchers.Check(ctx, codes, orderValue, toFact(fact))
	if err != nil {
		return 0, err
	}
	return a.vouchers.TotalDiscount(valid, orderValue), nil
}

func toFact(fact orderdomain.RedemptionFact) promodomain.Fact {
	return promodomain.Fact{
		OrderValue:  fact.OrderValue,
		ProductIDs:  fact.ProductIDs,
		CategoryIDs: fact.CategoryIDs,
	}
}
