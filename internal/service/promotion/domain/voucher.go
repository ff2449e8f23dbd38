// internal/service/promotion/domain/voucher.go
package domain

import (
	"math"
	"time"
)

// DiscountType 定义了优惠券的折扣类型。
type DiscountType string

const (
	DiscountTypePercent  DiscountType = "PERCENT"  // 按订单金额百分比折扣
	DiscountTypeFixed    DiscountType = "FIXED"    // 固定金额立减
	DiscountTypeFreeship DiscountType = "FREESHIP" // 免运费（运费不在本核心内计算，折扣金额为 0）
)

// Voucher 是优惠券聚合根。
// CurrentUsage 只允许通过仓储层的条件自增来推进（见 VoucherRepository.RedeemOnce），
// 领域对象上不提供自增方法，避免内存中读改写造成的并发超发。
type Voucher struct {
	ID            int64
	Code          string
	DiscountType  DiscountType
	DiscountValue float64

	// MaxDiscountValue 是 PERCENT 类型的封顶金额，nil 表示不封顶
	MaxDiscountValue *float64
	// MinOrderValue 是使用门槛，nil 表示无门槛
	MinOrderValue *float64

	StartDate *time.Time
	EndDate   *time.Time

	// MaxUsage 为 nil 表示不限次数
	MaxUsage     *int
	CurrentUsage int

	IsActive bool

	// ScopeRule 是可选的适用范围规则（CEL 表达式），
	// 为空表示对所有订单生效。由 RuleEngine 在核销时评估。
	ScopeRule string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsValid 判断优惠券在给定时间点是否有效。
func (v *Voucher) IsValid(now time.Time) bool {
	if !v.IsActive {
		return false
	}
	if v.StartDate != nil && now.Before(*v.StartDate) {
		return false
	}
	if v.EndDate != nil && now.After(*v.EndDate) {
		return false
	}
	return v.HasRemainingUsage()
}

// IsExpired 判断是否已过有效期。
func (v *Voucher) IsExpired(now time.Time) bool {
	return v.EndDate != nil && now.After(*v.EndDate)
}

// HasRemainingUsage 判断是否还有剩余使用额度。
func (v *Voucher) HasRemainingUsage() bool {
	if v.MaxUsage == nil {
		return true
	}
	return v.CurrentUsage < *v.MaxUsage
}

// RemainingUsage 返回剩余可用次数；不限次数时返回 nil。
func (v *Voucher) RemainingUsage() *int {
	if v.MaxUsage == nil {
		return nil
	}
	left := *v.MaxUsage - v.CurrentUsage
	if left < 0 {
		left = 0
	}
	return &left
}

// MeetsMinOrderValue 判断订单金额是否达到使用门槛。
func (v *Voucher) MeetsMinOrderValue(orderValue float64) bool {
	return v.MinOrderValue == nil || orderValue >= *v.MinOrderValue
}

// CanApply 判断优惠券是否可以用于给定金额的订单。
func (v *Voucher) CanApply(orderValue float64, now time.Time) bool {
	return v.IsValid(now) && v.MeetsMinOrderValue(orderValue)
}

// DiscountFor 是纯函数：计算该券对给定订单金额的折扣额。
// 不可用时返回 0；FIXED 不会超过订单金额；PERCENT 受封顶金额约束。
func (v *Voucher) DiscountFor(orderValue float64, now time.Time) float64 {
	if orderValue <= 0 || !v.CanApply(orderValue, now) {
		return 0
	}

	switch v.DiscountType {
	case DiscountTypePercent:
		discount := orderValue * v.DiscountValue / 100
		if v.MaxDiscountValue != nil {
			discount = math.Min(discount, *v.MaxDiscountValue)
		}
		return discount
	case DiscountTypeFixed:
		return math.Min(v.DiscountValue, orderValue)
	case DiscountTypeFreeship:
		return 0
	default:
		return 0
	}
}

// TotalDiscount 计算多张券叠加后的总折扣。
// 每张券独立按照折扣前总额计算，相加后整体封顶在订单金额，
// 保证订单实付金额不会为负。
func TotalDiscount(vouchers []*Voucher, orderValue float64, now time.Time) float64 {
	total := 0.0
	for _, v := range vouchers {
		total += v.DiscountFor(orderValue, now)
	}
	return math.Min(total, orderValue)
}
