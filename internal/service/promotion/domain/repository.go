// internal/service/promotion/domain/repository.go
package domain

import "context"

// VoucherRepository 是优惠券的仓储端口。
type VoucherRepository interface {
	FindByID(ctx context.Context, id int64) (*Voucher, error)
	FindByCode(ctx context.Context, code string) (*Voucher, error)
	// FindActiveByCode 只查找 is_active 的券，找不到时返回 ErrVoucherNotFound。
	FindActiveByCode(ctx context.Context, code string) (*Voucher, error)
	FindActive(ctx context.Context) ([]*Voucher, error)
	Create(ctx context.Context, voucher *Voucher) error
	Save(ctx context.Context, voucher *Voucher) error

	// RedeemOnce 以原子条件更新的方式把使用次数加一：
	//
	//   UPDATE vouchers SET used_count = used_count + 1
	//   WHERE id = ? AND is_active = 1
	//     AND (max_usage IS NULL OR used_count < max_usage)
	//
	// 返回 false 表示条件不满足（额度已被并发请求用完），调用方据此失败。
	// 两个并发请求争抢最后一个额度时，数据库行锁保证恰好一个返回 true。
	RedeemOnce(ctx context.Context, id int64) (bool, error)
}

// Fact 是规则引擎评估适用范围时可见的订单事实。
type Fact struct {
	OrderValue  float64 `json:"orderValue"`
	ProductIDs  []int64 `json:"productIds"`
	CategoryIDs []int64 `json:"categoryIds"`
}

// RuleEngine 评估券上配置的适用范围规则。
// 规则为空串时调用方应跳过评估，直接视为适用。
type RuleEngine interface {
	Evaluate(rule string, fact Fact) (bool, error)
}
