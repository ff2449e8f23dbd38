// internal/service/promotion/domain/errors.go
package domain

import "errors"

// 优惠券领域的哨兵错误。接口层通过 errors.Is 映射为 HTTP 状态码，
// 核销逻辑通过 errors.Wrapf 在外层附加具体的券码信息。
var (
	ErrVoucherNotFound       = errors.New("voucher not found or inactive")
	ErrVoucherInvalid        = errors.New("voucher is not valid")
	ErrVoucherExpired        = errors.New("voucher has expired")
	ErrVoucherUsageExhausted = errors.New("voucher usage limit reached")
	ErrVoucherMinOrderNotMet = errors.New("order value below voucher minimum")
	ErrVoucherNotApplicable  = errors.New("voucher not applicable to this order")
	ErrVoucherCodeTaken      = errors.New("voucher code already exists")
)
