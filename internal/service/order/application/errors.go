// internal/service/order/application/errors.go
package application

import (
	"github.com/pkg/errors"

	promotion "primeshop/internal/service/promotion/domain"
)

// isVoucherRejection 判断错误是否属于券台账的业务拒绝。
func isVoucherRejection(err error) bool {
	return errors.Is(err, promotion.ErrVoucherNotFound) ||
		errors.Is(err, promotion.ErrVoucherInvalid) ||
		errors.Is(err, promotion.ErrVoucherExpired) ||
		errors.Is(err, promotion.ErrVoucherUsageExhausted) ||
		errors.Is(err, promotion.ErrVoucherMinOrderNotMet) ||
		errors.Is(err, promotion.ErrVoucherNotApplicable)
}
