// internal/service/order/domain/state.go
package domain

import "github.com/pkg/errors"

// Status 定义了订单的生命周期状态。
type Status string

const (
	StatusPending        Status = "PENDING"         // 等待确认
	StatusConfirmed      Status = "CONFIRMED"       // 已确认，等待支付
	StatusPaid           Status = "PAID"            // 已支付
	StatusPaymentFailed  Status = "PAYMENT_FAILED"  // 支付失败，可重新回到已确认
	StatusProcessing     Status = "PROCESSING"      // 处理中
	StatusInventory      Status = "INVENTORY"       // 仓库备货中
	StatusReadyToShip    Status = "READY_TO_SHIP"   // 备货完成，待发货
	StatusShipping       Status = "SHIPPING"        // 配送中
	StatusShipped        Status = "SHIPPED"         // 已送达收货点
	StatusDelivered      Status = "DELIVERED"       // 买家已签收
	StatusFailedDelivery Status = "FAILED_DELIVERY" // 配送失败（终态）
	StatusCancelled      Status = "CANCELLED"       // 已取消（终态）

	// 以下状态在枚举中保留，但当前的流转表不会到达它们，
	// 售后流程上线前不提供入口。
	StatusReturned  Status = "RETURNED"
	StatusRefunded  Status = "REFUNDED"
	StatusCompleted Status = "COMPLETED"
)

// transitions 是订单状态机的完整流转表。
// 不在表中的流转一律视为非法；CANCELLED 与 FAILED_DELIVERY 没有出边。
var transitions = map[Status][]Status{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusPaid, StatusPaymentFailed, StatusCancelled},
	StatusPaid:           {StatusProcessing, StatusCancelled},
	StatusPaymentFailed:  {StatusConfirmed, StatusCancelled},
	StatusProcessing:     {StatusInventory, StatusCancelled},
	StatusInventory:      {StatusReadyToShip, StatusCancelled},
	StatusReadyToShip:    {StatusShipping, StatusCancelled},
	StatusShipping:       {StatusShipped, StatusCancelled},
	StatusShipped:        {StatusDelivered, StatusCancelled},
	StatusDelivered:      {StatusCancelled},
	StatusCancelled:      {},
	StatusFailedDelivery: {},
}

// CanTransitionTo 判断从当前状态到 next 的流转是否合法。
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal 判断状态是否为终态（无任何出边）。
func (s Status) IsTerminal() bool {
	_, known := transitions[s]
	return known && len(transitions[s]) == 0
}

// ParseStatus 将外部输入的字符串解析为状态枚举。
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusPending, StatusConfirmed, StatusPaid, StatusPaymentFailed,
		StatusProcessing, StatusInventory, StatusReadyToShip, StatusShipping,
		StatusShipped, StatusDelivered, StatusFailedDelivery, StatusCancelled,
		StatusReturned, StatusRefunded, StatusCompleted:
		return s, nil
	default:
		return "", errors.Errorf("unknown order status: %q", raw)
	}
}
