// internal/service/order/domain/event.go
package domain

import "time"

// OrderStatusChanged 是状态流转成功后发布的领域事件。
// 库存回补、通知推送等副作用由订阅方各自处理。
type OrderStatusChanged struct {
	OrderID   int64     `json:"order_id"`
	UserID    int64     `json:"user_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}
