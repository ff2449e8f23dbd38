// internal/service/promotion/application/dto.go
package application

import "time"

// ValidateVoucherRequest 是校验优惠券的请求体。
type ValidateVoucherRequest struct {
	Codes      []string `json:"codes"`
	OrderValue float64  `json:"order_value"`
}

// ValidationResult 是校验优惠券的响应体。
// 校验是只读操作，不会消耗使用次数。
type ValidationResult struct {
	Valid          bool     `json:"valid"`
	Message        string   `json:"message"`
	DiscountAmount float64  `json:"discount_amount"`
	Codes          []string `json:"codes,omitempty"`
}

// CreateVoucherRequest 是管理端创建优惠券的请求体。
type CreateVoucherRequest struct {
	Code             string     `json:"code"`
	DiscountType     string     `json:"discount_type"`
	DiscountValue    float64    `json:"discount_value"`
	MaxDiscountValue *float64   `json:"max_discount_value,omitempty"`
	MinOrderValue    *float64   `json:"min_order_value,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	MaxUsage         *int       `json:"max_usage,omitempty"`
	ScopeRule        string     `json:"scope_rule,omitempty"`
}

// VoucherResponse 是对外暴露的优惠券视图。
type VoucherResponse struct {
	ID             int64      `json:"id"`
	Code           string     `json:"code"`
	DiscountType   string     `json:"discount_type"`
	DiscountValue  float64    `json:"discount_value"`
	MinOrderValue  *float64   `json:"min_order_value,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	MaxUsage       *int       `json:"max_usage,omitempty"`
	CurrentUsage   int        `json:"current_usage"`
	RemainingUsage *int       `json:"remaining_usage,omitempty"`
	IsActive       bool       `json:"is_active"`
}
