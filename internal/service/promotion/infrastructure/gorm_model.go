// internal/service/promotion/infrastructure/gorm_model.go
package infrastructure

import (
	"time"
)

// VoucherModel 对应数据库中的 vouchers 表。
type VoucherModel struct {
	ID               int64  `gorm:"primaryKey;autoIncrement"`
	Code             string `gorm:"uniqueIndex;size:64;not null"`
	DiscountType     string `gorm:"size:16;not null"`
	DiscountValue    float64
	MaxDiscountValue *float64
	MinOrderValue    *float64
	StartDate        *time.Time
	EndDate          *time.Time
	MaxUsage         *int
	UsedCount        int    `gorm:"not null;default:0"`
	IsActive         bool   `gorm:"not null;default:true"`
	ScopeRule        string `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName 指定 GORM 应该使用的表名。
func (VoucherModel) TableName() string {
	return "vouchers"
}
