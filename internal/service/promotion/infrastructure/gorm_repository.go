// internal/service/promotion/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"primeshop/internal/pkg/database"
	"primeshop/internal/service/promotion/domain"
)

// GormVoucherRepository 是 domain.VoucherRepository 的 GORM 实现。
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewGormVoucherRepository 创建一个新的仓储实例。
func NewGormVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

func (r *GormVoucherRepository) conn(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.db).WithContext(ctx)
}

// FindByID 按主键查找。
func (r *GormVoucherRepository) FindByID(ctx context.Context, id int64) (*domain.Voucher, error) {
	var model VoucherModel
	if err := r.conn(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVoucherNotFound
		}
		return nil, errors.Wrap(err, "find voucher by id")
	}
	return ToDomainVoucher(&model), nil
}

// FindByCode 按券码查找，不区分是否启用。
func (r *GormVoucherRepository) FindByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	var model VoucherModel
	err := r.conn(ctx).Where("code = ?", code).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVoucherNotFound
		}
		return nil, errors.Wrap(err, "find voucher by code")
	}
	return ToDomainVoucher(&model), nil
}

// FindActiveByCode 只查找启用中的券。
func (r *GormVoucherRepository) FindActiveByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	var model VoucherModel
	err := r.conn(ctx).Where("code = ? AND is_active = ?", code, true).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVoucherNotFound
		}
		return nil, errors.Wrap(err, "find active voucher by code")
	}
	return ToDomainVoucher(&model), nil
}

// FindActive 返回全部启用中的券。
func (r *GormVoucherRepository) FindActive(ctx context.Context) ([]*domain.Voucher, error) {
	var models []*VoucherModel
	if err := r.conn(ctx).Where("is_active = ?", true).Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list active vouchers")
	}
	vouchers := make([]*domain.Voucher, len(models))
	for i, m := range models {
		vouchers[i] = ToDomainVoucher(m)
	}
	return vouchers, nil
}

// Create 插入新券。
func (r *GormVoucherRepository) Create(ctx context.Context, voucher *domain.Voucher) error {
	model := FromDomainVoucher(voucher)
	if err := r.conn(ctx).Create(model).Error; err != nil {
		return errors.Wrap(err, "create voucher")
	}
	voucher.ID = model.ID
	voucher.CreatedAt = model.CreatedAt
	voucher.UpdatedAt = model.UpdatedAt
	return nil
}

// Save 更新券的可编辑字段。UsedCount 不在此处更新，只能通过 RedeemOnce 推进。
func (r *GormVoucherRepository) Save(ctx context.Context, voucher *domain.Voucher) error {
	updates := map[string]interface{}{
		"discount_type":      string(voucher.DiscountType),
		"discount_value":     voucher.DiscountValue,
		"max_discount_value": voucher.MaxDiscountValue,
		"min_order_value":    voucher.MinOrderValue,
		"start_date":         voucher.StartDate,
		"end_date":           voucher.EndDate,
		"max_usage":          voucher.MaxUsage,
		"is_active":          voucher.IsActive,
		"scope_rule":         voucher.ScopeRule,
	}
	err := r.conn(ctx).Model(&VoucherModel{}).Where("id = ?", voucher.ID).Updates(updates).Error
	return errors.Wrap(err, "save voucher")
}

// RedeemOnce 以原子条件更新消耗一个使用额度。
// 条件写在 WHERE 中而不是先读后写，并发请求在行锁上串行化，
// 通过受影响行数判断额度是否真的被本次请求拿到。
func (r *GormVoucherRepository) RedeemOnce(ctx context.Context, id int64) (bool, error) {
	result := r.conn(ctx).Model(&VoucherModel{}).
		Where("id = ? AND is_active = ?", id, true).
		Where("max_usage IS NULL OR used_count < max_usage").
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "increment voucher usage")
	}
	return result.RowsAffected == 1, nil
}
