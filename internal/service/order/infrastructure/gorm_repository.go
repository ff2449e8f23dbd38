// internal/service/order/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"primeshop/internal/pkg/database"
	"primeshop/internal/service/order/domain"
)

// GormOrderRepository 是 domain.OrderRepository 的 GORM 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) conn(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.db).WithContext(ctx)
}

// Save 插入订单及其行项目、券快照。
func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	model := FromDomainOrder(order)
	if err := r.conn(ctx).Create(model).Error; err != nil {
		return errors.Wrap(err, "save order")
	}
	order.ID = model.ID
	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	var model OrderModel
	err := r.conn(ctx).
		Preload("Items").Preload("Vouchers").
		Where("deleted = ?", false).
		First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "find order by id")
	}
	return ToDomainOrder(&model), nil
}

// FindByIDForUpdate 以 SELECT ... FOR UPDATE 读取订单行。
// 并发的状态流转请求在这把行锁上串行化。
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	var model OrderModel
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").Preload("Vouchers").
		Where("deleted = ?", false).
		First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "find order for update")
	}
	return ToDomainOrder(&model), nil
}

func (r *GormOrderRepository) FindByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	var models []*OrderModel
	err := r.conn(ctx).
		Preload("Items").Preload("Vouchers").
		Where("user_id = ? AND deleted = ?", userID, false).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "find orders by user")
	}
	return toDomainOrders(models), nil
}

func (r *GormOrderRepository) FindByStatusIn(ctx context.Context, statuses []domain.Status) ([]*domain.Order, error) {
	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}
	var models []*OrderModel
	err := r.conn(ctx).
		Preload("Items").Preload("Vouchers").
		Where("status IN ? AND deleted = ?", raw, false).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "find orders by status")
	}
	return toDomainOrders(models), nil
}

func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	err := r.conn(ctx).Model(&OrderModel{}).
		Where("id = ?", id).
		Update("status", string(status)).Error
	return errors.Wrap(err, "update order status")
}

func (r *GormOrderRepository) UpdateEstimatedDelivery(ctx context.Context, id int64, estimated time.Time) error {
	err := r.conn(ctx).Model(&OrderModel{}).
		Where("id = ?", id).
		Update("estimated_delivery_date", estimated).Error
	return errors.Wrap(err, "update estimated delivery")
}

func (r *GormOrderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&OrderModel{}).Where("deleted = ?", false).Count(&count).Error
	return count, errors.Wrap(err, "count orders")
}

func (r *GormOrderRepository) TotalPurchaseByUser(ctx context.Context, userID int64) (float64, error) {
	var total float64
	err := r.conn(ctx).Model(&OrderModel{}).
		Select("COALESCE(SUM(final_amount), 0)").
		Where("user_id = ? AND status = ? AND deleted = ?", userID, string(domain.StatusDelivered), false).
		Scan(&total).Error
	return total, errors.Wrap(err, "total purchase by user")
}

func toDomainOrders(models []*OrderModel) []*domain.Order {
	orders := make([]*domain.Order, len(models))
	for i, m := range models {
		orders[i] = ToDomainOrder(m)
	}
	return orders
}

// GormProductRepository 是 domain.ProductRepository 的 GORM 实现。
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) conn(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *GormProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	var model ProductModel
	if err := r.conn(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, errors.Wrap(err, "find product by id")
	}
	return ToDomainProduct(&model), nil
}

// DecrementStock 以原子条件更新扣减库存。
// 库存条件写在 WHERE 中，并发扣减在行锁上串行化；
// 受影响行数为 0 即库存不足，数据不会被改动。
func (r *GormProductRepository) DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	result := r.conn(ctx).Model(&ProductModel{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumns(map[string]interface{}{
			"stock": gorm.Expr("stock - ?", quantity),
			"sold":  gorm.Expr("sold + ?", quantity),
		})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "decrement stock")
	}
	return result.RowsAffected == 1, nil
}

func (r *GormProductRepository) Restock(ctx context.Context, productID int64, quantity int) error {
	err := r.conn(ctx).Model(&ProductModel{}).
		Where("id = ?", productID).
		UpdateColumns(map[string]interface{}{
			"stock": gorm.Expr("stock + ?", quantity),
			"sold":  gorm.Expr("sold - ?", quantity),
		}).Error
	return errors.Wrap(err, "restock product")
}

// GormCartRepository 是 domain.CartRepository 的 GORM 实现。
type GormCartRepository struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) conn(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *GormCartRepository) FindByUser(ctx context.Context, userID int64) (*domain.Cart, error) {
	var model CartModel
	err := r.conn(ctx).Preload("Items").Where("user_id = ?", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCartNotFound
		}
		return nil, errors.Wrap(err, "find cart by user")
	}
	return ToDomainCart(&model), nil
}

func (r *GormCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	err := r.conn(ctx).Model(&CartModel{}).
		Where("id = ?", cart.ID).
		Updates(map[string]interface{}{
			"voucher_codes":   strings.Join(cart.VoucherCodes, ","),
			"discount_amount": cart.DiscountAmount,
		}).Error
	return errors.Wrap(err, "save cart")
}

// Clear 清空购物车：删除行项目，摘除券码与折扣。
func (r *GormCartRepository) Clear(ctx context.Context, cartID int64) error {
	if err := r.conn(ctx).Where("cart_id = ?", cartID).Delete(&CartItemModel{}).Error; err != nil {
		return errors.Wrap(err, "clear cart items")
	}
	err := r.conn(ctx).Model(&CartModel{}).
		Where("id = ?", cartID).
		Updates(map[string]interface{}{
			"voucher_codes":   "",
			"discount_amount": 0,
		}).Error
	return errors.Wrap(err, "reset cart")
}
