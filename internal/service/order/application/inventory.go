// internal/service/order/application/inventory.go
package application

import (
	"context"

	"github.com/pkg/errors"

	"primeshop/internal/pkg/logger"
	"primeshop/internal/service/order/domain"
)

// InventoryReserver 负责下单时的同步库存预留：逐个行项目做条件扣减，
// 任何一个商品不足即返回错误。它必须在下单事务内被调用，
// 失败时已完成的扣减随事务一起回滚，不会留下部分扣减。
type InventoryReserver struct {
	products domain.ProductRepository
}

// NewInventoryReserver 创建库存预留组件。
func NewInventoryReserver(products domain.ProductRepository) *InventoryReserver {
	return &InventoryReserver{products: products}
}

// Reserve 为一批行项目扣减库存。库存不足时返回 OutOfStockError，指明商品。
func (r *InventoryReserver) Reserve(ctx context.Context, items []domain.OrderItem) error {
	for _, item := range items {
		ok, err := r.products.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return errors.Wrapf(err, "decrement stock of product %d", item.ProductID)
		}
		if ok {
			continue
		}

		// 条件更新失败，重读一次拿到当前库存用于报错
		product, err := r.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return errors.Wrapf(err, "product %d unavailable", item.ProductID)
		}
		return &domain.OutOfStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   item.Quantity,
			Available:   product.Stock,
		}
	}
	return nil
}

// Restock 回补一批行项目的库存，用于订单取消。
func (r *InventoryReserver) Restock(ctx context.Context, items []domain.OrderItem) error {
	for _, item := range items {
		if err := r.products.Restock(ctx, item.ProductID, item.Quantity); err != nil {
			return errors.Wrapf(err, "restock product %d", item.ProductID)
		}
		logger.Ctx(ctx).Info().
			Int64("product_id", item.ProductID).
			Int("quantity", item.Quantity).
			Msg("stock restored")
	}
	return nil
}
