// internal/pkg/database/tx.go
package database

import (
	"context"

	"gorm.io/gorm"
)

// TxManager 基于 gorm 实现事务边界。
// 如果 ctx 已经处于某个事务中则直接加入，不会开启嵌套事务，
// 这样订单装配过程中对券台账的调用能与下单共用同一个事务。
type TxManager struct {
	db *gorm.DB
}

// NewTxManager 创建事务管理器。
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Transaction 在事务内执行 fn；fn 返回错误时回滚，否则提交。
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}

// InTx 判断 ctx 是否已携带事务句柄。
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}
