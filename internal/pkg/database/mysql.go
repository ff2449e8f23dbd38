// internal/pkg/database/mysql.go
package database

import (
	"context"
	"time"

	sqlmysql "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"primeshop/internal/pkg/config"
)

// Open 建立 MySQL 连接并返回 *gorm.DB。
// DSN 通过 go-sql-driver 的 Config 构造，避免手写连接串出错。
func Open(cfg *config.Config) (*gorm.DB, error) {
	dsnCfg := sqlmysql.NewConfig()
	dsnCfg.Net = "tcp"
	dsnCfg.Addr = cfg.MySQL.Addr
	dsnCfg.User = cfg.MySQL.User
	dsnCfg.Passwd = cfg.MySQL.Password
	dsnCfg.DBName = cfg.MySQL.Database
	dsnCfg.ParseTime = true
	dsnCfg.Loc = time.UTC

	db, err := gorm.Open(mysql.Open(dsnCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect mysql")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

type txKey struct{}

// WithTx 将事务句柄写入 context，供同一事务内的各仓储共享。
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// FromContext 从 context 中取出事务句柄；不在事务中时返回 fallback。
func FromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}
