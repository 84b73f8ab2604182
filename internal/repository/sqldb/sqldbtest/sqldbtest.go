// Package sqldbtest 提供基于 SQLite 临时库的测试辅助函数
package sqldbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/address"
	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/user"
	"github.com/example/goshop/internal/repository/sqldb"
)

// Open 在 t.TempDir() 下创建独立的 SQLite 库并完成建表，测试结束时自动关闭
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "goshop.db") + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sqldb.Open(&config.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         dsn,
		AutoMigrate: true,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close(db) })
	return db
}

// SeedUser 写入一个用户
func SeedUser(t testing.TB, db *gorm.DB, email string) *user.User {
	t.Helper()
	u := &user.User{DisplayName: "tester", Email: email, PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

// SeedProduct 写入商品及库存，price 形如 "9.99"
func SeedProduct(t testing.TB, db *gorm.DB, name, price string, stock int64) *product.Product {
	t.Helper()
	p := &product.Product{Name: name, PricePerUnit: decimal.RequireFromString(price)}
	require.NoError(t, sqldb.NewProductRepository(db).Create(context.Background(), p, stock))
	return p
}

// SeedAddress 为用户保存一个地址
func SeedAddress(t testing.TB, db *gorm.DB, userID int64, a address.Address) *address.SavedAddress {
	t.Helper()
	sa := &address.SavedAddress{UserID: userID, Address: a}
	require.NoError(t, db.Create(sa).Error)
	return sa
}

// HomeAddress 测试用的完整地址
func HomeAddress() address.Address {
	return address.Address{
		Name:       "Ada Lovelace",
		Street:     "12 St James's Square",
		City:       "London",
		State:      "Greater London",
		PostalCode: "SW1Y 4JH",
		Country:    "GB",
	}
}

// CountRows 统计表行数
func CountRows(t testing.TB, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}
