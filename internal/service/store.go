package service

import (
	"context"

	"github.com/example/goshop/internal/repository/sqldb"
)

// TxStore 服务层依赖的存储抽象，*sqldb.Store 即为默认实现；
// 测试中可以包装 InTx 注入故障。
type TxStore interface {
	InTx(ctx context.Context, fn func(r *sqldb.Repos) error) error
	Repos() *sqldb.Repos
}

var _ TxStore = (*sqldb.Store)(nil)
