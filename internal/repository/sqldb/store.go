package sqldb

import (
	"context"
	"database/sql"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/goshop/internal/datamodels/address"
	"github.com/example/goshop/internal/datamodels/cart"
	"github.com/example/goshop/internal/datamodels/category"
	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/review"
	"github.com/example/goshop/internal/datamodels/user"
)

// Repos 绑定在同一个连接（或同一个事务）上的全部仓储
type Repos struct {
	Cart       cart.Repository
	Addresses  address.Repository
	Orders     order.Repository
	Products   product.Repository
	Inventory  product.InventoryOracle
	Users      user.Repository
	Reviews    review.Repository
	Categories category.Repository
}

// NewRepos 基于给定的 db 构建仓储；传入事务句柄即得到事务内仓储
func NewRepos(db *gorm.DB) *Repos {
	return &Repos{
		Cart:       NewCartRepository(db),
		Addresses:  NewAddressRepository(db),
		Orders:     NewOrderRepository(db),
		Products:   NewProductRepository(db),
		Inventory:  NewInventoryRepository(db),
		Users:      NewUserRepository(db),
		Reviews:    NewReviewRepository(db),
		Categories: NewCategoryRepository(db),
	}
}

// Store 持有连接池并负责开启事务
type Store struct {
	db     *gorm.DB
	txOpts *sql.TxOptions
	repos  *Repos
}

// NewStore isolation 为空时使用数据库默认隔离级别
func NewStore(db *gorm.DB, isolation string) *Store {
	s := &Store{db: db, repos: NewRepos(db)}
	switch strings.ToLower(isolation) {
	case "serializable":
		s.txOpts = &sql.TxOptions{Isolation: sql.LevelSerializable}
	case "repeatable_read":
		s.txOpts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
	case "read_committed":
		s.txOpts = &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	return s
}

func (s *Store) DB() *gorm.DB { return s.db }

// Repos 返回非事务仓储，用于只读查询
func (s *Store) Repos() *Repos { return s.repos }

// InTx 在一个事务内执行 fn，fn 返回错误或 panic 时整体回滚
func (s *Store) InTx(ctx context.Context, fn func(r *Repos) error) error {
	run := func(tx *gorm.DB) error { return fn(NewRepos(tx)) }
	if s.txOpts != nil {
		return s.db.WithContext(ctx).Transaction(run, s.txOpts)
	}
	return s.db.WithContext(ctx).Transaction(run)
}

// forUpdate 追加 SELECT ... FOR UPDATE。SQLite 不支持行锁，
// 其写事务本身在库级别串行，这里直接跳过。
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
