package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/address"
	"github.com/example/goshop/internal/datamodels/user"
	"github.com/example/goshop/internal/repository/sqldb"
	"github.com/example/goshop/internal/repository/sqldb/sqldbtest"
)

var errInjected = errors.New("injected failure: connection reset by peer")

type testEnv struct {
	db    *gorm.DB
	store *sqldb.Store
	user  *user.User
	home  address.Address
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	GetMonitor().Reset()
	db := sqldbtest.Open(t)
	u := sqldbtest.SeedUser(t, db, "buyer@example.com")
	home := sqldbtest.HomeAddress()
	sqldbtest.SeedAddress(t, db, u.ID, home)
	return &testEnv{db: db, store: sqldb.NewStore(db, ""), user: u, home: home}
}

func (e *testEnv) addToCart(t *testing.T, userID, productID, qty int64) {
	t.Helper()
	_, err := NewCartService(e.store).Add(context.Background(), userID, productID, qty)
	require.NoError(t, err)
}

func (e *testEnv) count(t *testing.T, table string) int64 {
	return sqldbtest.CountRows(t, e.db, table)
}

// faultyStore 在每个事务开始时替换部分仓储，用于模拟任意步骤失败
type faultyStore struct {
	*sqldb.Store
	inject func(r *sqldb.Repos)
}

func (f *faultyStore) InTx(ctx context.Context, fn func(r *sqldb.Repos) error) error {
	return f.Store.InTx(ctx, func(r *sqldb.Repos) error {
		f.inject(r)
		return fn(r)
	})
}

// 以下包装器先完成真实写入再返回错误，用来验证已写入的数据会被回滚

type addressWriteThenFail struct{ address.Repository }

func (a addressWriteThenFail) CreateOrderAddress(ctx context.Context, userID int64, in address.Address) (*address.OrderAddress, error) {
	if _, err := a.Repository.CreateOrderAddress(ctx, userID, in); err != nil {
		return nil, err
	}
	return nil, errInjected
}

// recordingPublisher 记录发送的消息，err 非空或 ctx 已取消时发送失败
type recordingPublisher struct {
	mu     sync.Mutex
	bodies [][]byte
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.err != nil {
		return p.err
	}
	p.bodies = append(p.bodies, body)
	return nil
}

// cancelAfterCommit 事务提交后立即取消请求 ctx，模拟客户端在提交后断开
type cancelAfterCommit struct {
	*sqldb.Store
	cancel context.CancelFunc
}

func (c *cancelAfterCommit) InTx(ctx context.Context, fn func(r *sqldb.Repos) error) error {
	err := c.Store.InTx(ctx, fn)
	c.cancel()
	return err
}
