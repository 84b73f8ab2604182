package address

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound 用户没有与之完全一致的收货地址
	ErrNotFound = errors.New("address not found")
	// ErrIncomplete 地址字段缺失
	ErrIncomplete = errors.New("address is incomplete")
)

// Address 收货地址值对象，六个字段均为必填
type Address struct {
	Name       string `gorm:"size:128;not null" json:"name"`
	Street     string `gorm:"size:255;not null" json:"street"`
	City       string `gorm:"size:128;not null" json:"city"`
	State      string `gorm:"size:128;not null" json:"state"`
	PostalCode string `gorm:"size:32;not null" json:"postal_code"`
	Country    string `gorm:"size:64;not null" json:"country"`
}

// Validate 任一字段为空白即视为不完整。这里只判断是否缺失，
// 匹配时仍按原值逐字段比较，不做归一化。
func (a Address) Validate() error {
	fields := []string{a.Name, a.Street, a.City, a.State, a.PostalCode, a.Country}
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return ErrIncomplete
		}
	}
	return nil
}

// SavedAddress 用户保存的地址，整体替换，不做局部修改
type SavedAddress struct {
	ID      int64 `gorm:"primaryKey" json:"id"`
	UserID  int64 `gorm:"index;not null" json:"user_id"`
	Address `gorm:"embedded"`
}

func (SavedAddress) TableName() string { return "addresses" }

// OrderAddress 下单时的地址快照，创建后不可变
type OrderAddress struct {
	ID        int64 `gorm:"primaryKey" json:"id"`
	UserID    int64 `gorm:"index;not null" json:"user_id"`
	Address   `gorm:"embedded"`
	CreatedAt time.Time `json:"-"`
}

func (OrderAddress) TableName() string { return "order_addresses" }

// Repository 地址仓储接口
type Repository interface {
	ListSaved(ctx context.Context, userID int64) ([]*SavedAddress, error)
	// ReplaceSaved 删除用户全部地址后重新写入，调用方需保证在事务内
	ReplaceSaved(ctx context.Context, userID int64, list []Address) ([]*SavedAddress, error)
	// FindMatch 六个字段完全相等才算命中，未命中返回 ErrNotFound
	FindMatch(ctx context.Context, userID int64, a Address) (*SavedAddress, error)

	CreateOrderAddress(ctx context.Context, userID int64, a Address) (*OrderAddress, error)
	GetOrderAddresses(ctx context.Context, ids []int64) (map[int64]*OrderAddress, error)
}
