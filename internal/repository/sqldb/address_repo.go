package sqldb

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/address"
)

type addressRepo struct {
	db *gorm.DB
}

// NewAddressRepository 创建地址仓储
func NewAddressRepository(db *gorm.DB) address.Repository {
	return &addressRepo{db: db}
}

func (r *addressRepo) ListSaved(ctx context.Context, userID int64) ([]*address.SavedAddress, error) {
	var list []*address.SavedAddress
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *addressRepo) ReplaceSaved(ctx context.Context, userID int64, list []address.Address) ([]*address.SavedAddress, error) {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&address.SavedAddress{}).Error; err != nil {
		return nil, err
	}
	out := make([]*address.SavedAddress, 0, len(list))
	for _, a := range list {
		out = append(out, &address.SavedAddress{UserID: userID, Address: a})
	}
	if len(out) == 0 {
		return out, nil
	}
	if err := db.Create(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *addressRepo) FindMatch(ctx context.Context, userID int64, a address.Address) (*address.SavedAddress, error) {
	var candidates []*address.SavedAddress
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND street = ? AND city = ? AND state = ? AND postal_code = ? AND country = ?",
			userID, a.Name, a.Street, a.City, a.State, a.PostalCode, a.Country).
		Order("id").
		Find(&candidates).Error; err != nil {
		return nil, err
	}
	// MySQL 默认排序规则大小写不敏感，这里再逐字节比较一次
	for _, c := range candidates {
		if c.Address == a {
			return c, nil
		}
	}
	return nil, address.ErrNotFound
}

func (r *addressRepo) CreateOrderAddress(ctx context.Context, userID int64, a address.Address) (*address.OrderAddress, error) {
	oa := &address.OrderAddress{UserID: userID, Address: a}
	if err := r.db.WithContext(ctx).Create(oa).Error; err != nil {
		return nil, err
	}
	return oa, nil
}

func (r *addressRepo) GetOrderAddresses(ctx context.Context, ids []int64) (map[int64]*address.OrderAddress, error) {
	out := make(map[int64]*address.OrderAddress, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []*address.OrderAddress
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, oa := range list {
		out[oa.ID] = oa
	}
	return out, nil
}
