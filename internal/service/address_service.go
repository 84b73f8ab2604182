package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/goshop/internal/datamodels/address"
	"github.com/example/goshop/internal/repository/sqldb"
)

// AddressService 收货地址管理与结算前的地址校验
type AddressService struct {
	store TxStore
	log   *zap.Logger
}

func NewAddressService(store TxStore, log *zap.Logger) *AddressService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AddressService{store: store, log: log.Named("address")}
}

// resolveSavedAddress 地址六个字段必须与用户某个已保存地址完全一致，
// 不做模糊匹配，也不会为未保存的地址自动建档。
func resolveSavedAddress(ctx context.Context, repo address.Repository, userID int64, a address.Address) (*address.SavedAddress, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return repo.FindMatch(ctx, userID, a)
}

// ResolveForCheckout 返回匹配的已保存地址，未命中返回 address.ErrNotFound
func (s *AddressService) ResolveForCheckout(ctx context.Context, userID int64, a address.Address) (*address.SavedAddress, error) {
	return resolveSavedAddress(ctx, s.store.Repos().Addresses, userID, a)
}

func (s *AddressService) ListSaved(ctx context.Context, userID int64) ([]*address.SavedAddress, error) {
	return s.store.Repos().Addresses.ListSaved(ctx, userID)
}

// ReplaceSaved 整体替换用户地址，任一地址不完整则不做任何修改
func (s *AddressService) ReplaceSaved(ctx context.Context, userID int64, list []address.Address) ([]*address.SavedAddress, error) {
	for i, a := range list {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("address #%d: %w", i, err)
		}
	}
	var out []*address.SavedAddress
	err := s.store.InTx(ctx, func(r *sqldb.Repos) error {
		var err error
		out, err = r.Addresses.ReplaceSaved(ctx, userID, list)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("saved addresses replaced", zap.Int64("user_id", userID), zap.Int("count", len(out)))
	return out, nil
}
