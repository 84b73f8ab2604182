package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/goshop/internal/auth"
	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/user"
)

const minPasswordLen = 8

type UserService struct {
	store TxStore
	jwt   *config.JWTConfig
	log   *zap.Logger
	now   func() time.Time
}

func NewUserService(store TxStore, jwt *config.JWTConfig, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{store: store, jwt: jwt, log: log.Named("user"), now: time.Now}
}

// Register 注册，邮箱重复返回 ErrUserExists
func (s *UserService) Register(ctx context.Context, displayName, email, password string) (*user.User, error) {
	displayName = strings.TrimSpace(displayName)
	email = strings.ToLower(strings.TrimSpace(email))
	if displayName == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: missing required fields", ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &user.User{
		DisplayName:       displayName,
		Email:             email,
		PasswordHash:      string(hash),
		PasswordChangedAt: s.now(),
	}
	if err := s.store.Repos().Users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Int64("user_id", u.ID))
	return u, nil
}

// Login 登录并返回 JWT，邮箱不存在和密码错误返回同一个错误
func (s *UserService) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.store.Repos().Users.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := auth.GenerateToken(s.jwt, u.ID, u.Email, s.now())
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// ChangePassword 修改密码，之前签发的 token 随之失效
func (s *UserService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	u, err := s.store.Repos().Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.Repos().Users.UpdatePassword(ctx, userID, string(hash), s.now())
}

// VerifyClaims 校验 token 对应的用户仍然存在，且 token 签发于最近一次改密之后
func (s *UserService) VerifyClaims(ctx context.Context, claims *auth.Claims) (*user.User, error) {
	u, err := s.store.Repos().Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if claims.IssuedAt == nil || claims.IssuedAt.Time.Before(u.PasswordChangedAt.Truncate(time.Second)) {
		return nil, ErrTokenRevoked
	}
	return u, nil
}
