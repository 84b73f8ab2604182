package sqldb_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/goshop/internal/datamodels/user"
	"github.com/example/goshop/internal/repository/sqldb"
	"github.com/example/goshop/internal/repository/sqldb/sqldbtest"
)

func TestUserRepo_DuplicateEmail(t *testing.T) {
	db := sqldbtest.Open(t)
	repo := sqldb.NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &user.User{DisplayName: "a", Email: "dup@example.com", PasswordHash: "h"}))
	err := repo.Create(ctx, &user.User{DisplayName: "b", Email: "dup@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, user.ErrExists)

	u, err := repo.GetByEmail(ctx, "dup@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a", u.DisplayName)

	_, err = repo.GetByID(ctx, u.ID+1)
	assert.ErrorIs(t, err, user.ErrNotFound)
	_, err = repo.GetByEmail(ctx, "none@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, sqldb.IsDuplicateKey(nil))
	assert.False(t, sqldb.IsDuplicateKey(errors.New("boom")))
	assert.True(t, sqldb.IsDuplicateKey(fmt.Errorf("insert: %w", errors.New("UNIQUE constraint failed: users.email"))))
}

func TestIsConflict(t *testing.T) {
	assert.False(t, sqldb.IsConflict(nil))
	assert.True(t, sqldb.IsConflict(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, sqldb.IsConflict(errors.New("syntax error")))
}
