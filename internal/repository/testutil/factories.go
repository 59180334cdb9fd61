package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/model"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/repository"
)

// NewTestUser returns a plain user whose telegram id equals its id.
func NewTestUser(id int64, referrerID *int64) *model.NewUser {
	username := fmt.Sprintf("user%d", id)
	return &model.NewUser{
		ID:         id,
		TelegramID: id,
		Username:   &username,
		ReferrerID: referrerID,
		Role:       model.RoleUser,
	}
}

// CreateChain inserts users so that each one refers the next: ids[0] is the
// root and ids[len-1] the deepest child.
func CreateChain(t *testing.T, repo *repository.Repository, ids ...int64) []*model.User {
	t.Helper()

	users := make([]*model.User, 0, len(ids))
	var parent *int64
	for _, id := range ids {
		user, err := repo.CreateUser(context.Background(), NewTestUser(id, parent))
		require.NoError(t, err)
		users = append(users, user)
		parent = &user.ID
	}
	return users
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
