package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-adp-web/internal/models"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
)

func newTestUserService(repo *stubUserRepo) *UserService {
	svc := NewUserService(repo, nil, nil)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestUserServiceCreate(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*models.User{}}
	svc := newTestUserService(repo)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Username: " Admin ",
		FullName: "School Admin",
		Role:     models.RoleAdmin,
		Password: "changeme123",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
	assert.True(t, user.Active)
	assert.Nil(t, user.Email)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("changeme123")))
}

func TestUserServiceCreateRejects(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*models.User{"admin": {ID: "user-1", Username: "admin"}}}
	svc := newTestUserService(repo)

	_, err := svc.Create(context.Background(), CreateUserRequest{Username: "admin", FullName: "A", Role: models.RoleAdmin, Password: "changeme123"})
	assertAppError(t, err, appErrors.ErrConflict, "username already exists")

	_, err = svc.Create(context.Background(), CreateUserRequest{Username: "clerk", FullName: "C", Role: "janitor", Password: "changeme123"})
	assertAppError(t, err, appErrors.ErrValidation, "")

	_, err = svc.Create(context.Background(), CreateUserRequest{Username: "clerk", FullName: "C", Role: models.RoleCashier, Password: "short"})
	assertAppError(t, err, appErrors.ErrValidation, "password must be at least 8 characters in length")
	assert.Empty(t, repo.created)
}

func TestUserServiceSetPassword(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*models.User{"admin": {ID: "user-1", Username: "admin"}}}
	svc := newTestUserService(repo)

	require.NoError(t, svc.SetPassword(context.Background(), "admin", "a-new-password"))
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwords["user-1"]), []byte("a-new-password")))

	err := svc.SetPassword(context.Background(), "missing", "a-new-password")
	assertAppError(t, err, appErrors.ErrNotFound, "user not found")
}

func TestUserServiceContactsExcludesSelf(t *testing.T) {
	repo := &stubUserRepo{contacts: []models.Contact{{ID: "user-2", FullName: "Joy", Role: models.RoleCashier}}}
	svc := newTestUserService(repo)

	contacts, err := svc.Contacts(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, contacts, 1)
	assert.Equal(t, "user-1", repo.excludedID)
}
