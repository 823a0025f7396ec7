package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"lintas.id/aidesk/internal/entity"
	"lintas.id/aidesk/pkg/apperror"
)

type fakeUserRepo struct {
	users       map[string]*entity.User
	roles       map[string]*entity.Role
	updateCalls int
	deleteCalls int
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		users: map[string]*entity.User{},
		roles: map[string]*entity.Role{
			entity.RoleUser:  {ID: 1, Name: entity.RoleUser},
			entity.RoleAdmin: {ID: 2, Name: entity.RoleAdmin},
		},
	}
	for _, u := range users {
		repo.users[u.ID.String()] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.users[user.ID.String()] = user
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	role, ok := r.roles[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return role, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.updateCalls++
	r.users[user.ID.String()] = user
	return nil
}

func (r *fakeUserRepo) FindAll(ctx context.Context) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	r.deleteCalls++
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func makeUser(role string) *entity.User {
	return &entity.User{
		ID:    uuid.New(),
		Email: uuid.NewString() + "@example.com",
		Role:  entity.Role{Name: role},
	}
}

func TestUpdateUserRoleSuperAdminProtected(t *testing.T) {
	actor := makeUser(entity.RoleAdmin)
	target := makeUser(entity.RoleSuperAdmin)
	repo := newFakeUserRepo(actor, target)
	svc := NewAdminService(repo, nil)

	_, err := svc.UpdateUserRole(context.Background(), actor.ID, target.ID, entity.RoleUser)
	require.Error(t, err)
	assert.Equal(t, 403, apperror.MapErrorToStatus(err))
	assert.Equal(t, 0, repo.updateCalls, "no write reaches the store")
	assert.Equal(t, entity.RoleSuperAdmin, repo.users[target.ID.String()].Role.Name)
}

func TestUpdateUserRole(t *testing.T) {
	actor := makeUser(entity.RoleSuperAdmin)
	target := makeUser(entity.RoleUser)
	repo := newFakeUserRepo(actor, target)
	svc := NewAdminService(repo, nil)

	updated, err := svc.UpdateUserRole(context.Background(), actor.ID, target.ID, entity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, updated.Role.Name)
	assert.Equal(t, 1, repo.updateCalls)
}

func TestUpdateUserRoleSelf(t *testing.T) {
	actor := makeUser(entity.RoleAdmin)
	repo := newFakeUserRepo(actor)
	svc := NewAdminService(repo, nil)

	_, err := svc.UpdateUserRole(context.Background(), actor.ID, actor.ID, entity.RoleUser)
	require.Error(t, err)
	assert.Equal(t, 403, apperror.MapErrorToStatus(err))
}

func TestUpdateUserRoleUnknownRole(t *testing.T) {
	actor := makeUser(entity.RoleAdmin)
	target := makeUser(entity.RoleUser)
	repo := newFakeUserRepo(actor, target)
	svc := NewAdminService(repo, nil)

	_, err := svc.UpdateUserRole(context.Background(), actor.ID, target.ID, "owner")
	require.Error(t, err)
	assert.Equal(t, 400, apperror.MapErrorToStatus(err))
}

func TestDeleteUserSuperAdminProtected(t *testing.T) {
	actor := makeUser(entity.RoleAdmin)
	target := makeUser(entity.RoleSuperAdmin)
	repo := newFakeUserRepo(actor, target)
	svc := NewAdminService(repo, nil)

	err := svc.DeleteUser(context.Background(), actor.ID, target.ID)
	require.Error(t, err)
	assert.Equal(t, 403, apperror.MapErrorToStatus(err))
	assert.Equal(t, 0, repo.deleteCalls)
}

func TestDeleteUser(t *testing.T) {
	actor := makeUser(entity.RoleAdmin)
	target := makeUser(entity.RoleUser)
	repo := newFakeUserRepo(actor, target)
	svc := NewAdminService(repo, nil)

	require.NoError(t, svc.DeleteUser(context.Background(), actor.ID, target.ID))
	assert.Equal(t, 1, repo.deleteCalls)

	err := svc.DeleteUser(context.Background(), actor.ID, target.ID)
	require.Error(t, err)
	assert.Equal(t, 404, apperror.MapErrorToStatus(err))
}
