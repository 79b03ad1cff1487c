package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryRepo struct {
	users  map[int64]User
	hashes map[int64]string
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]User), hashes: make(map[int64]string)}
}

func (r *memoryRepo) List(ctx context.Context, filters ListFilters) ([]User, int, error) {
	var out []User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) Create(ctx context.Context, user User, passwordHash string) (User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return User{}, ErrEmailTaken
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	r.hashes[user.ID] = passwordHash
	return user, nil
}

func (r *memoryRepo) Update(ctx context.Context, user User) (User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return User{}, ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	delete(r.hashes, id)
	return nil
}

func (r *memoryRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	r.hashes[id] = passwordHash
	return nil
}

func validCreate() CreateInput {
	return CreateInput{
		Email:    "ops@example.com",
		Password: "Str0ng!pass",
		FullName: "Ops Admin",
		RoleID:   2,
	}
}

func TestCreateHashesPasswordAndDefaultsActive(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, 10)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)
	require.Equal(t, "active", created.Status)
	require.Equal(t, "ops@example.com", created.Email)

	hash := repo.hashes[created.ID]
	require.NotEqual(t, "Str0ng!pass", hash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("Str0ng!pass")))
}

func TestCreateNormalizesEmail(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, 10)

	input := validCreate()
	input.Email = "  Ops@Example.COM "
	created, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, "ops@example.com", created.Email)
}

func TestCreateRejectsWeakPassword(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, 10)

	input := validCreate()
	input.Password = "admin123"
	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, 10)
	ctx := context.Background()

	_, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)
	_, err = svc.Create(ctx, validCreate())
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateRequiresRole(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, 10)

	input := validCreate()
	input.RoleID = 0
	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateKeepsEmail(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, 10)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateInput{
		FullName: "Renamed Admin",
		RoleID:   3,
		Status:   "inactive",
	})
	require.NoError(t, err)
	require.Equal(t, "ops@example.com", updated.Email)
	require.Equal(t, "Renamed Admin", updated.FullName)
	require.Equal(t, int64(3), updated.RoleID)
	require.Equal(t, "inactive", updated.Status)
}

func TestDeleteIsHard(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, 10)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID, 1))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, created.ID, 1), ErrNotFound)
}

func TestResetPasswordEnforcesPolicy(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, 10)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)
	oldHash := repo.hashes[created.ID]

	require.ErrorIs(t, svc.ResetPassword(ctx, created.ID, "short", 1), ErrValidation)
	require.Equal(t, oldHash, repo.hashes[created.ID])

	require.NoError(t, svc.ResetPassword(ctx, created.ID, "N3w!secret", 1))
	require.NotEqual(t, oldHash, repo.hashes[created.ID])
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[created.ID]), []byte("N3w!secret")))
}
