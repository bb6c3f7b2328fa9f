package repository

import (
	"testing"

	"github.com/gausamvardhan/storefront-backend/internal/app/model"
	"github.com/gausamvardhan/storefront-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUserTest(t *testing.T) (*gorm.DB, UserRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return testDB, NewUserRepository(testDB)
}

func newTestUser(email string) *model.User {
	return &model.User{
		Email:        email,
		PasswordHash: "hashedpassword",
		Name:         "Asha Patel",
		Phone:        "9876543210",
		Role:         model.RoleUser,
	}
}

func TestUserRepository_Create(t *testing.T) {
	_, repo := setupUserTest(t)

	tests := []struct {
		name    string
		user    *model.User
		wantErr bool
	}{
		{name: "Valid user", user: newTestUser("asha@example.com")},
		{name: "Duplicate email", user: newTestUser("asha@example.com"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(tt.user)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.NotZero(t, tt.user.ID)
		})
	}
}

func TestUserRepository_Find(t *testing.T) {
	_, repo := setupUserTest(t)
	user := newTestUser("asha@example.com")
	require.NoError(t, repo.Create(user))

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)

	found, err = repo.FindByEmail("asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByID(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindByEmail("missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_Update(t *testing.T) {
	_, repo := setupUserTest(t)
	user := newTestUser("asha@example.com")
	require.NoError(t, repo.Create(user))

	user.Name = "Asha P."
	user.Phone = "9000000000"
	require.NoError(t, repo.Update(user))

	updated, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha P.", updated.Name)
	assert.Equal(t, "9000000000", updated.Phone)
}
