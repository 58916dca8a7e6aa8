// Package users provides database operations for reader accounts.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByUsername("alice")
package users

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/readsync/internal/database"
	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/errs"
)

// ErrUserExists is returned by CreateUser for a taken username.
var ErrUserExists = errors.New("user already exists")

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser stores a new account with an already hashed password.
func (r *Repository) CreateUser(username, passwordHash string) (*entities.User, error) {
	user := &entities.User{
		Username:     username,
		PasswordHash: passwordHash,
	}

	if err := r.db.Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, errs.Storage("create user", err)
	}

	return user, nil
}

// GetUserByUsername retrieves a user by username or errs.ErrNotFound.
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errs.ErrNotFound
		}
		return nil, errs.Storage("get user", err)
	}
	return &user, nil
}

// SetPasswordHash replaces the stored hash of an existing account.
func (r *Repository) SetPasswordHash(username, passwordHash string) error {
	res := r.db.Model(&entities.User{}).Where("username = ?", username).Update("pwd_hash", passwordHash)
	if res.Error != nil {
		return errs.Storage("set password", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Count returns the number of accounts.
func (r *Repository) Count() (int64, error) {
	var n int64
	if err := r.db.Model(&entities.User{}).Count(&n).Error; err != nil {
		return 0, errs.Storage("count users", err)
	}
	return n, nil
}
