package postgres

import (
	"context"
	"database/sql"

	"github.com/ticketforge/ticketforge/internal/database"
	"github.com/ticketforge/ticketforge/internal/entity"
	"golang.org/x/crypto/bcrypt"
)

type authRepository struct {
	users database.UserRepository
}

func NewAuthenticator(db *sql.DB) database.Authenticator {
	return &authRepository{users: NewUserRepository(db)}
}

func (r *authRepository) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := r.users.GetByEmail(ctx, email)
	if err == entity.ErrUserNotFound {
		// Same error for unknown email and wrong password.
		return nil, entity.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, entity.ErrInvalidCredentials
	}
	return user, nil
}

// HashPassword produces the stored form of a user password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
