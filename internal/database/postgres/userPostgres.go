package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ticketforge/ticketforge/internal/database"
	"github.com/ticketforge/ticketforge/internal/entity"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) database.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()

	query := `
		INSERT INTO users (id, email, name, avatar_url, password_hash, telegram_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		strings.ToLower(user.Email),
		user.Name,
		user.AvatarURL,
		user.PasswordHash,
		user.TelegramID,
		user.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return entity.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT id, email, name, avatar_url, password_hash, telegram_id, created_at FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT id, email, name, avatar_url, password_hash, telegram_id, created_at FROM users WHERE email = $1`, strings.ToLower(email))
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*entity.User, error) {
	var user entity.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.AvatarURL,
		&user.PasswordHash,
		&user.TelegramID,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

type profileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) database.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *entity.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	profile.CreatedAt = time.Now()

	query := `
		INSERT INTO profiles (id, user_id, username, bio, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.UserID, profile.Username, profile.Bio, profile.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return entity.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*entity.Profile, error) {
	query := `SELECT id, user_id, username, bio, created_at FROM profiles WHERE user_id = $1`

	var profile entity.Profile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Username,
		&profile.Bio,
		&profile.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *entity.Profile) error {
	query := `UPDATE profiles SET username = $1, bio = $2 WHERE user_id = $3`
	result, err := r.db.ExecContext(ctx, query, profile.Username, profile.Bio, profile.UserID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrUserNotFound
	}
	return nil
}
