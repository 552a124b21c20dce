package entity

import "time"

type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	AvatarURL    string    `json:"avatar_url" db:"avatar_url"`
	PasswordHash string    `json:"-" db:"password_hash"`
	TelegramID   string    `json:"telegram_id,omitempty" db:"telegram_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type Profile struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	Bio       string    `json:"bio" db:"bio"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Session is the authenticated principal held process-wide between login
// and logout. Only the login/logout operations mutate it.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
