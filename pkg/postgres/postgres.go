package postgres

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/ticketforge/ticketforge/config"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL")
	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			avatar_url TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			telegram_id VARCHAR(100) NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL REFERENCES users(id),
			username VARCHAR(255) NOT NULL,
			bio TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date VARCHAR(32) NOT NULL,
			time VARCHAR(32) NOT NULL DEFAULT '',
			location VARCHAR(255) NOT NULL DEFAULT '',
			organizer_id TEXT NOT NULL REFERENCES users(id),
			image_url TEXT NOT NULL DEFAULT '',
			art_style VARCHAR(100) NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS ticket_types (
			id TEXT PRIMARY KEY,
			event_id TEXT NOT NULL REFERENCES events(id),
			name VARCHAR(255) NOT NULL,
			price NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (price >= 0),
			capacity INTEGER NOT NULL CHECK (capacity >= 0),
			sold INTEGER NOT NULL DEFAULT 0 CHECK (sold >= 0 AND sold <= capacity),
			description TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS tickets (
			id TEXT PRIMARY KEY,
			event_id TEXT NOT NULL REFERENCES events(id),
			ticket_type_id TEXT NOT NULL REFERENCES ticket_types(id),
			owner_id TEXT NOT NULL REFERENCES users(id),
			is_used BOOLEAN NOT NULL DEFAULT FALSE,
			metadata JSONB NOT NULL DEFAULT '{}',
			minted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_events_organizer_id ON events(organizer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ticket_types_event_id ON ticket_types(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_owner_id ON tickets(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_ticket_type_id ON tickets(ticket_type_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_event_id ON tickets(event_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %v", err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
