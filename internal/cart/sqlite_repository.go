package cart

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_bookshop/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"
)

// SQLiteRepository persists cart state (and the auth token, see
// SaveToken) in a single local database file, so client state survives
// process restarts.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) Load() ([]domain.CartLine, bool, error) {
	rows, err := r.db.Query(`
		SELECT owner_id, book_json, quantity, added_at
		FROM cart_lines
		ORDER BY id
	`)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var l domain.CartLine
		var bookJSON []byte
		if err := rows.Scan(&l.OwnerID, &bookJSON, &l.Quantity, &l.AddedAt); err != nil {
			return nil, false, fmt.Errorf("failed to scan cart line: %w", err)
		}
		if err := json.Unmarshal(bookJSON, &l.Book); err != nil {
			return nil, false, fmt.Errorf("failed to decode book snapshot: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("row iteration error: %w", err)
	}

	open, err := r.loadOpen()
	if err != nil {
		return nil, false, err
	}

	return lines, open, nil
}

func (r *SQLiteRepository) SaveLine(line domain.CartLine) error {
	bookJSON, err := json.Marshal(line.Book)
	if err != nil {
		return fmt.Errorf("failed to encode book snapshot: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO cart_lines (owner_id, book_id, book_json, quantity, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_id, book_id)
		DO UPDATE SET book_json = $3, quantity = $4
	`, line.OwnerID, line.Book.ID, bookJSON, line.Quantity, line.AddedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert cart line: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteLine(ownerID, bookID string) error {
	_, err := r.db.Exec(
		`DELETE FROM cart_lines WHERE owner_id = $1 AND book_id = $2`,
		ownerID, bookID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteOwner(ownerID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_lines WHERE owner_id = $1`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete owner lines: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SaveOpen(open bool) error {
	return r.setKV("cart_open", fmt.Sprintf("%t", open))
}

func (r *SQLiteRepository) loadOpen() (bool, error) {
	v, err := r.getKV("cart_open")
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// SaveToken persists the bearer token so the auth session survives
// restarts. An empty token clears it.
func (r *SQLiteRepository) SaveToken(token string) error {
	if token == "" {
		_, err := r.db.Exec(`DELETE FROM client_state WHERE key = 'auth_token'`)
		if err != nil {
			return fmt.Errorf("failed to clear token: %w", err)
		}
		return nil
	}
	return r.setKV("auth_token", token)
}

func (r *SQLiteRepository) LoadToken() (string, error) {
	return r.getKV("auth_token")
}

func (r *SQLiteRepository) setKV(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO client_state (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = $2
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) getKV(key string) (string, error) {
	var v string
	err := r.db.QueryRow(`SELECT value FROM client_state WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", key, err)
	}
	return v, nil
}
