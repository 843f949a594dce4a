package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
)

// sqliteUserRepo, UserRepository interface'inin SQLite implementasyonu.
type sqliteUserRepo struct {
	db *sql.DB
}

// NewSQLiteUserRepo, constructor — interface döner.
func NewSQLiteUserRepo(db *sql.DB) UserRepository {
	return &sqliteUserRepo{db: db}
}

func (r *sqliteUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, username, role, avatar_url, created_at FROM users WHERE id = ?`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Role, &user.AvatarURL, &user.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// GetByIDs, mesaj enrichment'ı için kullanıcıları batch yükler.
// WHERE id IN (?, ?, ...) ile tek sorgu — mesaj başına ayrı sorgu yapılmaz.
func (r *sqliteUserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	result := make(map[string]models.User)
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(
		`SELECT id, username, role, avatar_url, created_at FROM users WHERE id IN (%s)`,
		strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Role, &user.AvatarURL, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		result[user.ID] = user
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return result, nil
}

// Sync, identity claim'lerini read-model'e upsert eder.
// created_at ilk insert'te atanır, sonraki sync'lerde değişmez.
func (r *sqliteUserRepo) Sync(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, role, avatar_url)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username   = excluded.username,
			role       = excluded.role,
			avatar_url = COALESCE(excluded.avatar_url, users.avatar_url)`

	if _, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.Role, user.AvatarURL); err != nil {
		return fmt.Errorf("failed to sync user: %w", err)
	}
	return nil
}
