package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/firsat-app/chat-server/models"
)

// sqlitePreferencesRepo, PreferencesRepository'nin SQLite implementasyonu.
type sqlitePreferencesRepo struct {
	db *sql.DB
}

// NewSQLitePreferencesRepo, constructor.
func NewSQLitePreferencesRepo(db *sql.DB) PreferencesRepository {
	return &sqlitePreferencesRepo{db: db}
}

func (r *sqlitePreferencesRepo) Get(ctx context.Context, userID string) (*models.ChatPreferences, error) {
	p := &models.ChatPreferences{}
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, allow_private_messages, require_request_for_private,
		       auto_accept_requests_from_followers, show_online_status,
		       notifications_enabled, sound_enabled
		FROM chat_preferences WHERE user_id = ?`, userID,
	).Scan(
		&p.UserID, &p.AllowPrivateMessages, &p.RequireRequestForPrivate,
		&p.AutoAcceptRequestsFromFollowers, &p.ShowOnlineStatus,
		&p.NotificationsEnabled, &p.SoundEnabled,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Satır yok — caller default'lara düşer
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat preferences: %w", err)
	}
	return p, nil
}

func (r *sqlitePreferencesRepo) Upsert(ctx context.Context, prefs *models.ChatPreferences) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_preferences (
			user_id, allow_private_messages, require_request_for_private,
			auto_accept_requests_from_followers, show_online_status,
			notifications_enabled, sound_enabled
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			allow_private_messages              = excluded.allow_private_messages,
			require_request_for_private         = excluded.require_request_for_private,
			auto_accept_requests_from_followers = excluded.auto_accept_requests_from_followers,
			show_online_status                  = excluded.show_online_status,
			notifications_enabled               = excluded.notifications_enabled,
			sound_enabled                       = excluded.sound_enabled`,
		prefs.UserID, prefs.AllowPrivateMessages, prefs.RequireRequestForPrivate,
		prefs.AutoAcceptRequestsFromFollowers, prefs.ShowOnlineStatus,
		prefs.NotificationsEnabled, prefs.SoundEnabled,
	); err != nil {
		return fmt.Errorf("failed to upsert chat preferences: %w", err)
	}
	return nil
}

func (r *sqlitePreferencesRepo) Block(ctx context.Context, blockerID, blockedID string) error {
	// Tekrar bloklamak idempotent
	if _, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_blocks (blocker_id, blocked_id) VALUES (?, ?)`,
		blockerID, blockedID,
	); err != nil {
		return fmt.Errorf("failed to block user: %w", err)
	}
	return nil
}

func (r *sqlitePreferencesRepo) Unblock(ctx context.Context, blockerID, blockedID string) error {
	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM user_blocks WHERE blocker_id = ? AND blocked_id = ?`,
		blockerID, blockedID,
	); err != nil {
		return fmt.Errorf("failed to unblock user: %w", err)
	}
	return nil
}

func (r *sqlitePreferencesRepo) IsBlocked(ctx context.Context, blockerID, blockedID string) (bool, error) {
	var dummy int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM user_blocks WHERE blocker_id = ? AND blocked_id = ? LIMIT 1`,
		blockerID, blockedID,
	).Scan(&dummy)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check block: %w", err)
	}
	return true, nil
}

func (r *sqlitePreferencesRepo) Follow(ctx context.Context, followerID, followeeID string) error {
	// Tekrar takip etmek idempotent — client aynayı yeniden gönderebilir
	if _, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_follows (follower_id, followee_id) VALUES (?, ?)`,
		followerID, followeeID,
	); err != nil {
		return fmt.Errorf("failed to follow user: %w", err)
	}
	return nil
}

func (r *sqlitePreferencesRepo) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM user_follows WHERE follower_id = ? AND followee_id = ?`,
		followerID, followeeID,
	); err != nil {
		return fmt.Errorf("failed to unfollow user: %w", err)
	}
	return nil
}

func (r *sqlitePreferencesRepo) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var dummy int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM user_follows WHERE follower_id = ? AND followee_id = ? LIMIT 1`,
		followerID, followeeID,
	).Scan(&dummy)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return true, nil
}

func (r *sqlitePreferencesRepo) ListBlocked(ctx context.Context, blockerID string) ([]models.UserBlock, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT blocker_id, blocked_id, created_at FROM user_blocks
		WHERE blocker_id = ? ORDER BY created_at DESC`, blockerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked users: %w", err)
	}
	defer rows.Close()

	blocks := []models.UserBlock{}
	for rows.Next() {
		var b models.UserBlock
		if err := rows.Scan(&b.BlockerID, &b.BlockedID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user block: %w", err)
		}
		blocks = append(blocks, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating block rows: %w", err)
	}
	return blocks, nil
}
