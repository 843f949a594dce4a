package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/firsat-app/chat-server/models"
)

// sqliteReactionRepo, ReactionRepository'nin SQLite implementasyonu.
type sqliteReactionRepo struct {
	db *sql.DB
}

// NewSQLiteReactionRepo, constructor.
func NewSQLiteReactionRepo(db *sql.DB) ReactionRepository {
	return &sqliteReactionRepo{db: db}
}

// Add, reaction ekler. İdempotence INSERT OR IGNORE +
// UNIQUE(message_id, user_id, emoji) constraint'i ile sağlanır —
// rowsAffected == 0 ise reaction zaten vardı, state değişmedi.
func (r *sqliteReactionRepo) Add(ctx context.Context, messageID, userID, emoji string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO reactions (id, message_id, user_id, emoji)
		VALUES (?, ?, ?, ?)`,
		uuid.NewString(), messageID, userID, emoji,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add reaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected > 0, nil
}

// Remove, reaction'ı kaldırır. Olmayan reaction'ı kaldırmak hata değil —
// false döner, caller broadcast atlamayı bilir.
func (r *sqliteReactionRepo) Remove(ctx context.Context, messageID, userID, emoji string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM reactions WHERE message_id = ? AND user_id = ? AND emoji = ?`,
		messageID, userID, emoji,
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove reaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *sqliteReactionRepo) GroupsForMessage(ctx context.Context, messageID, viewerID string) ([]models.ReactionGroup, error) {
	byMessage, err := r.GroupsForMessages(ctx, []string{messageID}, viewerID)
	if err != nil {
		return nil, err
	}
	if groups, ok := byMessage[messageID]; ok {
		return groups, nil
	}
	return []models.ReactionGroup{}, nil
}

// GroupsForMessages, bir mesaj kümesinin reaction aggregate'lerini tek
// sorguda yükler. user_reacted, viewer'a özeldir: MAX(user_id = ?) grup
// içinde viewer'ın satırı varsa 1 döner.
func (r *sqliteReactionRepo) GroupsForMessages(ctx context.Context, messageIDs []string, viewerID string) (map[string][]models.ReactionGroup, error) {
	result := make(map[string][]models.ReactionGroup, len(messageIDs))
	if len(messageIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, 0, len(messageIDs))
	args := []any{viewerID}
	for _, id := range messageIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}

	query := `
		SELECT message_id, emoji, COUNT(*) AS count, MAX(user_id = ?) AS user_reacted
		FROM reactions
		WHERE message_id IN (` + strings.Join(placeholders, ", ") + `)
		GROUP BY message_id, emoji
		ORDER BY message_id, MIN(created_at)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load reaction groups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var messageID string
		var g models.ReactionGroup
		if err := rows.Scan(&messageID, &g.Emoji, &g.Count, &g.UserReacted); err != nil {
			return nil, fmt.Errorf("failed to scan reaction group: %w", err)
		}
		result[messageID] = append(result[messageID], g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reaction rows: %w", err)
	}
	return result, nil
}
