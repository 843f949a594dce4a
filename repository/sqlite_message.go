package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/firsat-app/chat-server/database"
	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
)

// sqliteMessageRepo, MessageRepository'nin SQLite implementasyonu.
type sqliteMessageRepo struct {
	db *sql.DB
}

// NewSQLiteMessageRepo, constructor.
func NewSQLiteMessageRepo(db *sql.DB) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

// Create, mesajı insert eder ve kanal state'ini aynı transaction içinde
// günceller: last_message_at dokunulur, gönderen dışındaki tüm üyelerin
// unread_count'u bir artar. Mention kayıtları da burada yazılır.
func (r *sqliteMessageRepo) Create(ctx context.Context, message *models.Message) error {
	message.ID = uuid.NewString()

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var metadata any
		if len(message.Metadata) > 0 {
			metadata = string(message.Metadata)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, channel_id, sender_id, content, message_type, reply_to_id, metadata)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			message.ID, message.ChannelID, message.SenderID,
			message.Content, message.MessageType, message.ReplyToID, metadata,
		); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE channels SET last_message_at = CURRENT_TIMESTAMP WHERE id = ?`,
			message.ChannelID,
		); err != nil {
			return fmt.Errorf("failed to touch channel timestamp: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE channel_members SET unread_count = unread_count + 1
			WHERE channel_id = ? AND user_id != ?`,
			message.ChannelID, message.SenderID,
		); err != nil {
			return fmt.Errorf("failed to increment unread counts: %w", err)
		}

		for _, userID := range message.Mentions {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO message_mentions (message_id, user_id) VALUES (?, ?)`,
				message.ID, userID,
			); err != nil {
				return fmt.Errorf("failed to insert mention: %w", err)
			}
		}
		return nil
	})
}

const messageColumns = `m.id, m.channel_id, m.sender_id, m.content, m.message_type,
	m.reply_to_id, m.metadata, m.created_at, m.edited_at, m.is_deleted`

func scanMessage(scanner interface{ Scan(...any) error }) (*models.Message, error) {
	m := &models.Message{}
	var metadata sql.NullString
	err := scanner.Scan(
		&m.ID, &m.ChannelID, &m.SenderID, &m.Content, &m.MessageType,
		&m.ReplyToID, &metadata, &m.CreatedAt, &m.EditedAt, &m.IsDeleted,
	)
	if err != nil {
		return nil, err
	}
	if metadata.Valid {
		m.Metadata = []byte(metadata.String)
	}
	m.Mentions = []string{}
	m.Reactions = []models.ReactionGroup{}
	return m, nil
}

func (r *sqliteMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages m WHERE m.id = ?`

	m, err := scanMessage(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message by id: %w", err)
	}

	if err := r.attachMentions(ctx, []*models.Message{m}); err != nil {
		return nil, err
	}
	return m, nil
}

// Page, kanalın mesajlarını en yeniden eskiye sayfalı döner.
// HasMore tespiti için pageSize+1 satır çekilir — fazladan COUNT sorgusu yok.
func (r *sqliteMessageRepo) Page(ctx context.Context, channelID string, page, pageSize int) (*models.MessagePage, error) {
	offset := (page - 1) * pageSize

	query := `SELECT ` + messageColumns + `
		FROM messages m
		WHERE m.channel_id = ?
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, channelID, pageSize+1, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to page messages: %w", err)
	}
	defer rows.Close()

	var loaded []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		loaded = append(loaded, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	hasMore := len(loaded) > pageSize
	if hasMore {
		loaded = loaded[:pageSize]
	}

	if err := r.attachMentions(ctx, loaded); err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(loaded))
	for _, m := range loaded {
		messages = append(messages, *m)
	}

	return &models.MessagePage{
		Messages: messages,
		Page:     page,
		PageSize: pageSize,
		HasMore:  hasMore,
	}, nil
}

// attachMentions, mention kayıtlarını tek sorguda batch yükler (N+1 önleme).
func (r *sqliteMessageRepo) attachMentions(ctx context.Context, messages []*models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	byID := make(map[string]*models.Message, len(messages))
	placeholders := make([]string, 0, len(messages))
	args := make([]any, 0, len(messages))
	for _, m := range messages {
		byID[m.ID] = m
		placeholders = append(placeholders, "?")
		args = append(args, m.ID)
	}

	query := `SELECT message_id, user_id FROM message_mentions
		WHERE message_id IN (` + strings.Join(placeholders, ", ") + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load mentions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var messageID, userID string
		if err := rows.Scan(&messageID, &userID); err != nil {
			return fmt.Errorf("failed to scan mention: %w", err)
		}
		if m, ok := byID[messageID]; ok {
			m.Mentions = append(m.Mentions, userID)
		}
	}
	return rows.Err()
}

func (r *sqliteMessageRepo) Update(ctx context.Context, id, content string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE messages SET content = ?, edited_at = CURRENT_TIMESTAMP
		WHERE id = ? AND is_deleted = 0`,
		content, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: message not found", pkg.ErrNotFound)
	}
	return nil
}

// SoftDelete, mesajı siliyor İŞARETLER — satır kalır, reply zinciri kopmaz.
// Orijinal içerik DB'de audit için durur; API'ye asla serialize edilmez
// (bkz. models.Message.Redact).
func (r *sqliteMessageRepo) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_deleted = 1 WHERE id = ? AND is_deleted = 0`, id)
	if err != nil {
		return fmt.Errorf("failed to soft delete message: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: message not found or already deleted", pkg.ErrNotFound)
	}
	return nil
}

// TrimToRetention, kanalda en yeni `keep` mesajı tutar, geri kalanını siler.
// Soft-delete edilmiş mesajlar da "en yeni N" penceresini işgal eder —
// pencere içerik türüne bakmaz. Silinen satır sayısını döner.
func (r *sqliteMessageRepo) TrimToRetention(ctx context.Context, channelID string, keep int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM messages
		WHERE channel_id = ?
		  AND id NOT IN (
			SELECT id FROM messages
			WHERE channel_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		  )`,
		channelID, channelID, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to trim messages: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return deleted, nil
}
