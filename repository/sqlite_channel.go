package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/firsat-app/chat-server/database"
	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
)

// sqliteChannelRepo, ChannelRepository interface'inin SQLite implementasyonu.
type sqliteChannelRepo struct {
	db *sql.DB
}

// NewSQLiteChannelRepo, constructor — interface döner.
func NewSQLiteChannelRepo(db *sql.DB) ChannelRepository {
	return &sqliteChannelRepo{db: db}
}

const channelColumns = `c.id, c.type, c.name, c.is_global, c.created_by, c.created_at, c.is_active, c.last_message_at,
	(SELECT COUNT(*) FROM channel_members cm WHERE cm.channel_id = c.id) AS member_count`

func scanChannel(row *sql.Row) (*models.Channel, error) {
	ch := &models.Channel{}
	err := row.Scan(
		&ch.ID, &ch.Type, &ch.Name, &ch.IsGlobal, &ch.CreatedBy,
		&ch.CreatedAt, &ch.IsActive, &ch.LastMessageAt, &ch.MemberCount,
	)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (r *sqliteChannelRepo) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels c WHERE c.id = ? AND c.is_active = 1`

	ch, err := scanChannel(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: channel not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel by id: %w", err)
	}
	return ch, nil
}

// GetGlobal, aktif global kanalı döner. Global kanal migration/seed ile
// provision edilir, lazy yaratılmaz — yokluğu bir deployment hatasıdır ve
// NotFound değil ErrConfiguration ile raporlanır.
func (r *sqliteChannelRepo) GetGlobal(ctx context.Context) (*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels c WHERE c.is_global = 1 AND c.is_active = 1`

	ch, err := scanChannel(r.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: global channel is not provisioned", pkg.ErrConfiguration)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get global channel: %w", err)
	}
	return ch, nil
}

func (r *sqliteChannelRepo) GetPrivateByPair(ctx context.Context, pairKey string) (*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels c WHERE c.pair_key = ? AND c.is_active = 1`

	ch, err := scanChannel(r.db.QueryRowContext(ctx, query, pairKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Kanal yok — hata değil, handshake karar verir
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get private channel by pair: %w", err)
	}
	return ch, nil
}

// CreatePrivate, private kanalı oluşturur ve iki kullanıcıyı tek transaction
// içinde üye yapar.
//
// Yarış stratejisi: INSERT OR IGNORE + pair_key UNIQUE.
// rowsAffected == 0 → başka bir istek kanalı bizden önce oluşturdu →
// transaction'ı bırak, mevcut kanalı lookup ile dön. İki eşzamanlı çağrı
// böylece her zaman aynı kanal ID'sini görür.
func (r *sqliteChannelRepo) CreatePrivate(ctx context.Context, channel *models.Channel, userA, userB string) (*models.Channel, error) {
	pairKey := models.PairKey(userA, userB)
	channel.ID = uuid.NewString()
	channel.Type = models.ChannelTypePrivate
	channel.IsActive = true

	var inserted bool
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO channels (id, type, pair_key, created_by, is_active)
			VALUES (?, 'private', ?, ?, 1)`,
			channel.ID, pairKey, channel.CreatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert private channel: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if affected == 0 {
			// Yarışı kaybettik — kanal zaten var, member eklemeye çalışma
			return nil
		}
		inserted = true

		for _, userID := range []string{userA, userB} {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO channel_members (channel_id, user_id) VALUES (?, ?)`,
				channel.ID, userID,
			); err != nil {
				return fmt.Errorf("failed to enroll member %s: %w", userID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !inserted {
		existing, err := r.GetPrivateByPair(ctx, pairKey)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			// Teorik pencere: kazanan transaction henüz commit etmemiş olabilir.
			// Caller retry edebilir — transient olarak işaretle.
			return nil, fmt.Errorf("%w: private channel creation race, retry lookup", pkg.ErrTransient)
		}
		return existing, nil
	}

	return r.GetByID(ctx, channel.ID)
}

func (r *sqliteChannelRepo) CreateGroup(ctx context.Context, channel *models.Channel) error {
	channel.ID = uuid.NewString()
	channel.Type = models.ChannelTypeGroup
	channel.IsActive = true

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO channels (id, type, name, created_by, is_active)
			VALUES (?, 'group', ?, ?, 1)`,
			channel.ID, channel.Name, channel.CreatedBy,
		); err != nil {
			return fmt.Errorf("failed to insert group channel: %w", err)
		}

		if channel.CreatedBy != nil {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO channel_members (channel_id, user_id) VALUES (?, ?)`,
				channel.ID, *channel.CreatedBy,
			); err != nil {
				return fmt.Errorf("failed to enroll creator: %w", err)
			}
		}
		return nil
	})
}

// ListForUser, kanal listesini son mesaj ve unread sayacıyla birlikte döner.
//
// Son mesaj correlated subquery ile bulunur: kanalın created_at'e göre en
// yeni mesajı. Private kanallarda karşı taraf kullanıcısı da JOIN'lenir —
// client kanal ismini ondan türetir.
func (r *sqliteChannelRepo) ListForUser(ctx context.Context, userID string) ([]models.ChannelSummary, error) {
	query := `
		SELECT c.id, c.type, c.name, c.is_global, c.created_by, c.created_at, c.is_active, c.last_message_at,
		       (SELECT COUNT(*) FROM channel_members x WHERE x.channel_id = c.id) AS member_count,
		       cm.unread_count,
		       m.id, m.sender_id, m.content, m.message_type, m.is_deleted, m.created_at,
		       ou.id, ou.username, ou.role, ou.avatar_url
		FROM channel_members cm
		JOIN channels c ON c.id = cm.channel_id AND c.is_active = 1
		LEFT JOIN messages m ON m.id = (
			SELECT id FROM messages
			WHERE channel_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		)
		LEFT JOIN users ou ON c.type = 'private' AND ou.id = (
			SELECT user_id FROM channel_members
			WHERE channel_id = c.id AND user_id != ?
			LIMIT 1
		)
		WHERE cm.user_id = ?
		ORDER BY c.last_message_at IS NULL, c.last_message_at DESC, c.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	summaries := []models.ChannelSummary{}
	for rows.Next() {
		var s models.ChannelSummary
		var msgID, msgSender, msgContent, msgType sql.NullString
		var msgDeleted sql.NullBool
		var msgCreatedAt sql.NullTime
		var otherID, otherUsername, otherRole, otherAvatar sql.NullString

		if err := rows.Scan(
			&s.ID, &s.Type, &s.Name, &s.IsGlobal, &s.CreatedBy, &s.CreatedAt, &s.IsActive, &s.LastMessageAt,
			&s.MemberCount, &s.UnreadCount,
			&msgID, &msgSender, &msgContent, &msgType, &msgDeleted, &msgCreatedAt,
			&otherID, &otherUsername, &otherRole, &otherAvatar,
		); err != nil {
			return nil, fmt.Errorf("failed to scan channel summary: %w", err)
		}

		if msgID.Valid {
			lastMsg := &models.Message{
				ID:          msgID.String,
				ChannelID:   s.ID,
				SenderID:    msgSender.String,
				Content:     msgContent.String,
				MessageType: models.MessageType(msgType.String),
				IsDeleted:   msgDeleted.Bool,
				CreatedAt:   msgCreatedAt.Time,
			}
			lastMsg.Redact()
			lastMsg.NormalizeLegacyGif()
			s.LastMessage = lastMsg
		}

		if otherID.Valid {
			s.OtherUser = &models.User{
				ID:       otherID.String,
				Username: otherUsername.String,
				Role:     models.Role(otherRole.String),
			}
			if otherAvatar.Valid {
				s.OtherUser.AvatarURL = &otherAvatar.String
			}
		}

		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channel rows: %w", err)
	}

	return summaries, nil
}

func (r *sqliteChannelRepo) IsMember(ctx context.Context, channelID, userID string) (bool, error) {
	var dummy int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM channel_members WHERE channel_id = ? AND user_id = ? LIMIT 1`,
		channelID, userID,
	).Scan(&dummy)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return true, nil
}

func (r *sqliteChannelRepo) AddMember(ctx context.Context, channelID, userID string) error {
	// INSERT OR IGNORE — tekrar katılma hata değil (idempotent)
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO channel_members (channel_id, user_id) VALUES (?, ?)`,
		channelID, userID,
	); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

func (r *sqliteChannelRepo) RemoveMember(ctx context.Context, channelID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM channel_members WHERE channel_id = ? AND user_id = ?`,
		channelID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func (r *sqliteChannelRepo) MemberIDs(ctx context.Context, channelID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM channel_members WHERE channel_id = ?`, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}
	return ids, nil
}

func (r *sqliteChannelRepo) ResetUnread(ctx context.Context, channelID, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE channel_members SET unread_count = 0 WHERE channel_id = ? AND user_id = ?`,
		channelID, userID,
	); err != nil {
		return fmt.Errorf("failed to reset unread count: %w", err)
	}
	return nil
}
