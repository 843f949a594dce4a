package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
)

// sqliteBanRepo, BanRepository'nin SQLite implementasyonu.
type sqliteBanRepo struct {
	db *sql.DB
}

// NewSQLiteBanRepo, constructor.
func NewSQLiteBanRepo(db *sql.DB) BanRepository {
	return &sqliteBanRepo{db: db}
}

func (r *sqliteBanRepo) Create(ctx context.Context, ban *models.Ban) error {
	ban.ID = uuid.NewString()
	ban.IsActive = true
	if ban.ExpiresAt != nil {
		// UTC normalize — expires_at sorgularda CURRENT_TIMESTAMP (UTC) ile
		// string karşılaştırıldığı için timezone'lu değer yazılamaz.
		utc := ban.ExpiresAt.UTC()
		ban.ExpiresAt = &utc
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bans (id, user_id, channel_id, banned_by, reason, expires_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, 1)`,
		ban.ID, ban.UserID, ban.ChannelID, ban.BannedBy, ban.Reason, ban.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user already has an active ban in this scope", pkg.ErrConflict)
		}
		return fmt.Errorf("failed to create ban: %w", err)
	}
	return nil
}

const banColumns = `b.id, b.user_id, b.channel_id, b.banned_by, b.reason, b.created_at, b.expires_at, b.is_active`

func scanBan(scanner interface{ Scan(...any) error }) (*models.Ban, error) {
	b := &models.Ban{}
	err := scanner.Scan(
		&b.ID, &b.UserID, &b.ChannelID, &b.BannedBy,
		&b.Reason, &b.CreatedAt, &b.ExpiresAt, &b.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *sqliteBanRepo) GetByID(ctx context.Context, id string) (*models.Ban, error) {
	query := `SELECT ` + banColumns + ` FROM bans b WHERE b.id = ?`

	b, err := scanBan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: ban not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ban: %w", err)
	}
	return b, nil
}

// GetActiveForUser, verilen scope'ta yürürlükteki ban'ı döner.
// Global ban (channel_id NULL) her kanalı kapsar ve sıralamada önce gelir —
// hem global hem kanal ban'ı varsa global döner. Süresi dolmuş satırlar
// elenir; yoksa (nil, nil).
func (r *sqliteBanRepo) GetActiveForUser(ctx context.Context, userID string, channelID *string) (*models.Ban, error) {
	query := `SELECT ` + banColumns + ` FROM bans b
		WHERE b.user_id = ? AND b.is_active = 1
		  AND (b.channel_id IS NULL OR b.channel_id = ?)
		  AND (b.expires_at IS NULL OR b.expires_at > CURRENT_TIMESTAMP)
		ORDER BY (b.channel_id IS NULL) DESC
		LIMIT 1`

	var scope string
	if channelID != nil {
		scope = *channelID
	}

	b, err := scanBan(r.db.QueryRowContext(ctx, query, userID, scope))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active ban: %w", err)
	}
	return b, nil
}

func (r *sqliteBanRepo) ListActive(ctx context.Context) ([]models.Ban, error) {
	query := `SELECT ` + banColumns + ` FROM bans b
		WHERE b.is_active = 1
		  AND (b.expires_at IS NULL OR b.expires_at > CURRENT_TIMESTAMP)
		ORDER BY b.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active bans: %w", err)
	}
	defer rows.Close()

	bans := []models.Ban{}
	for rows.Next() {
		b, err := scanBan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ban: %w", err)
		}
		bans = append(bans, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ban rows: %w", err)
	}
	return bans, nil
}

func (r *sqliteBanRepo) Deactivate(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bans SET is_active = 0 WHERE id = ? AND is_active = 1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate ban: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: active ban not found", pkg.ErrNotFound)
	}
	return nil
}

// DeactivateAllForUser, kullanıcının TÜM aktif ban'larını düşürür —
// unban talebi onaylandığında çağrılır (global + kanal scoped hepsi).
func (r *sqliteBanRepo) DeactivateAllForUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bans SET is_active = 0 WHERE user_id = ? AND is_active = 1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate bans for user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected, nil
}

func (r *sqliteBanRepo) CreateUnbanRequest(ctx context.Context, request *models.UnbanRequest) error {
	request.ID = uuid.NewString()
	request.Status = models.UnbanRequestPending

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO unban_requests (id, user_id, reason, status)
		VALUES (?, ?, ?, 'pending')`,
		request.ID, request.UserID, request.Reason,
	)
	if err != nil {
		// Kullanıcı başına tek pending talep — partial unique index.
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: a pending unban request already exists", pkg.ErrConflict)
		}
		return fmt.Errorf("failed to create unban request: %w", err)
	}
	return nil
}

const unbanRequestColumns = `ur.id, ur.user_id, ur.reason, ur.status, ur.requested_at, ur.reviewed_by, ur.reviewed_at`

func scanUnbanRequest(scanner interface{ Scan(...any) error }) (*models.UnbanRequest, error) {
	ur := &models.UnbanRequest{}
	err := scanner.Scan(
		&ur.ID, &ur.UserID, &ur.Reason, &ur.Status,
		&ur.RequestedAt, &ur.ReviewedBy, &ur.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	return ur, nil
}

func (r *sqliteBanRepo) GetUnbanRequestByID(ctx context.Context, id string) (*models.UnbanRequest, error) {
	query := `SELECT ` + unbanRequestColumns + ` FROM unban_requests ur WHERE ur.id = ?`

	ur, err := scanUnbanRequest(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: unban request not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unban request: %w", err)
	}
	return ur, nil
}

func (r *sqliteBanRepo) ListPendingUnbanRequests(ctx context.Context) ([]models.UnbanRequest, error) {
	query := `SELECT ` + unbanRequestColumns + ` FROM unban_requests ur
		WHERE ur.status = 'pending'
		ORDER BY ur.requested_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending unban requests: %w", err)
	}
	defer rows.Close()

	requests := []models.UnbanRequest{}
	for rows.Next() {
		ur, err := scanUnbanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unban request: %w", err)
		}
		requests = append(requests, *ur)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unban request rows: %w", err)
	}
	return requests, nil
}

// ResolveUnbanRequest, pending talebi compare-and-set ile karara bağlar.
// Talep artık pending değilse false döner — iki moderatör aynı anda
// karar verirse sadece ilki kazanır.
func (r *sqliteBanRepo) ResolveUnbanRequest(ctx context.Context, id string, status models.UnbanRequestStatus, reviewerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE unban_requests
		SET status = ?, reviewed_by = ?, reviewed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'`,
		status, reviewerID, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to resolve unban request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected > 0, nil
}
