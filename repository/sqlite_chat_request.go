package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
)

// sqliteChatRequestRepo, ChatRequestRepository'nin SQLite implementasyonu.
type sqliteChatRequestRepo struct {
	db *sql.DB
}

// NewSQLiteChatRequestRepo, constructor.
func NewSQLiteChatRequestRepo(db *sql.DB) ChatRequestRepository {
	return &sqliteChatRequestRepo{db: db}
}

func (r *sqliteChatRequestRepo) Create(ctx context.Context, request *models.ChatRequest) error {
	request.ID = uuid.NewString()
	request.Status = models.ChatRequestPending
	if request.ExpiresAt.IsZero() {
		request.ExpiresAt = time.Now().Add(models.ChatRequestTTL)
	}
	// UTC normalize — expires_at sorgularda CURRENT_TIMESTAMP (UTC) ile
	// string karşılaştırıldığı için timezone'lu değer yazılamaz.
	request.ExpiresAt = request.ExpiresAt.UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_requests (id, requester_id, recipient_id, message, status, expires_at)
		VALUES (?, ?, ?, ?, 'pending', ?)`,
		request.ID, request.RequesterID, request.RecipientID, request.Message, request.ExpiresAt,
	)
	if err != nil {
		// Partial unique index: çift başına tek pending request.
		// Yarışan iki create'ten biri buraya düşer.
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: a pending chat request already exists for this user", pkg.ErrConflict)
		}
		return fmt.Errorf("failed to create chat request: %w", err)
	}
	return nil
}

const chatRequestColumns = `cr.id, cr.requester_id, cr.recipient_id, cr.message,
	cr.status, cr.created_at, cr.responded_at, cr.expires_at`

func scanChatRequest(scanner interface{ Scan(...any) error }) (*models.ChatRequest, error) {
	cr := &models.ChatRequest{}
	err := scanner.Scan(
		&cr.ID, &cr.RequesterID, &cr.RecipientID, &cr.Message,
		&cr.Status, &cr.CreatedAt, &cr.RespondedAt, &cr.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return cr, nil
}

func (r *sqliteChatRequestRepo) GetByID(ctx context.Context, id string) (*models.ChatRequest, error) {
	query := `SELECT ` + chatRequestColumns + ` FROM chat_requests cr WHERE cr.id = ?`

	cr, err := scanChatRequest(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: chat request not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat request: %w", err)
	}
	return cr, nil
}

func (r *sqliteChatRequestRepo) GetPendingByPair(ctx context.Context, requesterID, recipientID string) (*models.ChatRequest, error) {
	query := `SELECT ` + chatRequestColumns + ` FROM chat_requests cr
		WHERE cr.requester_id = ? AND cr.recipient_id = ? AND cr.status = 'pending'`

	cr, err := scanChatRequest(r.db.QueryRowContext(ctx, query, requesterID, recipientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending chat request: %w", err)
	}
	return cr, nil
}

// GetAcceptedByPair, verilen sıralı çiftin en son accepted request'ini döner.
// Private kanal açma kuralı "accepted handshake var mı?" sorusunu buradan sorar.
func (r *sqliteChatRequestRepo) GetAcceptedByPair(ctx context.Context, requesterID, recipientID string) (*models.ChatRequest, error) {
	query := `SELECT ` + chatRequestColumns + ` FROM chat_requests cr
		WHERE cr.requester_id = ? AND cr.recipient_id = ? AND cr.status = 'accepted'
		ORDER BY cr.responded_at DESC
		LIMIT 1`

	cr, err := scanChatRequest(r.db.QueryRowContext(ctx, query, requesterID, recipientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get accepted chat request: %w", err)
	}
	return cr, nil
}

// ListPendingForRecipient, alıcının bekleyen request'lerini requester
// profiliyle birlikte döner. Süresi geçmiş pending'ler listeye girmez —
// lazy expiry okuma anında uygulanır.
func (r *sqliteChatRequestRepo) ListPendingForRecipient(ctx context.Context, recipientID string) ([]models.ChatRequest, error) {
	query := `SELECT ` + chatRequestColumns + `, u.id, u.username, u.role, u.avatar_url
		FROM chat_requests cr
		JOIN users u ON u.id = cr.requester_id
		WHERE cr.recipient_id = ? AND cr.status = 'pending' AND cr.expires_at > CURRENT_TIMESTAMP
		ORDER BY cr.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending chat requests: %w", err)
	}
	defer rows.Close()

	requests := []models.ChatRequest{}
	for rows.Next() {
		var cr models.ChatRequest
		var requester models.User
		var avatar sql.NullString
		if err := rows.Scan(
			&cr.ID, &cr.RequesterID, &cr.RecipientID, &cr.Message,
			&cr.Status, &cr.CreatedAt, &cr.RespondedAt, &cr.ExpiresAt,
			&requester.ID, &requester.Username, &requester.Role, &avatar,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chat request: %w", err)
		}
		if avatar.Valid {
			requester.AvatarURL = &avatar.String
		}
		cr.Requester = &requester
		requests = append(requests, cr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat request rows: %w", err)
	}
	return requests, nil
}

// UpdateStatus, pending → terminal geçişini compare-and-set ile uygular.
// Satır artık pending değilse false döner — ikinci respond çağrısı,
// expire sweep'i veya yarışan bir istek geçişi bizden önce yapmıştır.
func (r *sqliteChatRequestRepo) UpdateStatus(ctx context.Context, id string, status models.ChatRequestStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE chat_requests SET status = ?, responded_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'`,
		status, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update chat request status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected > 0, nil
}

// MarkExpired, süresi geçmiş tüm pending request'leri expired'a çevirir.
// Periyodik sweep buradan çağrılır; lazy expiry zaten okuma yolunda
// uygulandığı için bu sadece audit tutarlılığı içindir.
func (r *sqliteChatRequestRepo) MarkExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE chat_requests SET status = 'expired'
		WHERE status = 'pending' AND expires_at <= CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, fmt.Errorf("failed to mark expired chat requests: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected, nil
}
