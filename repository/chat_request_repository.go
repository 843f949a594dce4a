package repository

import (
	"context"

	"github.com/firsat-app/chat-server/models"
)

// ChatRequestRepository, chat request el sıkışmasının kalıcılık operasyonları.
//
// Create, aynı sıralı (requester, recipient) çifti için ikinci bir pending
// request'i ErrConflict ile reddeder — garanti DB'deki partial unique
// index'ten gelir, uygulama seviyesi kontrol sadece erken çıkıştır.
//
// UpdateStatus compare-and-set yapar: satır hâlâ pending ise geçiş uygular,
// değilse false döner. Yarışan iki respond çağrısından sadece biri kazanır.
type ChatRequestRepository interface {
	Create(ctx context.Context, request *models.ChatRequest) error
	GetByID(ctx context.Context, id string) (*models.ChatRequest, error)
	GetPendingByPair(ctx context.Context, requesterID, recipientID string) (*models.ChatRequest, error)
	GetAcceptedByPair(ctx context.Context, requesterID, recipientID string) (*models.ChatRequest, error)
	ListPendingForRecipient(ctx context.Context, recipientID string) ([]models.ChatRequest, error)
	UpdateStatus(ctx context.Context, id string, status models.ChatRequestStatus) (bool, error)
	MarkExpired(ctx context.Context) (int64, error)
}
