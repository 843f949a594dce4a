package repository

import (
	"context"

	"github.com/firsat-app/chat-server/models"
)

// BanRepository, ban ve unban talebi kalıcılık operasyonları.
//
// GetActiveForUser, enforcement'ın tek giriş noktasıdır: kullanıcının
// verilen kanal scope'unda yürürlükteki ban'ını döner (global ban her
// scope'u kapsar, öncelik global'dedir). Ban yoksa (nil, nil) döner.
//
// Create, (user_id, scope) başına tek aktif ban kuralını DB'deki partial
// unique index ile uygular — ihlal ErrConflict'e map edilir.
type BanRepository interface {
	Create(ctx context.Context, ban *models.Ban) error
	GetByID(ctx context.Context, id string) (*models.Ban, error)
	GetActiveForUser(ctx context.Context, userID string, channelID *string) (*models.Ban, error)
	ListActive(ctx context.Context) ([]models.Ban, error)
	Deactivate(ctx context.Context, id string) error
	DeactivateAllForUser(ctx context.Context, userID string) (int64, error)

	CreateUnbanRequest(ctx context.Context, request *models.UnbanRequest) error
	GetUnbanRequestByID(ctx context.Context, id string) (*models.UnbanRequest, error)
	ListPendingUnbanRequests(ctx context.Context) ([]models.UnbanRequest, error)
	ResolveUnbanRequest(ctx context.Context, id string, status models.UnbanRequestStatus, reviewerID string) (bool, error)
}
