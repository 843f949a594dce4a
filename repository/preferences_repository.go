package repository

import (
	"context"

	"github.com/firsat-app/chat-server/models"
)

// PreferencesRepository, chat tercihleri, kullanıcı blokları ve takip
// ilişkisi read-model'i.
//
// Get, satır yoksa (nil, nil) döner — caller DefaultChatPreferences ile
// devam eder. Upsert ilk yazmada satırı oluşturur.
//
// IsBlocked YÖN BAĞIMLIDIR: (a, b) "a, b'yi blokladı" demektir. Handshake
// iki yönü de ayrı ayrı kontrol eder çünkü iki yönün davranışı farklıdır
// (bloklayan taraf jenerik NotFound görür, detay sızdırılmaz).
//
// IsFollowing de yön bağımlıdır: (a, b) "a, b'yi takip ediyor" demektir.
// Takip verisi marketplace'ten aynalanır; chat yalnızca auto-accept
// tercihi için okur.
type PreferencesRepository interface {
	Get(ctx context.Context, userID string) (*models.ChatPreferences, error)
	Upsert(ctx context.Context, prefs *models.ChatPreferences) error

	Block(ctx context.Context, blockerID, blockedID string) error
	Unblock(ctx context.Context, blockerID, blockedID string) error
	IsBlocked(ctx context.Context, blockerID, blockedID string) (bool, error)
	ListBlocked(ctx context.Context, blockerID string) ([]models.UserBlock, error)

	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
}
