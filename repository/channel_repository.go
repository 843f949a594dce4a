package repository

import (
	"context"

	"github.com/firsat-app/chat-server/models"
)

// ChannelRepository, kanal ve üyelik veritabanı işlemleri için interface.
//
// CreatePrivate yarış güvenliği:
// Aynı kullanıcı çifti için eşzamanlı iki çağrı aynı kanalı dönmelidir.
// Bu, pair_key üzerindeki UNIQUE constraint + "INSERT OR IGNORE sonra
// lookup" deseniyle sağlanır — uygulama seviyesi check-then-act'e
// güvenilmez, yarışı kaybeden taraf mevcut kanalı okur.
type ChannelRepository interface {
	GetByID(ctx context.Context, id string) (*models.Channel, error)

	// GetGlobal, tek aktif global kanalı döner; yoksa pkg.ErrNotFound.
	// Global kanal migration ile provision edilir, burada asla oluşturulmaz.
	GetGlobal(ctx context.Context) (*models.Channel, error)

	// GetPrivateByPair, normalize pair key ile private kanalı arar.
	// Kanal yoksa (nil, nil) döner — yokluk bir hata değildir.
	GetPrivateByPair(ctx context.Context, pairKey string) (*models.Channel, error)

	// CreatePrivate, private kanalı atomik olarak oluşturur ve iki kullanıcıyı
	// üye yapar. Pair yarışında kaybeden çağrı mevcut kanalı döner.
	CreatePrivate(ctx context.Context, channel *models.Channel, userA, userB string) (*models.Channel, error)

	// CreateGroup, grup kanalı oluşturur ve kurucuyu üye yapar.
	CreateGroup(ctx context.Context, channel *models.Channel) error

	// ListForUser, kullanıcının üye olduğu kanalları son mesaj + unread
	// sayacıyla annotate ederek last_message_at DESC sıralı döner.
	ListForUser(ctx context.Context, userID string) ([]models.ChannelSummary, error)

	IsMember(ctx context.Context, channelID, userID string) (bool, error)

	// AddMember idempotent'tir — mevcut üyelik hata değildir.
	AddMember(ctx context.Context, channelID, userID string) error
	RemoveMember(ctx context.Context, channelID, userID string) error

	// MemberIDs, kanalın tüm üye ID'lerini döner (WS fan-out + unread artışı).
	MemberIDs(ctx context.Context, channelID string) ([]string, error)

	// ResetUnread, kullanıcının kanaldaki okunmamış sayacını sıfırlar.
	ResetUnread(ctx context.Context, channelID, userID string) error
}
