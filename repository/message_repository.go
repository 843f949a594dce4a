package repository

import (
	"context"

	"github.com/firsat-app/chat-server/models"
)

// MessageRepository, mesaj kalıcılık operasyonlarını tanımlar.
//
// Create tek bir transaction içinde üç yazma yapar: mesaj insert'ü,
// kanalın last_message_at güncellemesi ve gönderen dışındaki üyelerin
// unread_count artışı. Bunlar atomiktir — yarıda kalan gönderim olmaz.
//
// Retention: TrimToRetention kanal başına en yeni N mesajı tutar,
// fazlasını kalıcı olarak siler. İdempotenttir; retention altındaki
// kanallarda no-op.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	Page(ctx context.Context, channelID string, page, pageSize int) (*models.MessagePage, error)
	Update(ctx context.Context, id, content string) error
	SoftDelete(ctx context.Context, id string) error
	TrimToRetention(ctx context.Context, channelID string, keep int) (int64, error)
}
