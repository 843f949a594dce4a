package repository

import (
	"context"

	"github.com/firsat-app/chat-server/models"
)

// ReactionRepository, mesaj reaction'larının kalıcılık operasyonları.
//
// Add ve Remove idempotenttir: tekrar eklenen reaction hata değildir,
// değişiklik olup olmadığını bool dönüş belirtir. Caller bu bilgiyi
// "sadece state değiştiyse broadcast et" kararı için kullanır.
//
// Okumalar aggregate döner: emoji başına sayı + viewer'ın kendi
// reaction'ını içerip içermediği (user_reacted). Kimin hangi emoji'yi
// bastığı listesi API yüzeyinde yoktur.
type ReactionRepository interface {
	Add(ctx context.Context, messageID, userID, emoji string) (bool, error)
	Remove(ctx context.Context, messageID, userID, emoji string) (bool, error)
	GroupsForMessage(ctx context.Context, messageID, viewerID string) ([]models.ReactionGroup, error)
	GroupsForMessages(ctx context.Context, messageIDs []string, viewerID string) (map[string][]models.ReactionGroup, error)
}
