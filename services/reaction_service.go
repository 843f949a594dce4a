package services

import (
	"context"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
	"github.com/firsat-app/chat-server/repository"
	"github.com/firsat-app/chat-server/ws"
)

// ReactionService, mesaj reaction iş mantığı.
//
// İki operasyon da idempotenttir ve read-your-writes garantisi verir:
// dönüş değeri HER ZAMAN işlem sonrası taze aggregate listesidir.
// Broadcast sadece state gerçekten değiştiyse yapılır.
type ReactionService interface {
	Add(ctx context.Context, messageID, userID, emoji string) ([]models.ReactionGroup, error)
	Remove(ctx context.Context, messageID, userID, emoji string) ([]models.ReactionGroup, error)
}

type reactionService struct {
	reactionRepo repository.ReactionRepository
	messageRepo  repository.MessageRepository
	channelRepo  repository.ChannelRepository
	banRepo      repository.BanRepository
	hub          ws.EventPublisher
}

// NewReactionService, constructor.
func NewReactionService(
	reactionRepo repository.ReactionRepository,
	messageRepo repository.MessageRepository,
	channelRepo repository.ChannelRepository,
	banRepo repository.BanRepository,
	hub ws.EventPublisher,
) ReactionService {
	return &reactionService{
		reactionRepo: reactionRepo,
		messageRepo:  messageRepo,
		channelRepo:  channelRepo,
		banRepo:      banRepo,
		hub:          hub,
	}
}

// validEmoji, emoji parametresinin makul olduğunu kontrol eder.
// Tam emoji validasyonu yapılmaz (Unicode sürümüne bağlı) — sadece boş
// olmadığı ve kısa olduğu garanti edilir.
func validEmoji(emoji string) bool {
	n := utf8.RuneCountInString(emoji)
	return n >= 1 && n <= 8
}

func (s *reactionService) Add(ctx context.Context, messageID, userID, emoji string) ([]models.ReactionGroup, error) {
	if !validEmoji(emoji) {
		return nil, fmt.Errorf("%w: invalid emoji", pkg.ErrValidation)
	}

	message, err := s.requireReactable(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}

	changed, err := s.reactionRepo.Add(ctx, messageID, userID, emoji)
	if err != nil {
		return nil, err
	}

	return s.finish(ctx, message, userID, changed)
}

func (s *reactionService) Remove(ctx context.Context, messageID, userID, emoji string) ([]models.ReactionGroup, error) {
	if !validEmoji(emoji) {
		return nil, fmt.Errorf("%w: invalid emoji", pkg.ErrValidation)
	}

	message, err := s.requireReactable(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}

	// Olmayan reaction'ı kaldırmak no-op — hata DEĞİL
	changed, err := s.reactionRepo.Remove(ctx, messageID, userID, emoji)
	if err != nil {
		return nil, err
	}

	return s.finish(ctx, message, userID, changed)
}

// requireReactable, mesajın var olduğunu, silinmediğini ve kullanıcının
// kanalı görebildiğini (ban dahil) doğrular.
func (s *reactionService) requireReactable(ctx context.Context, messageID, userID string) (*models.Message, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.IsDeleted {
		return nil, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
	}

	if ban, err := s.banRepo.GetActiveForUser(ctx, userID, &message.ChannelID); err != nil {
		return nil, err
	} else if ban != nil {
		return nil, fmt.Errorf("%w: you cannot perform this action", pkg.ErrForbidden)
	}

	channel, err := s.channelRepo.GetByID(ctx, message.ChannelID)
	if err != nil {
		return nil, err
	}
	if !channel.IsGlobal {
		isMember, err := s.channelRepo.IsMember(ctx, message.ChannelID, userID)
		if err != nil {
			return nil, err
		}
		if !isMember {
			return nil, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
		}
	}
	return message, nil
}

// finish, taze aggregate'i okur (read-your-writes) ve state değiştiyse
// broadcast eder. Broadcast payload'ı viewer-agnostiktir — user_reacted
// her client'ta farklı olacağından boş viewer ile üretilir.
func (s *reactionService) finish(ctx context.Context, message *models.Message, userID string, changed bool) ([]models.ReactionGroup, error) {
	groups, err := s.reactionRepo.GroupsForMessage(ctx, message.ID, userID)
	if err != nil {
		return nil, err
	}

	if changed {
		wire, err := s.reactionRepo.GroupsForMessage(ctx, message.ID, "")
		if err != nil {
			log.Printf("[reaction] broadcast aggregate load failed for %s: %v", message.ID, err)
			return groups, nil
		}
		event := ws.Event{
			Op: ws.OpReactionUpdate,
			Data: ws.ReactionUpdateData{
				MessageID: message.ID,
				ChannelID: message.ChannelID,
				Reactions: wire,
			},
		}
		channel, err := s.channelRepo.GetByID(ctx, message.ChannelID)
		if err == nil && channel.IsGlobal {
			s.hub.BroadcastToAll(event)
		} else if memberIDs, err := s.channelRepo.MemberIDs(ctx, message.ChannelID); err == nil {
			s.hub.BroadcastToUsers(memberIDs, event)
		}
	}

	return groups, nil
}
