package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
	"github.com/firsat-app/chat-server/pkg/cache"
	"github.com/firsat-app/chat-server/pkg/moderation"
	"github.com/firsat-app/chat-server/pkg/ratelimit"
	"github.com/firsat-app/chat-server/repository"
	"github.com/firsat-app/chat-server/ws"
)

// MessageService, mesaj iş mantığı interface'i.
type MessageService interface {
	Page(ctx context.Context, channelID, userID string, page, pageSize int) (*models.MessagePage, error)
	Send(ctx context.Context, channelID, userID string, req *models.SendMessageRequest) (*models.Message, error)
	Edit(ctx context.Context, messageID, userID string, req *models.EditMessageRequest) (*models.Message, error)
	Delete(ctx context.Context, messageID, actorID string, actorRole models.Role, reason string) error
}

type messageService struct {
	messageRepo  repository.MessageRepository
	channelRepo  repository.ChannelRepository
	userRepo     repository.UserRepository
	reactionRepo repository.ReactionRepository
	banRepo      repository.BanRepository
	engine       *moderation.Engine
	limiter      *ratelimit.MessageRateLimiter
	hub          ws.EventPublisher

	// senderCache: sender enrichment için kısa ömürlü profil cache'i.
	// Mesaj listesi her seferinde users tablosuna gitmez.
	senderCache *cache.TTLCache[string, models.User]

	// retentionSize: kanal başına tutulan en yeni mesaj sayısı.
	retentionSize int
}

// NewMessageService, constructor.
func NewMessageService(
	messageRepo repository.MessageRepository,
	channelRepo repository.ChannelRepository,
	userRepo repository.UserRepository,
	reactionRepo repository.ReactionRepository,
	banRepo repository.BanRepository,
	engine *moderation.Engine,
	limiter *ratelimit.MessageRateLimiter,
	hub ws.EventPublisher,
	retentionSize int,
) MessageService {
	return &messageService{
		messageRepo:   messageRepo,
		channelRepo:   channelRepo,
		userRepo:      userRepo,
		reactionRepo:  reactionRepo,
		banRepo:       banRepo,
		engine:        engine,
		limiter:       limiter,
		hub:           hub,
		senderCache:   cache.New[string, models.User](time.Minute, 5*time.Minute),
		retentionSize: retentionSize,
	}
}

// Page, kanal mesajlarını en yeniden eskiye sayfalı döner.
// Üyelik kontrolü yapılır (global kanal hariç); dönen her mesaj redaksiyon,
// legacy gif normalizasyonu, sender enrichment ve reaction aggregate'leriyle
// zenginleştirilir.
func (s *messageService) Page(ctx context.Context, channelID, userID string, page, pageSize int) (*models.MessagePage, error) {
	if err := s.requireReadable(ctx, channelID, userID); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}

	result, err := s.messageRepo.Page(ctx, channelID, page, pageSize)
	if err != nil {
		return nil, err
	}

	if err := s.enrich(ctx, result.Messages, userID); err != nil {
		return nil, err
	}
	return result, nil
}

// Send, mesaj gönderim pipeline'ıdır. Sıralama bilinçlidir:
//
//  1. Yapısal validasyon (shape) — ucuz, önce
//  2. Ban kontrolü — SENKRON; session ortasında banlanan kullanıcının bir
//     sonraki gönderimi burada reddedilir. Banlıya JENERİK mesaj döner.
//  3. Moderation rule engine — reddedilen içerik hiç kaydedilmez
//  4. Kanal + üyelik kontrolü
//  5. Reply hedefi aynı kanalda olmalı
//  6. Rate limiter — DB'ye dokunmadan son kapı
//  7. Transaction'lı append (mesaj + last_message_at + unread)
//  8. Enrichment — başarısızlık mesajı DÜŞÜRMEZ, sentinel sender'la devam
//  9. WS broadcast — kanal üyelerine (global ise herkese)
// 10. Retention trim — best effort, gönderimi asla bloklamaz
func (s *messageService) Send(ctx context.Context, channelID, userID string, req *models.SendMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrValidation, err)
	}

	// 2. Ban kontrolü
	if ban, err := s.banRepo.GetActiveForUser(ctx, userID, &channelID); err != nil {
		return nil, err
	} else if ban != nil {
		// Sebep bilinçli olarak verilmez — jenerik mesaj
		return nil, fmt.Errorf("%w: you cannot send messages", pkg.ErrForbidden)
	}

	// 3. İçerik kuralları — sadece kullanıcı yazısı taşıyan türlerde
	if req.MessageType == models.MessageTypeText || req.Content != "" {
		if result := s.engine.Validate(req.Content); !result.IsValid {
			return nil, fmt.Errorf("%w: %s", pkg.ErrValidation, result.Reason)
		}
	}

	// 4. Kanal + üyelik
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !channel.IsGlobal {
		isMember, err := s.channelRepo.IsMember(ctx, channelID, userID)
		if err != nil {
			return nil, err
		}
		if !isMember {
			return nil, fmt.Errorf("%w: channel not found", pkg.ErrNotFound)
		}
	}

	// 5. Reply hedefi aynı kanalda olmalı
	if req.ReplyToID != nil {
		parent, err := s.messageRepo.GetByID(ctx, *req.ReplyToID)
		if err != nil {
			return nil, fmt.Errorf("%w: reply target not found", pkg.ErrValidation)
		}
		if parent.ChannelID != channelID {
			return nil, fmt.Errorf("%w: reply target is in another channel", pkg.ErrValidation)
		}
	}

	// 6. Rate limiter
	if !s.limiter.Allow(userID) {
		return nil, fmt.Errorf("%w: slow down, try again in %s",
			pkg.ErrRateLimited, ratelimit.FormatRetryMessage(s.limiter.CooldownSeconds(userID)))
	}

	message := &models.Message{
		ChannelID:   channelID,
		SenderID:    userID,
		Content:     req.Content,
		MessageType: req.MessageType,
		ReplyToID:   req.ReplyToID,
		Metadata:    req.Metadata,
		Mentions:    s.filterMentions(req),
	}

	// 7. Atomik append
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	created, err := s.messageRepo.GetByID(ctx, message.ID)
	if err != nil {
		return nil, err
	}

	// 8-9. Enrichment + broadcast
	s.attachSender(ctx, created)
	created.Reactions = []models.ReactionGroup{}
	s.broadcast(ctx, channel, ws.Event{Op: ws.OpMessageCreate, Data: created})

	// 10. Retention — asenkron, gönderimi bloklamaz.
	// Context'e bağlanmaz: HTTP isteği dönse bile trim tamamlanır.
	go func() {
		if deleted, err := s.messageRepo.TrimToRetention(context.Background(), channelID, s.retentionSize); err != nil {
			log.Printf("[message] retention trim failed for channel %s: %v", channelID, err)
		} else if deleted > 0 {
			log.Printf("[message] trimmed %d old messages from channel %s", deleted, channelID)
		}
	}()

	return created, nil
}

// Edit, mesajı düzenler. Sadece gönderen düzenleyebilir — moderatör bile
// başkasının mesajını düzenleyemez (silebilir ama değiştiremez).
// Yeni içerik moderation'dan TEKRAR geçer.
func (s *messageService) Edit(ctx context.Context, messageID, userID string, req *models.EditMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrValidation, err)
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.IsDeleted {
		return nil, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
	}
	if message.SenderID != userID {
		return nil, fmt.Errorf("%w: only the sender can edit a message", pkg.ErrForbidden)
	}
	if message.MessageType != models.MessageTypeText {
		return nil, fmt.Errorf("%w: only text messages can be edited", pkg.ErrValidation)
	}

	if ban, err := s.banRepo.GetActiveForUser(ctx, userID, &message.ChannelID); err != nil {
		return nil, err
	} else if ban != nil {
		return nil, fmt.Errorf("%w: you cannot send messages", pkg.ErrForbidden)
	}

	if result := s.engine.Validate(req.Content); !result.IsValid {
		return nil, fmt.Errorf("%w: %s", pkg.ErrValidation, result.Reason)
	}

	if err := s.messageRepo.Update(ctx, messageID, req.Content); err != nil {
		return nil, err
	}

	updated, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	s.attachSender(ctx, updated)

	channel, err := s.channelRepo.GetByID(ctx, updated.ChannelID)
	if err == nil {
		s.broadcast(ctx, channel, ws.Event{Op: ws.OpMessageUpdate, Data: updated})
	}
	return updated, nil
}

// Delete, mesajı soft-delete eder. Sadece moderatör-ve-üstü roller
// silebilir; gönderen kendi mesajını düzenleyebilir ama silemez. Satır
// kalır (reply zinciri), içerik API'de maskelenir, silme reason ile loglanır.
func (s *messageService) Delete(ctx context.Context, messageID, actorID string, actorRole models.Role, reason string) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	if !models.CanModerate(actorRole) {
		return fmt.Errorf("%w: you cannot delete this message", pkg.ErrForbidden)
	}

	if err := s.messageRepo.SoftDelete(ctx, messageID); err != nil {
		return err
	}

	log.Printf("[message] moderator %s deleted message %s (sender=%s, reason=%q)",
		actorID, messageID, message.SenderID, reason)

	channel, err := s.channelRepo.GetByID(ctx, message.ChannelID)
	if err == nil {
		s.broadcast(ctx, channel, ws.Event{
			Op:   ws.OpMessageDelete,
			Data: ws.MessageDeleteData{MessageID: messageID, ChannelID: message.ChannelID},
		})
	}
	return nil
}

// requireReadable, kullanıcının kanalı okuyabildiğini doğrular.
func (s *messageService) requireReadable(ctx context.Context, channelID, userID string) error {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if channel.IsGlobal {
		return nil
	}
	isMember, err := s.channelRepo.IsMember(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return fmt.Errorf("%w: channel not found", pkg.ErrNotFound)
	}
	return nil
}

// enrich, mesaj sayfasını serialize'a hazırlar: redaksiyon, legacy gif
// normalizasyonu, sender profilleri (batch) ve reaction aggregate'leri.
func (s *messageService) enrich(ctx context.Context, messages []models.Message, viewerID string) error {
	if len(messages) == 0 {
		return nil
	}

	messageIDs := make([]string, len(messages))
	senderIDs := make(map[string]bool)
	for i := range messages {
		messages[i].Redact()
		messages[i].NormalizeLegacyGif()
		messageIDs[i] = messages[i].ID
		if _, cached := s.senderCache.Get(messages[i].SenderID); !cached {
			senderIDs[messages[i].SenderID] = true
		}
	}

	// Cache'te olmayan sender'ları batch yükle.
	// Lookup hatası sayfayı DÜŞÜRMEZ — sentinel sender'la devam edilir.
	if len(senderIDs) > 0 {
		ids := make([]string, 0, len(senderIDs))
		for id := range senderIDs {
			ids = append(ids, id)
		}
		users, err := s.userRepo.GetByIDs(ctx, ids)
		if err != nil {
			log.Printf("[message] sender enrichment degraded: %v", err)
		} else {
			for id, u := range users {
				s.senderCache.Set(id, u)
			}
		}
	}

	for i := range messages {
		if u, ok := s.senderCache.Get(messages[i].SenderID); ok {
			sender := u
			messages[i].Sender = &sender
		} else {
			messages[i].Sender = models.SentinelSender(messages[i].SenderID)
		}
	}

	groups, err := s.reactionRepo.GroupsForMessages(ctx, messageIDs, viewerID)
	if err != nil {
		return err
	}
	for i := range messages {
		if g, ok := groups[messages[i].ID]; ok {
			messages[i].Reactions = g
		}
	}
	return nil
}

// attachSender, tek mesaja sender profili bağlar; hata durumunda sentinel.
func (s *messageService) attachSender(ctx context.Context, m *models.Message) {
	if u, ok := s.senderCache.Get(m.SenderID); ok {
		sender := u
		m.Sender = &sender
		return
	}
	user, err := s.userRepo.GetByID(ctx, m.SenderID)
	if err != nil {
		log.Printf("[message] sender enrichment degraded for %s: %v", m.SenderID, err)
		m.Sender = models.SentinelSender(m.SenderID)
		return
	}
	s.senderCache.Set(m.SenderID, *user)
	m.Sender = user
}

// broadcast, event'i kanalın görünürlük kümesine gönderir:
// global → herkes, diğerleri → üyeler.
func (s *messageService) broadcast(ctx context.Context, channel *models.Channel, event ws.Event) {
	if channel.IsGlobal {
		s.hub.BroadcastToAll(event)
		return
	}
	memberIDs, err := s.channelRepo.MemberIDs(ctx, channel.ID)
	if err != nil {
		log.Printf("[message] broadcast member lookup failed for channel %s: %v", channel.ID, err)
		return
	}
	s.hub.BroadcastToUsers(memberIDs, event)
}

// filterMentions, client'ın gönderdiği mention listesini content'te
// gerçekten geçen @username'lerle sınırlamaz — mention'lar user ID
// taşır, content username taşır; eşleşme client'ın işidir. Burada sadece
// duplicate'ler elenir ve liste makul bir boyutta tutulur.
func (s *messageService) filterMentions(req *models.SendMessageRequest) []string {
	if len(req.Mentions) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(req.Mentions))
	out := make([]string, 0, len(req.Mentions))
	for _, id := range req.Mentions {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		if len(out) == 20 {
			break
		}
	}
	return out
}
