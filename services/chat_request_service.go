package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
	"github.com/firsat-app/chat-server/pkg/ratelimit"
	"github.com/firsat-app/chat-server/repository"
	"github.com/firsat-app/chat-server/ws"
)

// ChatRequestService, özel mesaj izin el sıkışmasının iş mantığı.
//
// State machine: pending → accepted | rejected | ignored | expired.
// pending dışındaki her durum terminaldir; geçişler repository'de
// compare-and-set ile uygulanır, yarışan iki respond'dan biri kazanır.
type ChatRequestService interface {
	Send(ctx context.Context, requesterID string, req *models.SendChatRequestRequest) (*models.ChatRequest, error)
	ListPending(ctx context.Context, recipientID string) ([]models.ChatRequest, error)
	// Respond, alıcının kararını uygular. accept private kanalı oluşturur
	// ve döner; reject/ignore için kanal nil'dir.
	Respond(ctx context.Context, requestID, recipientID string, req *models.RespondChatRequestRequest) (*models.ChatRequest, *models.Channel, error)
	// SweepExpired, süresi geçmiş pending request'leri expire eder.
	// Periyodik olarak main.go'daki ticker'dan çağrılır.
	SweepExpired(ctx context.Context) error
}

type chatRequestService struct {
	requestRepo repository.ChatRequestRepository
	channelRepo repository.ChannelRepository
	prefsRepo   repository.PreferencesRepository
	banRepo     repository.BanRepository
	userRepo    repository.UserRepository
	limiter     *ratelimit.RequestRateLimiter
	hub         ws.EventPublisher
}

// NewChatRequestService, constructor.
func NewChatRequestService(
	requestRepo repository.ChatRequestRepository,
	channelRepo repository.ChannelRepository,
	prefsRepo repository.PreferencesRepository,
	banRepo repository.BanRepository,
	userRepo repository.UserRepository,
	limiter *ratelimit.RequestRateLimiter,
	hub ws.EventPublisher,
) ChatRequestService {
	return &chatRequestService{
		requestRepo: requestRepo,
		channelRepo: channelRepo,
		prefsRepo:   prefsRepo,
		banRepo:     banRepo,
		userRepo:    userRepo,
		limiter:     limiter,
		hub:         hub,
	}
}

// Send, yeni bir chat request oluşturur.
//
// Kurallar:
// - Kendine request gönderilemez.
// - Alıcı var olmalı (read-model'de).
// - Block İKİ YÖNLÜ kontrol edilir; bloklanan tarafa jenerik NotFound.
// - Alıcının tercihleri private mesajı kapatmışsa Forbidden.
// - Aralarında zaten private kanal varsa request anlamsız → Conflict.
// - Global ban'lı kullanıcı request gönderemez.
// - Rate limit: taciz vektörü — pencere uzun, limit düşük.
// - Çift başına tek pending: DB partial unique index, yarışta Conflict.
// - Alıcının auto_accept_requests_from_followers tercihi açıksa ve
//   requester onu takip ediyorsa request pending'e düşmeden kabul edilir.
func (s *chatRequestService) Send(ctx context.Context, requesterID string, req *models.SendChatRequestRequest) (*models.ChatRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrValidation, err)
	}
	if req.RecipientID == requesterID {
		return nil, fmt.Errorf("%w: cannot send a chat request to yourself", pkg.ErrValidation)
	}

	if _, err := s.userRepo.GetByID(ctx, req.RecipientID); err != nil {
		return nil, err
	}

	if ban, err := s.banRepo.GetActiveForUser(ctx, requesterID, nil); err != nil {
		return nil, err
	} else if ban != nil {
		return nil, fmt.Errorf("%w: you cannot perform this action", pkg.ErrForbidden)
	}

	if blocked, err := s.prefsRepo.IsBlocked(ctx, req.RecipientID, requesterID); err != nil {
		return nil, err
	} else if blocked {
		return nil, fmt.Errorf("%w: user not found", pkg.ErrNotFound)
	}
	if blocked, err := s.prefsRepo.IsBlocked(ctx, requesterID, req.RecipientID); err != nil {
		return nil, err
	} else if blocked {
		return nil, fmt.Errorf("%w: you have blocked this user", pkg.ErrForbidden)
	}

	prefs, err := s.prefsRepo.Get(ctx, req.RecipientID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		prefs = models.DefaultChatPreferences(req.RecipientID)
	}
	if !prefs.AllowPrivateMessages {
		return nil, fmt.Errorf("%w: this user does not accept private messages", pkg.ErrForbidden)
	}

	// Kanal zaten varsa handshake gereksiz
	if existing, err := s.channelRepo.GetPrivateByPair(ctx, models.PairKey(requesterID, req.RecipientID)); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: a private channel already exists with this user", pkg.ErrConflict)
	}

	if !s.limiter.Allow(requesterID) {
		return nil, fmt.Errorf("%w: too many chat requests, try again in %s",
			pkg.ErrRateLimited, ratelimit.FormatRetryMessage(s.limiter.RetryAfterSeconds(requesterID)))
	}

	request := &models.ChatRequest{
		RequesterID: requesterID,
		RecipientID: req.RecipientID,
		Message:     req.Message,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	// Alıcı "takipçilerden gelenleri otomatik kabul et" demişse ve requester
	// onu takip ediyorsa, pending aşaması atlanır: request anında accepted
	// olur ve private kanal açılır. Alıcıya onay ekranı hiç düşmez.
	if prefs.AutoAcceptRequestsFromFollowers {
		follows, err := s.prefsRepo.IsFollowing(ctx, requesterID, req.RecipientID)
		if err != nil {
			return nil, err
		}
		if follows {
			return s.autoAccept(ctx, request.ID, req.RecipientID)
		}
	}

	created, err := s.requestRepo.GetByID(ctx, request.ID)
	if err != nil {
		return nil, err
	}

	// Sadece alıcıya bildir — requester kendi isteğini zaten biliyor
	s.hub.BroadcastToUser(req.RecipientID, ws.Event{Op: ws.OpChatRequestCreate, Data: created})
	return created, nil
}

// autoAccept, takipçi otomatik kabulünü uygular: request accepted'a
// çekilir, private kanal açılır, iki tarafa da channel_create yayınlanır.
// Alıcıya chat_request_create GİTMEZ — onaylaması gereken bir şey yok.
func (s *chatRequestService) autoAccept(ctx context.Context, requestID, recipientID string) (*models.ChatRequest, error) {
	if _, err := s.requestRepo.UpdateStatus(ctx, requestID, models.ChatRequestAccepted); err != nil {
		return nil, err
	}
	accepted, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	channel, err := s.channelRepo.CreatePrivate(ctx, &models.Channel{CreatedBy: &recipientID}, accepted.RequesterID, recipientID)
	if err != nil {
		return nil, err
	}
	log.Printf("[chat-request] auto-accepted request %s from follower %s", requestID, accepted.RequesterID)

	s.hub.BroadcastToUsers([]string{accepted.RequesterID, recipientID}, ws.Event{
		Op: ws.OpChannelCreate, Data: channel,
	})
	return accepted, nil
}

func (s *chatRequestService) ListPending(ctx context.Context, recipientID string) ([]models.ChatRequest, error) {
	return s.requestRepo.ListPendingForRecipient(ctx, recipientID)
}

// Respond, alıcının accept/reject/ignore kararını uygular.
//
// Sadece ALICI yanıtlayabilir — requester kendi isteğini yanıtlayamaz,
// üçüncü taraf hiç göremez (NotFound).
//
// Lazy expiry: süresi geçmiş pending request yanıtlanamaz — okuma anında
// expired kabul edilir ve InvalidState döner.
//
// Accept akışı: requester'ın ŞU ANKİ ban durumu tekrar kontrol edilir —
// request gönderildikten sonra banlanmış olabilir. Banlıysa accept
// reddedilir (InvalidState), request pending kalır ve doğal yolla expire olur.
func (s *chatRequestService) Respond(ctx context.Context, requestID, recipientID string, req *models.RespondChatRequestRequest) (*models.ChatRequest, *models.Channel, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", pkg.ErrValidation, err)
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if request.RecipientID != recipientID {
		// Requester veya üçüncü taraf — varlığı sızdırma
		return nil, nil, fmt.Errorf("%w: chat request not found", pkg.ErrNotFound)
	}

	now := time.Now()
	if status := request.EffectiveStatus(now); status.IsTerminal() {
		return nil, nil, fmt.Errorf("%w: chat request is already %s", pkg.ErrInvalidState, status)
	}

	var target models.ChatRequestStatus
	switch req.Action {
	case "accept":
		target = models.ChatRequestAccepted
	case "reject":
		target = models.ChatRequestRejected
	case "ignore":
		target = models.ChatRequestIgnored
	}

	if target == models.ChatRequestAccepted {
		// Requester bu arada banlanmış olabilir — accept'i reddet
		if ban, err := s.banRepo.GetActiveForUser(ctx, request.RequesterID, nil); err != nil {
			return nil, nil, err
		} else if ban != nil {
			return nil, nil, fmt.Errorf("%w: this request can no longer be accepted", pkg.ErrInvalidState)
		}
	}

	// Compare-and-set: yarışan respond'lardan sadece biri geçer
	won, err := s.requestRepo.UpdateStatus(ctx, requestID, target)
	if err != nil {
		return nil, nil, err
	}
	if !won {
		return nil, nil, fmt.Errorf("%w: chat request was already resolved", pkg.ErrInvalidState)
	}

	updated, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}

	var channel *models.Channel
	if target == models.ChatRequestAccepted {
		channel, err = s.channelRepo.CreatePrivate(ctx, &models.Channel{CreatedBy: &recipientID}, request.RequesterID, recipientID)
		if err != nil {
			return nil, nil, err
		}
		s.hub.BroadcastToUsers([]string{request.RequesterID, recipientID}, ws.Event{
			Op: ws.OpChannelCreate, Data: channel,
		})
	}

	// ignore sessizdir: requester'a bildirim GİTMEZ — reddedildiğini bile
	// görmemesi ignore'un amacıdır.
	if target != models.ChatRequestIgnored {
		s.hub.BroadcastToUser(request.RequesterID, ws.Event{Op: ws.OpChatRequestUpdate, Data: updated})
	}

	return updated, channel, nil
}

// SweepExpired, audit tutarlılığı için süresi geçmiş pending'leri expired'a
// çevirir. Lazy expiry zaten okuma yolunda uygulandığından sweep'in
// gecikmesi davranışı etkilemez.
func (s *chatRequestService) SweepExpired(ctx context.Context) error {
	expired, err := s.requestRepo.MarkExpired(ctx)
	if err != nil {
		return err
	}
	if expired > 0 {
		log.Printf("[chat-request] swept %d expired requests", expired)
	}
	return nil
}
