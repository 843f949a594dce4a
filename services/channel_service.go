// Package services, iş mantığı katmanını barındırır.
//
// Service katmanı nedir?
// Handler (HTTP) ile Repository (DB) arasındaki katmandır.
// - Handler: HTTP request/response işleri (parse, status code)
// - Service: İş kuralları (ban kontrolü, yetki, state machine geçişleri)
// - Repository: Saf veri erişimi (SQL)
//
// Service'ler interface olarak tanımlanır — testlerde mock'lanabilir,
// handler'lar concrete tipe bağlanmaz.
package services

import (
	"context"
	"fmt"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
	"github.com/firsat-app/chat-server/repository"
	"github.com/firsat-app/chat-server/ws"
)

// ChannelService, kanal dizini iş mantığı.
type ChannelService interface {
	List(ctx context.Context, userID string) ([]models.ChannelSummary, error)
	GetByID(ctx context.Context, channelID, userID string) (*models.Channel, error)
	CreateGroup(ctx context.Context, userID string, req *models.CreateGroupChannelRequest) (*models.Channel, error)
	Join(ctx context.Context, channelID, userID string) error
	Leave(ctx context.Context, channelID, userID string) error
	MarkRead(ctx context.Context, channelID, userID string) error
	// OpenPrivate, iki kullanıcı arasındaki private kanalı döner veya
	// handshake kuralları izin veriyorsa oluşturur.
	OpenPrivate(ctx context.Context, userID, otherUserID string) (*models.Channel, error)
}

type channelService struct {
	channelRepo repository.ChannelRepository
	requestRepo repository.ChatRequestRepository
	prefsRepo   repository.PreferencesRepository
	banRepo     repository.BanRepository
	hub         ws.EventPublisher
}

// NewChannelService, constructor.
func NewChannelService(
	channelRepo repository.ChannelRepository,
	requestRepo repository.ChatRequestRepository,
	prefsRepo repository.PreferencesRepository,
	banRepo repository.BanRepository,
	hub ws.EventPublisher,
) ChannelService {
	return &channelService{
		channelRepo: channelRepo,
		requestRepo: requestRepo,
		prefsRepo:   prefsRepo,
		banRepo:     banRepo,
		hub:         hub,
	}
}

// List, kullanıcının kanal listesini döner: üye olduğu kanallar + global
// kanal. Global kanalda explicit membership aranmaz — herkes implicit
// üyedir; listede yoksa başa eklenir.
func (s *channelService) List(ctx context.Context, userID string) ([]models.ChannelSummary, error) {
	summaries, err := s.channelRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	hasGlobal := false
	for i := range summaries {
		if summaries[i].IsGlobal {
			hasGlobal = true
			break
		}
	}
	if !hasGlobal {
		global, err := s.channelRepo.GetGlobal(ctx)
		if err != nil {
			// Global kanal provision edilmemiş — ErrConfiguration olarak
			// yukarı taşınır; startup kontrolü ayrıca ops alert üretmiştir.
			return nil, err
		}
		summaries = append([]models.ChannelSummary{{Channel: *global}}, summaries...)
	}

	return summaries, nil
}

// GetByID, kanalı döner. Global kanal herkese açıktır; grup ve private
// kanallar sadece üyelere görünür — üye olmayana NotFound döner (kanalın
// varlığı sızdırılmaz).
func (s *channelService) GetByID(ctx context.Context, channelID, userID string) (*models.Channel, error) {
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

	return channel, nil
}

func (s *channelService) CreateGroup(ctx context.Context, userID string, req *models.CreateGroupChannelRequest) (*models.Channel, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrValidation, err)
	}

	// Global ban'lı kullanıcı kanal oluşturamaz
	if ban, err := s.banRepo.GetActiveForUser(ctx, userID, nil); err != nil {
		return nil, err
	} else if ban != nil {
		return nil, fmt.Errorf("%w: you cannot perform this action", pkg.ErrForbidden)
	}

	channel := &models.Channel{
		Name:      &req.Name,
		CreatedBy: &userID,
	}
	if err := s.channelRepo.CreateGroup(ctx, channel); err != nil {
		return nil, err
	}

	created, err := s.channelRepo.GetByID(ctx, channel.ID)
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToUser(userID, ws.Event{Op: ws.OpChannelCreate, Data: created})
	return created, nil
}

// Join, kullanıcıyı grup kanalına ekler. İdempotent — zaten üye olan
// tekrar katılabilir, hata almaz. Private kanala join edilemez.
func (s *channelService) Join(ctx context.Context, channelID, userID string) error {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if channel.Type == models.ChannelTypePrivate {
		return fmt.Errorf("%w: cannot join a private channel", pkg.ErrForbidden)
	}

	// Kanal scope'lu veya global ban join'i engeller
	if ban, err := s.banRepo.GetActiveForUser(ctx, userID, &channelID); err != nil {
		return err
	} else if ban != nil {
		return fmt.Errorf("%w: you cannot perform this action", pkg.ErrForbidden)
	}

	if err := s.channelRepo.AddMember(ctx, channelID, userID); err != nil {
		return err
	}

	memberIDs, err := s.channelRepo.MemberIDs(ctx, channelID)
	if err == nil {
		s.hub.BroadcastToUsers(memberIDs, ws.Event{
			Op:   ws.OpMemberJoin,
			Data: ws.MemberEventData{ChannelID: channelID, UserID: userID},
		})
	}
	return nil
}

func (s *channelService) Leave(ctx context.Context, channelID, userID string) error {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if channel.IsGlobal {
		return fmt.Errorf("%w: cannot leave the global channel", pkg.ErrValidation)
	}

	if err := s.channelRepo.RemoveMember(ctx, channelID, userID); err != nil {
		return err
	}

	memberIDs, err := s.channelRepo.MemberIDs(ctx, channelID)
	if err == nil {
		s.hub.BroadcastToUsers(memberIDs, ws.Event{
			Op:   ws.OpMemberLeave,
			Data: ws.MemberEventData{ChannelID: channelID, UserID: userID},
		})
	}
	return nil
}

// MarkRead, kullanıcının kanaldaki unread sayacını sıfırlar.
func (s *channelService) MarkRead(ctx context.Context, channelID, userID string) error {
	isMember, err := s.channelRepo.IsMember(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return fmt.Errorf("%w: channel not found", pkg.ErrNotFound)
	}
	return s.channelRepo.ResetUnread(ctx, channelID, userID)
}

// OpenPrivate, private kanal açma akışının tek giriş noktasıdır.
//
// Kurallar sırayla:
// 1. Kendinle DM açılamaz.
// 2. Mevcut kanal varsa doğrudan döner — handshake tekrar gerekmez.
// 3. Block kontrolü İKİ YÖNLÜ: hangi taraf bloklamışsa açılmaz. Bloklanan
//    tarafa detay sızdırılmaz — jenerik NotFound döner.
// 4. Karşı tarafın tercihleri: private mesaj kapalıysa Forbidden;
//    request şartı açıksa ve accepted bir handshake yoksa Forbidden
//    ("chat request required").
// 5. Global ban'lı kullanıcı DM açamaz.
//
// Kanalın kendisi CreatePrivate ile yarışa dayanıklı şekilde oluşturulur.
func (s *channelService) OpenPrivate(ctx context.Context, userID, otherUserID string) (*models.Channel, error) {
	if userID == otherUserID {
		return nil, fmt.Errorf("%w: cannot open a private channel with yourself", pkg.ErrValidation)
	}

	pairKey := models.PairKey(userID, otherUserID)
	if existing, err := s.channelRepo.GetPrivateByPair(ctx, pairKey); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	// Block kontrolü — iki yön ayrı ayrı
	if blocked, err := s.prefsRepo.IsBlocked(ctx, otherUserID, userID); err != nil {
		return nil, err
	} else if blocked {
		// Bloklanmışsın — ama bunu söylemeyiz
		return nil, fmt.Errorf("%w: user not found", pkg.ErrNotFound)
	}
	if blocked, err := s.prefsRepo.IsBlocked(ctx, userID, otherUserID); err != nil {
		return nil, err
	} else if blocked {
		return nil, fmt.Errorf("%w: you have blocked this user", pkg.ErrForbidden)
	}

	if ban, err := s.banRepo.GetActiveForUser(ctx, userID, nil); err != nil {
		return nil, err
	} else if ban != nil {
		return nil, fmt.Errorf("%w: you cannot perform this action", pkg.ErrForbidden)
	}

	// Karşı tarafın tercihleri
	prefs, err := s.prefsRepo.Get(ctx, otherUserID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		prefs = models.DefaultChatPreferences(otherUserID)
	}
	if !prefs.AllowPrivateMessages {
		return nil, fmt.Errorf("%w: this user does not accept private messages", pkg.ErrForbidden)
	}
	if prefs.RequireRequestForPrivate {
		accepted, err := s.hasAcceptedHandshake(ctx, userID, otherUserID)
		if err != nil {
			return nil, err
		}
		if !accepted {
			return nil, fmt.Errorf("%w: a chat request must be accepted first", pkg.ErrForbidden)
		}
	}

	channel := &models.Channel{CreatedBy: &userID}
	created, err := s.channelRepo.CreatePrivate(ctx, channel, userID, otherUserID)
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToUsers([]string{userID, otherUserID}, ws.Event{
		Op: ws.OpChannelCreate, Data: created,
	})
	return created, nil
}

// hasAcceptedHandshake, iki kullanıcı arasında (hangi yönde olursa olsun)
// accepted bir chat request var mı bakar. Accept zaten kanalı oluşturduğu
// için bu path normalde mevcut kanal kontrolünde yakalanır — burası
// kanalın sonradan silindiği kenar durumu kapatır.
func (s *channelService) hasAcceptedHandshake(ctx context.Context, a, b string) (bool, error) {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		req, err := s.requestRepo.GetAcceptedByPair(ctx, pair[0], pair[1])
		if err != nil {
			return false, err
		}
		if req != nil {
			return true, nil
		}
	}
	return false, nil
}
