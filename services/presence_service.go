package services

import (
	"context"
	"log"
	"time"

	"github.com/firsat-app/chat-server/pkg/cache"
	"github.com/firsat-app/chat-server/repository"
	"github.com/firsat-app/chat-server/ws"
)

// typingTTL: typing göstergesinin yaşam süresi. Client yazmaya devam
// ettikçe typing sinyalini tekrarlar, her sinyal TTL'i yeniler.
const typingTTL = 2 * time.Second

// PresenceService, online durum ve typing göstergesi iş mantığı.
//
// İki veri de EPHEMERAL'dir: hiçbir şey DB'ye yazılmaz, restart'ta
// sıfırlanır. Online = hub'a bağlı; typing = TTL cache'te entry var.
// Best-effort — presence hatası hiçbir mesaj operasyonunu etkilemez.
type PresenceService interface {
	OnlineUsers(ctx context.Context, channelID, viewerID string) ([]string, error)

	// WS hub callback'leri (main.go'da hub.SetCallbacks ile bağlanır)
	HandleTyping(userID, channelID string)
	HandleTypingStop(userID, channelID string)
	HandleConnect(userID string)
	HandleDisconnect(userID string)
}

type presenceService struct {
	channelRepo repository.ChannelRepository
	prefsRepo   repository.PreferencesRepository
	hub         ws.EventPublisher

	// typing: "userID:channelID" → username. TTL dolunca entry düşer;
	// typing_stopped event'i explicit stop'ta gönderilir, TTL düşüşünde
	// gönderilmez — client kendi tarafında da 3sn timeout uygular.
	typing *cache.TTLCache[string, struct{}]
}

// NewPresenceService, constructor.
func NewPresenceService(
	channelRepo repository.ChannelRepository,
	prefsRepo repository.PreferencesRepository,
	hub ws.EventPublisher,
) PresenceService {
	return &presenceService{
		channelRepo: channelRepo,
		prefsRepo:   prefsRepo,
		hub:         hub,
		typing:      cache.New[string, struct{}](typingTTL, 30*time.Second),
	}
}

// OnlineUsers, kanalın şu an bağlı üyelerini döner. Yaklaşıktır:
// hub'a bağlı olmak "online" sayılır, kanala bakıyor olmak şart değil.
// show_online_status=false tercihi olan kullanıcılar listeden çıkarılır.
func (s *presenceService) OnlineUsers(ctx context.Context, channelID, viewerID string) ([]string, error) {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	var candidates []string
	if channel.IsGlobal {
		candidates = s.hub.GetOnlineUserIDs()
	} else {
		memberIDs, err := s.channelRepo.MemberIDs(ctx, channelID)
		if err != nil {
			return nil, err
		}
		for _, id := range memberIDs {
			if s.hub.IsOnline(id) {
				candidates = append(candidates, id)
			}
		}
	}

	online := []string{}
	for _, id := range candidates {
		if id != viewerID && !s.visible(ctx, id) {
			continue
		}
		online = append(online, id)
	}
	return online, nil
}

// HandleTyping, client'tan typing sinyali geldiğinde çağrılır.
// Üyelik kontrolü yapılır — üye olmadığın kanala typing gönderilemez.
// Entry zaten varsa sadece TTL yenilenir, tekrar broadcast edilmez
// (client'lar 2sn içinde tekrar eden sinyalleri zaten yok sayar).
func (s *presenceService) HandleTyping(userID, channelID string) {
	ctx := context.Background()
	if !s.canSignal(ctx, userID, channelID) {
		return
	}

	key := userID + ":" + channelID
	_, already := s.typing.Get(key)
	s.typing.Set(key, struct{}{})
	if already {
		return
	}

	s.fanOut(ctx, channelID, userID, ws.OpTypingStart)
}

// HandleTypingStop, explicit stop sinyalinde entry'yi düşürür ve
// typing_stopped yayınlar.
func (s *presenceService) HandleTypingStop(userID, channelID string) {
	ctx := context.Background()

	key := userID + ":" + channelID
	if _, ok := s.typing.Get(key); !ok {
		return
	}
	s.typing.Delete(key)

	s.fanOut(ctx, channelID, userID, ws.OpTypingStopped)
}

// HandleConnect, kullanıcının ilk WS bağlantısında çağrılır (offline → online).
func (s *presenceService) HandleConnect(userID string) {
	s.broadcastPresence(userID, "online")
}

// HandleDisconnect, son bağlantı kapandığında çağrılır (online → offline).
// Kullanıcının tüm typing entry'leri de düşürülür.
func (s *presenceService) HandleDisconnect(userID string) {
	prefix := userID + ":"
	s.typing.DeleteFunc(func(key string) bool {
		return len(key) > len(prefix) && key[:len(prefix)] == prefix
	})
	s.broadcastPresence(userID, "offline")
}

// broadcastPresence, presence değişikliğini herkese yayınlar —
// show_online_status=false ise hiç yayınlanmaz.
func (s *presenceService) broadcastPresence(userID, status string) {
	if !s.visible(context.Background(), userID) {
		return
	}
	s.hub.BroadcastToAllExcept(userID, ws.Event{
		Op:   ws.OpPresenceUpdate,
		Data: ws.PresenceData{UserID: userID, Status: status},
	})
}

// visible, kullanıcının online durumunun görünür olup olmadığı.
// Tercih okunamazsa görünür varsayılır (default davranış).
func (s *presenceService) visible(ctx context.Context, userID string) bool {
	prefs, err := s.prefsRepo.Get(ctx, userID)
	if err != nil {
		log.Printf("[presence] preference lookup failed for %s: %v", userID, err)
		return true
	}
	if prefs == nil {
		return true
	}
	return prefs.ShowOnlineStatus
}

// canSignal, typing sinyali gönderenin kanalı görebildiğini doğrular.
func (s *presenceService) canSignal(ctx context.Context, userID, channelID string) bool {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return false
	}
	if channel.IsGlobal {
		return true
	}
	isMember, err := s.channelRepo.IsMember(ctx, channelID, userID)
	return err == nil && isMember
}

// fanOut, typing event'ini kanal üyelerine (gönderen hariç) dağıtır.
func (s *presenceService) fanOut(ctx context.Context, channelID, userID, op string) {
	event := ws.Event{
		Op: op,
		Data: ws.TypingStartData{
			UserID:    userID,
			Username:  s.hub.Username(userID),
			ChannelID: channelID,
		},
	}

	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return
	}
	if channel.IsGlobal {
		s.hub.BroadcastToAllExcept(userID, event)
		return
	}
	memberIDs, err := s.channelRepo.MemberIDs(ctx, channelID)
	if err != nil {
		return
	}
	s.hub.BroadcastToUsersExcept(memberIDs, userID, event)
}
