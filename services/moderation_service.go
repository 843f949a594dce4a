package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
	"github.com/firsat-app/chat-server/pkg/email"
	"github.com/firsat-app/chat-server/repository"
	"github.com/firsat-app/chat-server/ws"
)

// ModerationService, ban yaşam döngüsü ve unban workflow iş mantığı.
//
// Görünürlük kuralı: ban SEBEBİ sadece moderatör listesinde görünür.
// Banlı kullanıcıya her yerde jenerik mesaj döner — sebep paylaşmak
// evasion koçluğuna dönüşür.
type ModerationService interface {
	IsBanned(ctx context.Context, userID string, channelID *string) (bool, error)
	Ban(ctx context.Context, actorID string, actorRole models.Role, req *models.BanRequest) (*models.Ban, error)
	Unban(ctx context.Context, actorID string, actorRole models.Role, banID string) error
	ListBans(ctx context.Context, actorRole models.Role) ([]models.Ban, error)

	RequestUnban(ctx context.Context, userID string, req *models.CreateUnbanRequestRequest) (*models.UnbanRequest, error)
	ListUnbanRequests(ctx context.Context, actorRole models.Role) ([]models.UnbanRequest, error)
	ResolveUnbanRequest(ctx context.Context, actorID string, actorRole models.Role, requestID string, req *models.ResolveUnbanRequestRequest) (*models.UnbanRequest, error)
}

type moderationService struct {
	banRepo     repository.BanRepository
	userRepo    repository.UserRepository
	alertSender email.AlertSender
	hub         ws.EventPublisher
}

// NewModerationService, constructor.
func NewModerationService(
	banRepo repository.BanRepository,
	userRepo repository.UserRepository,
	alertSender email.AlertSender,
	hub ws.EventPublisher,
) ModerationService {
	return &moderationService{
		banRepo:     banRepo,
		userRepo:    userRepo,
		alertSender: alertSender,
		hub:         hub,
	}
}

// IsBanned, kullanıcının verilen scope'ta yürürlükte bir ban'ı olup
// olmadığını söyler. Global ban her scope'u kapsar; süre dolmuşsa ban
// yürürlükte sayılmaz (satır deactivate edilmemiş olsa bile).
func (s *moderationService) IsBanned(ctx context.Context, userID string, channelID *string) (bool, error) {
	ban, err := s.banRepo.GetActiveForUser(ctx, userID, channelID)
	if err != nil {
		return false, err
	}
	return ban != nil, nil
}

// Ban, kullanıcıyı yasaklar.
//
// - actor CanModerate olmalı; moderatör kendini banlayamaz.
// - Moderatör, kendinden üstün veya eşit rolü banlayamaz (admin moderatörü
//   banlar, tersi olmaz).
// - Aynı (user, scope) için ikinci aktif ban Conflict — DB index garantisi.
// - Banlı kullanıcıya WS üzerinden jenerik bildirim gider (sebepsiz).
func (s *moderationService) Ban(ctx context.Context, actorID string, actorRole models.Role, req *models.BanRequest) (*models.Ban, error) {
	if !models.CanModerate(actorRole) {
		return nil, fmt.Errorf("%w: moderator access required", pkg.ErrForbidden)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrValidation, err)
	}
	if req.UserID == actorID {
		return nil, fmt.Errorf("%w: you cannot ban yourself", pkg.ErrValidation)
	}

	target, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	// Yetki hiyerarşisi: hedef de moderatörse, actor admin olmalı
	if models.CanModerate(target.Role) && !models.CanAdminister(actorRole) {
		return nil, fmt.Errorf("%w: cannot ban a moderator", pkg.ErrForbidden)
	}

	ban := &models.Ban{
		UserID:    req.UserID,
		ChannelID: req.ChannelID,
		BannedBy:  actorID,
		Reason:    req.Reason,
	}
	if req.DurationDays != nil {
		expires := time.Now().AddDate(0, 0, *req.DurationDays)
		ban.ExpiresAt = &expires
	}

	if err := s.banRepo.Create(ctx, ban); err != nil {
		return nil, err
	}

	created, err := s.banRepo.GetByID(ctx, ban.ID)
	if err != nil {
		return nil, err
	}

	log.Printf("[moderation] user %s banned by %s (scope=%v, expires=%v)",
		req.UserID, actorID, req.ChannelID, created.ExpiresAt)

	// Jenerik bildirim — sebep YOK
	s.hub.BroadcastToUser(req.UserID, ws.Event{
		Op:   ws.OpBanNotice,
		Data: ws.BanNoticeData{ChannelID: req.ChannelID},
	})

	return created, nil
}

// Unban, tek bir ban'ı kaldırır.
func (s *moderationService) Unban(ctx context.Context, actorID string, actorRole models.Role, banID string) error {
	if !models.CanModerate(actorRole) {
		return fmt.Errorf("%w: moderator access required", pkg.ErrForbidden)
	}

	ban, err := s.banRepo.GetByID(ctx, banID)
	if err != nil {
		return err
	}

	if err := s.banRepo.Deactivate(ctx, banID); err != nil {
		return err
	}

	log.Printf("[moderation] ban %s lifted by %s (user=%s)", banID, actorID, ban.UserID)
	s.hub.BroadcastToUser(ban.UserID, ws.Event{Op: ws.OpUnbanNotice})
	return nil
}

// ListBans, aktif ban listesini döner — sebepler dahil.
// Bu, ban sebebinin görünür olduğu TEK yerdir.
func (s *moderationService) ListBans(ctx context.Context, actorRole models.Role) ([]models.Ban, error) {
	if !models.CanModerate(actorRole) {
		return nil, fmt.Errorf("%w: moderator access required", pkg.ErrForbidden)
	}
	return s.banRepo.ListActive(ctx)
}

// RequestUnban, banlı kullanıcının af talebini açar.
//
// - Sadece gerçekten banlı kullanıcı talep açabilir.
// - Kullanıcı başına tek pending talep — DB index, yarışta Conflict.
// - Operasyon ekibine alert email'i gider (best-effort, talebi bloklamaz).
func (s *moderationService) RequestUnban(ctx context.Context, userID string, req *models.CreateUnbanRequestRequest) (*models.UnbanRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrValidation, err)
	}

	ban, err := s.banRepo.GetActiveForUser(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	if ban == nil {
		return nil, fmt.Errorf("%w: you have no active ban to appeal", pkg.ErrValidation)
	}

	request := &models.UnbanRequest{
		UserID: userID,
		Reason: req.Reason,
	}
	if err := s.banRepo.CreateUnbanRequest(ctx, request); err != nil {
		return nil, err
	}

	created, err := s.banRepo.GetUnbanRequestByID(ctx, request.ID)
	if err != nil {
		return nil, err
	}

	// Ops alert — başarısızlık talebi düşürmez
	go func() {
		subject := "New unban request"
		body := fmt.Sprintf("User %s opened an unban request.\n\nReason: %s", userID, req.Reason)
		if err := s.alertSender.SendOpsAlert(context.Background(), subject, body); err != nil {
			log.Printf("[moderation] unban request alert failed: %v", err)
		}
	}()

	return created, nil
}

func (s *moderationService) ListUnbanRequests(ctx context.Context, actorRole models.Role) ([]models.UnbanRequest, error) {
	if !models.CanModerate(actorRole) {
		return nil, fmt.Errorf("%w: moderator access required", pkg.ErrForbidden)
	}
	return s.banRepo.ListPendingUnbanRequests(ctx)
}

// ResolveUnbanRequest, moderatörün approve/reject kararını uygular.
// approve, kullanıcının TÜM aktif ban'larını düşürür. Yarışan iki karar
// compare-and-set ile çözülür — sadece ilki geçer.
func (s *moderationService) ResolveUnbanRequest(ctx context.Context, actorID string, actorRole models.Role, requestID string, req *models.ResolveUnbanRequestRequest) (*models.UnbanRequest, error) {
	if !models.CanModerate(actorRole) {
		return nil, fmt.Errorf("%w: moderator access required", pkg.ErrForbidden)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrValidation, err)
	}

	request, err := s.banRepo.GetUnbanRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	target := models.UnbanRequestRejected
	if req.Action == "approve" {
		target = models.UnbanRequestApproved
	}

	won, err := s.banRepo.ResolveUnbanRequest(ctx, requestID, target, actorID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, fmt.Errorf("%w: unban request was already resolved", pkg.ErrInvalidState)
	}

	if target == models.UnbanRequestApproved {
		lifted, err := s.banRepo.DeactivateAllForUser(ctx, request.UserID)
		if err != nil {
			return nil, err
		}
		log.Printf("[moderation] unban request %s approved by %s — %d bans lifted for user %s",
			requestID, actorID, lifted, request.UserID)
		s.hub.BroadcastToUser(request.UserID, ws.Event{Op: ws.OpUnbanNotice})
	} else {
		log.Printf("[moderation] unban request %s rejected by %s", requestID, actorID)
	}

	return s.banRepo.GetUnbanRequestByID(ctx, requestID)
}
