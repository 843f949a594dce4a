package services

import (
	"context"
	"fmt"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
	"github.com/firsat-app/chat-server/repository"
)

// PreferencesService, chat tercihleri ve block listesi iş mantığı.
// Tercihleri sadece sahibi okur ve değiştirir — handler userID'yi her
// zaman token claim'lerinden alır, path'ten değil.
type PreferencesService interface {
	Get(ctx context.Context, userID string) (*models.ChatPreferences, error)
	Update(ctx context.Context, userID string, req *models.UpdateChatPreferencesRequest) (*models.ChatPreferences, error)

	Block(ctx context.Context, blockerID, targetID string) error
	Unblock(ctx context.Context, blockerID, targetID string) error
	ListBlocked(ctx context.Context, blockerID string) ([]models.UserBlock, error)

	// Follow/Unfollow, marketplace'teki takip durumunu chat'in read-model'ine
	// aynalar. Handshake bunu auto_accept_requests_from_followers tercihi
	// için okur.
	Follow(ctx context.Context, followerID, targetID string) error
	Unfollow(ctx context.Context, followerID, targetID string) error
}

type preferencesService struct {
	prefsRepo repository.PreferencesRepository
	userRepo  repository.UserRepository
}

// NewPreferencesService, constructor.
func NewPreferencesService(prefsRepo repository.PreferencesRepository, userRepo repository.UserRepository) PreferencesService {
	return &preferencesService{prefsRepo: prefsRepo, userRepo: userRepo}
}

// Get, tercihleri döner; hiç kaydedilmemişse default'lar.
func (s *preferencesService) Get(ctx context.Context, userID string) (*models.ChatPreferences, error) {
	prefs, err := s.prefsRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		return models.DefaultChatPreferences(userID), nil
	}
	return prefs, nil
}

// Update, partial update uygular: nil alanlar mevcut (veya default)
// değerini korur. İlk update satırı oluşturur.
func (s *preferencesService) Update(ctx context.Context, userID string, req *models.UpdateChatPreferencesRequest) (*models.ChatPreferences, error) {
	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	req.Apply(prefs)
	prefs.UserID = userID

	if err := s.prefsRepo.Upsert(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// Block, hedef kullanıcıyı engeller. İdempotent — tekrar engellemek hata
// değil. Kendini engelleyemezsin.
func (s *preferencesService) Block(ctx context.Context, blockerID, targetID string) error {
	if blockerID == targetID {
		return fmt.Errorf("%w: cannot block yourself", pkg.ErrValidation)
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}
	return s.prefsRepo.Block(ctx, blockerID, targetID)
}

// Unblock, engeli kaldırır. Olmayan engeli kaldırmak no-op.
func (s *preferencesService) Unblock(ctx context.Context, blockerID, targetID string) error {
	return s.prefsRepo.Unblock(ctx, blockerID, targetID)
}

func (s *preferencesService) ListBlocked(ctx context.Context, blockerID string) ([]models.UserBlock, error) {
	return s.prefsRepo.ListBlocked(ctx, blockerID)
}

// Follow, takip aynasını yazar. İdempotent. Kendini takip edemezsin.
func (s *preferencesService) Follow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return fmt.Errorf("%w: cannot follow yourself", pkg.ErrValidation)
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}
	return s.prefsRepo.Follow(ctx, followerID, targetID)
}

// Unfollow, takip aynasını siler. Olmayan kaydı silmek no-op.
func (s *preferencesService) Unfollow(ctx context.Context, followerID, targetID string) error {
	return s.prefsRepo.Unfollow(ctx, followerID, targetID)
}
