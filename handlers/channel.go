package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
	"github.com/firsat-app/chat-server/services"
)

// ChannelHandler, kanal endpoint'lerini yöneten struct.
type ChannelHandler struct {
	channelService  services.ChannelService
	presenceService services.PresenceService
}

// NewChannelHandler, constructor.
func NewChannelHandler(channelService services.ChannelService, presenceService services.PresenceService) *ChannelHandler {
	return &ChannelHandler{
		channelService:  channelService,
		presenceService: presenceService,
	}
}

// List godoc
// GET /api/channels
// Kullanıcının kanal dizinini döner: global kanal + üye olduğu grup ve
// private kanallar, son mesaj önizlemesi ve unread sayısıyla birlikte.
func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	channels, err := h.channelService.List(r.Context(), claims.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, channels)
}

// Get godoc
// GET /api/channels/{id}
// Tek kanalı döner. Üyesi olunmayan private/grup kanallar 404 döner —
// kanal varlığı sızdırılmaz.
func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	channel, err := h.channelService.GetByID(r.Context(), r.PathValue("id"), claims.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, channel)
}

// CreateGroup godoc
// POST /api/channels/groups
// Yeni grup kanalı oluşturur. Oluşturan otomatik üye olur.
func (h *ChannelHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.CreateGroupChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	channel, err := h.channelService.CreateGroup(r.Context(), claims.UserID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, channel)
}

// OpenPrivate godoc
// POST /api/channels/private
// İki kullanıcı arasındaki private kanalı döner, yoksa ve handshake
// kuralları izin veriyorsa oluşturur. Idempotent — var olan kanal için
// tekrar çağırmak aynı kanalı döner.
func (h *ChannelHandler) OpenPrivate(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.CreatePrivateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	channel, err := h.channelService.OpenPrivate(r.Context(), claims.UserID, req.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, channel)
}

// Join godoc
// POST /api/channels/{id}/join
// Grup kanalına katılır. Zaten üyeyse no-op.
func (h *ChannelHandler) Join(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.channelService.Join(r.Context(), r.PathValue("id"), claims.UserID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "joined channel"})
}

// Leave godoc
// POST /api/channels/{id}/leave
// Grup veya private kanaldan ayrılır. Global kanaldan ayrılınamaz.
func (h *ChannelHandler) Leave(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.channelService.Leave(r.Context(), r.PathValue("id"), claims.UserID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "left channel"})
}

// MarkRead godoc
// POST /api/channels/{id}/read
// Kanalın unread sayacını sıfırlar.
func (h *ChannelHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.channelService.MarkRead(r.Context(), r.PathValue("id"), claims.UserID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "channel marked as read"})
}

// Online godoc
// GET /api/channels/{id}/online
// Kanalda şu an online olan kullanıcı ID'lerini döner.
// show_online_status=false olan kullanıcılar listede görünmez.
func (h *ChannelHandler) Online(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	userIDs, err := h.presenceService.OnlineUsers(r.Context(), r.PathValue("id"), claims.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]any{"user_ids": userIDs})
}
