package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
	"github.com/firsat-app/chat-server/services"
)

// ModerationHandler, ban ve unban request endpoint'lerini yöneten struct.
// Moderatör route'ları ModeratorMiddleware arkasında register edilir —
// handler yine de rol kontrolünü service'e taşır (defense in depth değil,
// service API'sinin kendi başına tutarlı olması için).
type ModerationHandler struct {
	moderationService services.ModerationService
}

// NewModerationHandler, constructor.
func NewModerationHandler(moderationService services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

// CreateBan godoc
// POST /api/bans
// Kullanıcıyı global veya kanal scope'unda banlar. Moderatör gerektirir.
//
// Body: { "user_id": "...", "channel_id": null, "reason": "...", "duration_days": 7 }
func (h *ModerationHandler) CreateBan(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.BanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ban, err := h.moderationService.Ban(r.Context(), claims.UserID, claims.Role, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, ban)
}

// DeleteBan godoc
// DELETE /api/bans/{id}
// Banı kaldırır. Moderatör gerektirir.
func (h *ModerationHandler) DeleteBan(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.moderationService.Unban(r.Context(), claims.UserID, claims.Role, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "ban lifted"})
}

// ListBans godoc
// GET /api/bans
// Aktif banları döner. Ban sebepleri sadece bu endpoint'te görünür.
func (h *ModerationHandler) ListBans(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	bans, err := h.moderationService.ListBans(r.Context(), claims.Role)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, bans)
}

// CreateUnbanRequest godoc
// POST /api/unban-requests
// Banlı kullanıcının af başvurusu. Auth yeterlidir — banlı kullanıcı
// mesaj atamaz ama başvuru yapabilir.
//
// Body: { "reason": "özür metni" }
func (h *ModerationHandler) CreateUnbanRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.CreateUnbanRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.moderationService.RequestUnban(r.Context(), claims.UserID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, request)
}

// ListUnbanRequests godoc
// GET /api/unban-requests
// Bekleyen af başvurularını döner. Moderatör gerektirir.
func (h *ModerationHandler) ListUnbanRequests(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	requests, err := h.moderationService.ListUnbanRequests(r.Context(), claims.Role)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, requests)
}

// ResolveUnbanRequest godoc
// POST /api/unban-requests/{id}/resolve
// Af başvurusunu karara bağlar. approve kullanıcının tüm banlarını
// kaldırır. Moderatör gerektirir.
//
// Body: { "action": "approve" | "reject" }
func (h *ModerationHandler) ResolveUnbanRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.ResolveUnbanRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.moderationService.ResolveUnbanRequest(r.Context(), claims.UserID, claims.Role, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, request)
}
