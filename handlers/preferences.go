package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
	"github.com/firsat-app/chat-server/services"
)

// PreferencesHandler, sohbet tercihleri ve block endpoint'lerini yöneten struct.
type PreferencesHandler struct {
	preferencesService services.PreferencesService
}

// NewPreferencesHandler, constructor.
func NewPreferencesHandler(preferencesService services.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{preferencesService: preferencesService}
}

// Get godoc
// GET /api/preferences
// Kullanıcının sohbet tercihlerini döner. Hiç kaydedilmemişse default'lar döner.
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	prefs, err := h.preferencesService.Get(r.Context(), claims.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, prefs)
}

// Update godoc
// PUT /api/preferences
// Tercihleri kısmi günceller — body'de nil olmayan alanlar yazılır.
//
// Body: { "allow_private_messages": false, "show_online_status": true, ... }
func (h *PreferencesHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.UpdateChatPreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prefs, err := h.preferencesService.Update(r.Context(), claims.UserID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, prefs)
}

// Block godoc
// POST /api/blocks/{userID}
// Kullanıcıyı engeller. Zaten engelliyse no-op.
func (h *PreferencesHandler) Block(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.preferencesService.Block(r.Context(), claims.UserID, r.PathValue("userID")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "user blocked"})
}

// Unblock godoc
// DELETE /api/blocks/{userID}
// Engeli kaldırır. Engel yoksa no-op.
func (h *PreferencesHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.preferencesService.Unblock(r.Context(), claims.UserID, r.PathValue("userID")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "user unblocked"})
}

// Follow godoc
// PUT /api/follows/{userID}
// Marketplace'teki takip durumunu chat'e aynalar. İdempotent.
func (h *PreferencesHandler) Follow(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.preferencesService.Follow(r.Context(), claims.UserID, r.PathValue("userID")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "user followed"})
}

// Unfollow godoc
// DELETE /api/follows/{userID}
// Takip aynasını kaldırır. Kayıt yoksa no-op.
func (h *PreferencesHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.preferencesService.Unfollow(r.Context(), claims.UserID, r.PathValue("userID")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "user unfollowed"})
}

// ListBlocked godoc
// GET /api/blocks
// Kullanıcının engellediği kullanıcıları döner.
func (h *PreferencesHandler) ListBlocked(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	blocks, err := h.preferencesService.ListBlocked(r.Context(), claims.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, blocks)
}
