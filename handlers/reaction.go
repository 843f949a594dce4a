package handlers

import (
	"net/http"

	"github.com/firsat-app/chat-server/pkg"
	"github.com/firsat-app/chat-server/services"
)

// ReactionHandler, emoji reaction endpoint'lerini yöneten struct.
type ReactionHandler struct {
	reactionService services.ReactionService
}

// NewReactionHandler, constructor.
func NewReactionHandler(reactionService services.ReactionService) *ReactionHandler {
	return &ReactionHandler{reactionService: reactionService}
}

// Add godoc
// PUT /api/messages/{id}/reactions/{emoji}
// Mesaja reaction ekler. Aynı emoji'ye ikinci kez basmak no-op —
// güncel aggregate listesi döner.
func (h *ReactionHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	groups, err := h.reactionService.Add(r.Context(), r.PathValue("id"), claims.UserID, r.PathValue("emoji"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]any{"reactions": groups})
}

// Remove godoc
// DELETE /api/messages/{id}/reactions/{emoji}
// Kullanıcının kendi reaction'ını kaldırır. Reaction yoksa no-op.
func (h *ReactionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	groups, err := h.reactionService.Remove(r.Context(), r.PathValue("id"), claims.UserID, r.PathValue("emoji"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]any{"reactions": groups})
}
