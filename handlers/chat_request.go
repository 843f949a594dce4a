package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
	"github.com/firsat-app/chat-server/services"
)

// ChatRequestHandler, chat request (private sohbet izni) endpoint'lerini
// yöneten struct.
type ChatRequestHandler struct {
	chatRequestService services.ChatRequestService
}

// NewChatRequestHandler, constructor.
func NewChatRequestHandler(chatRequestService services.ChatRequestService) *ChatRequestHandler {
	return &ChatRequestHandler{chatRequestService: chatRequestService}
}

// Create godoc
// POST /api/chat-requests
// Bir kullanıcıya private sohbet isteği gönderir.
//
// Body: { "recipient_id": "...", "message": "merhaba" }
func (h *ChatRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.SendChatRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.chatRequestService.Send(r.Context(), claims.UserID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, request)
}

// ListPending godoc
// GET /api/chat-requests
// Kullanıcıya gelmiş bekleyen istekleri döner. Süresi dolmuşlar listede
// görünmez.
func (h *ChatRequestHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	requests, err := h.chatRequestService.ListPending(r.Context(), claims.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, requests)
}

// Respond godoc
// POST /api/chat-requests/{id}/respond
// İsteği cevaplar: accept private kanal oluşturur ve cevapta döner,
// reject/ignore sadece durumu günceller.
//
// Body: { "action": "accept" | "reject" | "ignore" }
func (h *ChatRequestHandler) Respond(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.RespondChatRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, channel, err := h.chatRequestService.Respond(r.Context(), r.PathValue("id"), claims.UserID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]any{
		"request": request,
		"channel": channel,
	})
}
