package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
	"github.com/firsat-app/chat-server/services"
)

// MessageHandler, mesaj endpoint'lerini yöneten struct.
type MessageHandler struct {
	messageService services.MessageService
}

// NewMessageHandler, constructor.
func NewMessageHandler(messageService services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// List godoc
// GET /api/channels/{id}/messages?page=1&page_size=50
// Mesajları sayfalı döner — en yeni mesajlar önce.
//
// Query parametreleri:
// - page: 1 tabanlı sayfa numarası (default 1)
// - page_size: Sayfa başına mesaj (default 50, max 100)
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	channelID := r.PathValue("id")

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}

	pageSize := 50
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= 100 {
			pageSize = parsed
		}
	}

	result, err := h.messageService.Page(r.Context(), channelID, claims.UserID, page, pageSize)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, result)
}

// Create godoc
// POST /api/channels/{id}/messages
// Yeni mesaj gönderir. Tüm mesaj yazma işlemleri bu HTTP endpoint'inden
// geçer — WebSocket sadece okuma/bildirim kanalıdır.
//
// Body: { "content": "...", "message_type": "text", "reply_to_id": null, "mentions": [], "metadata": {} }
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := h.messageService.Send(r.Context(), r.PathValue("id"), claims.UserID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, message)
}

// Update godoc
// PUT /api/messages/{id}
// Mesaj içeriğini düzenler. Sadece mesajın sahibi düzenleyebilir,
// sadece text mesajlar düzenlenebilir.
func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.EditMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := h.messageService.Edit(r.Context(), r.PathValue("id"), claims.UserID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, message)
}

// Delete godoc
// DELETE /api/messages/{id}
// Mesajı soft-delete eder. Sadece moderatör-ve-üstü roller silebilir.
// Opsiyonel reason body'de gelir ve loglanır.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	// Reason opsiyonel — body boş olabilir, decode hatası yoksayılır.
	var req models.DeleteMessageRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.messageService.Delete(r.Context(), r.PathValue("id"), claims.UserID, claims.Role, req.Reason); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "message deleted"})
}
