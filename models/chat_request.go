// Package models — ChatRequest (özel mesaj izin el sıkışması) domain modeli.
//
// Chat request nasıl çalışır?
// 1. A, B'ye private mesaj atmak ister; B'nin tercihleri request şartı koşar
// 2. A bir ChatRequest gönderir → pending
// 3. B accept/reject/ignore eder; accept private kanalı oluşturur
// 4. 7 gün içinde yanıt gelmezse request expire olur (ignored muamelesi görür)
//
// Aynı sıralı (requester, recipient) çifti için aynı anda en fazla bir
// pending request bulunur — DB'deki partial unique index garanti eder.
package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"fmt"
)

// ChatRequestStatus, el sıkışma state machine'inin durumları.
// pending dışındaki tüm durumlar terminaldir.
type ChatRequestStatus string

const (
	ChatRequestPending  ChatRequestStatus = "pending"
	ChatRequestAccepted ChatRequestStatus = "accepted"
	ChatRequestRejected ChatRequestStatus = "rejected"
	ChatRequestIgnored  ChatRequestStatus = "ignored"
	// ChatRequestExpired: TTL dolmuş pending request. UI için ignored ile
	// aynı muameleyi görür ama audit'te ayrı tutulur.
	ChatRequestExpired ChatRequestStatus = "expired"
)

// ChatRequestTTL, bir request'in yanıt bekleme süresi.
const ChatRequestTTL = 7 * 24 * time.Hour

// IsTerminal, durumun artık geçiş kabul etmediğini söyler.
func (s ChatRequestStatus) IsTerminal() bool {
	return s != ChatRequestPending
}

// ChatRequest, bir özel mesaj izni isteğini temsil eder.
type ChatRequest struct {
	ID          string            `json:"id"`
	RequesterID string            `json:"requester_id"`
	RecipientID string            `json:"recipient_id"`
	Message     *string           `json:"message"`
	Status      ChatRequestStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	RespondedAt *time.Time        `json:"responded_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
	Requester   *User             `json:"requester,omitempty"`
}

// EffectiveStatus, lazy expiry uygular: pending ama süresi geçmiş bir
// request okuma anında expired olarak raporlanır — aktif bir background
// sweep şart değildir (periyodik sweep ek olarak çalışabilir).
func (r *ChatRequest) EffectiveStatus(now time.Time) ChatRequestStatus {
	if r.Status == ChatRequestPending && now.After(r.ExpiresAt) {
		return ChatRequestExpired
	}
	return r.Status
}

// SendChatRequestRequest, request gönderme isteği.
type SendChatRequestRequest struct {
	RecipientID string  `json:"recipient_id"`
	Message     *string `json:"message"`
}

// Validate, SendChatRequestRequest kontrolü.
func (r *SendChatRequestRequest) Validate() error {
	r.RecipientID = strings.TrimSpace(r.RecipientID)
	if r.RecipientID == "" {
		return fmt.Errorf("recipient_id is required")
	}
	if r.Message != nil && utf8.RuneCountInString(*r.Message) > 500 {
		return fmt.Errorf("request message must be at most 500 characters")
	}
	return nil
}

// RespondChatRequestRequest, alıcının yanıtı.
type RespondChatRequestRequest struct {
	Action string `json:"action"` // "accept", "reject", "ignore"
}

// Validate, aksiyonun bilinen bir değer olduğunu kontrol eder.
func (r *RespondChatRequestRequest) Validate() error {
	switch r.Action {
	case "accept", "reject", "ignore":
		return nil
	}
	return fmt.Errorf("action must be one of: accept, reject, ignore")
}
