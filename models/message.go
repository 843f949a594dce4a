package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MessageType, mesajın içerik türünü seçer (tagged variant).
// Metadata alanının hangi şekli taşıyabileceğini message_type belirler —
// structured veri asla content string'inin içine substring olarak gömülmez.
type MessageType string

const (
	MessageTypeText      MessageType = "text"
	MessageTypeImage     MessageType = "image"
	MessageTypeFile      MessageType = "file"
	MessageTypeDealShare MessageType = "deal_share"
	MessageTypeSystem    MessageType = "system"
	MessageTypePing      MessageType = "ping"
	MessageTypeGif       MessageType = "gif"
)

// MaxContentLength, mesaj içeriği üst sınırı (rune cinsinden).
const MaxContentLength = 1000

// DeletedContentMarker, soft-delete edilmiş mesajların API'de görünen içeriği.
// Orijinal içerik audit için DB'de kalır ama hiçbir viewer'a (moderatör
// dahil) serialize edilmez.
const DeletedContentMarker = "[mesaj silindi]"

// legacyGifRegex, eski client'ların content içine gömdüğü "[GIF: url]"
// işaretini tanır. Sadece okuma yönünde compatibility shim olarak kullanılır
// (bkz. NormalizeLegacyGif) — yeni mesajlar her zaman metadata.gif_url taşır.
var legacyGifRegex = regexp.MustCompile(`^\[GIF: (https?://\S+)\]$`)

// Message, bir chat mesajını temsil eder.
// Sender JOIN ile doldurulur; Reactions ve Mentions ayrı tablolardan
// batch yüklenir (N+1 önleme).
type Message struct {
	ID          string          `json:"id"`
	ChannelID   string          `json:"channel_id"`
	SenderID    string          `json:"sender_id"`
	Content     string          `json:"content"`
	MessageType MessageType     `json:"message_type"`
	ReplyToID   *string         `json:"reply_to_id"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	Mentions    []string        `json:"mentioned_users"`
	CreatedAt   time.Time       `json:"created_at"`
	EditedAt    *time.Time      `json:"edited_at"`
	IsDeleted   bool            `json:"is_deleted"`
	Sender      *User           `json:"sender,omitempty"`
	Reactions   []ReactionGroup `json:"reactions"`
}

// GifMetadata, gif mesajlarının metadata şekli.
type GifMetadata struct {
	GifURL string `json:"gif_url"`
}

// DealShareMetadata, deal_share mesajlarının metadata şekli.
// Chat deal'in varlığını doğrulamaz — referansı client UI'ın çözmesi için
// olduğu gibi taşır.
type DealShareMetadata struct {
	DealID string `json:"deal_id"`
}

// Redact, soft-delete edilmiş mesajın içeriğini serialize öncesi maskeler.
// Reply zinciri bütünlüğü için mesaj listeden ÇIKARILMAZ — içerik maskelenir.
func (m *Message) Redact() {
	if !m.IsDeleted {
		return
	}
	m.Content = DeletedContentMarker
	m.Metadata = nil
	m.Mentions = []string{}
}

// NormalizeLegacyGif, content içine gömülü eski "[GIF: url]" işaretini
// canonical temsile (message_type=gif + metadata.gif_url) çevirir.
// Sadece okuma path'inde çağrılır; DB'deki satır değişmez.
func (m *Message) NormalizeLegacyGif() {
	if m.MessageType != MessageTypeText || m.IsDeleted {
		return
	}
	match := legacyGifRegex.FindStringSubmatch(m.Content)
	if match == nil {
		return
	}
	meta, err := json.Marshal(GifMetadata{GifURL: match[1]})
	if err != nil {
		return
	}
	m.MessageType = MessageTypeGif
	m.Metadata = meta
	m.Content = ""
}

// MessagePage, sayfalı mesaj listesi sonucu.
// Mesajlar en yeniden eskiye sıralıdır (newest-first, tutarlı).
type MessagePage struct {
	Messages []Message `json:"messages"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	HasMore  bool      `json:"has_more"`
}

// SendMessageRequest, yeni mesaj gönderme isteği.
type SendMessageRequest struct {
	Content     string          `json:"content"`
	MessageType MessageType     `json:"message_type"`
	ReplyToID   *string         `json:"reply_to_id"`
	Mentions    []string        `json:"mentioned_users"`
	Metadata    json.RawMessage `json:"metadata"`
}

// Validate, SendMessageRequest'in şekil kontrolü.
// İçerik politikası (spam, banned word) burada DEĞİL, moderation rule
// engine'de kontrol edilir — burası sadece yapısal doğrulama yapar.
func (r *SendMessageRequest) Validate() error {
	if r.MessageType == "" {
		r.MessageType = MessageTypeText
	}

	switch r.MessageType {
	case MessageTypeText, MessageTypeImage, MessageTypeFile,
		MessageTypeDealShare, MessageTypeSystem, MessageTypePing, MessageTypeGif:
	default:
		return fmt.Errorf("unknown message type: %s", r.MessageType)
	}

	r.Content = strings.TrimSpace(r.Content)
	contentLen := utf8.RuneCountInString(r.Content)
	if contentLen > MaxContentLength {
		return fmt.Errorf("message content must be at most %d characters", MaxContentLength)
	}

	// Tagged variant kontrolü: metadata şekli message_type'a uymalı.
	switch r.MessageType {
	case MessageTypeGif:
		var meta GifMetadata
		if err := json.Unmarshal(r.Metadata, &meta); err != nil || meta.GifURL == "" {
			return fmt.Errorf("gif messages require metadata.gif_url")
		}
	case MessageTypeDealShare:
		var meta DealShareMetadata
		if err := json.Unmarshal(r.Metadata, &meta); err != nil || meta.DealID == "" {
			return fmt.Errorf("deal_share messages require metadata.deal_id")
		}
	default:
		if contentLen < 1 {
			return fmt.Errorf("message content is required")
		}
	}

	return nil
}

// EditMessageRequest, mesaj düzenleme isteği.
type EditMessageRequest struct {
	Content string `json:"content"`
}

// Validate, EditMessageRequest kontrolü.
func (r *EditMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	contentLen := utf8.RuneCountInString(r.Content)
	if contentLen < 1 {
		return fmt.Errorf("message content is required")
	}
	if contentLen > MaxContentLength {
		return fmt.Errorf("message content must be at most %d characters", MaxContentLength)
	}
	return nil
}

// DeleteMessageRequest, moderatör mesaj silme isteği.
type DeleteMessageRequest struct {
	Reason string `json:"reason"`
}
