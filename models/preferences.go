package models

import "time"

// ChatPreferences, kullanıcı başına chat ayarları.
// Handshake (chat request şart mı?) ve presence (online görünürlük)
// component'leri okur; sadece sahibi değiştirebilir.
//
// Satır yoksa DefaultChatPreferences dönülür — her kullanıcı için
// satır oluşturmak gerekmez, ilk update'te yazılır (upsert).
type ChatPreferences struct {
	UserID                          string `json:"user_id"`
	AllowPrivateMessages            bool   `json:"allow_private_messages"`
	RequireRequestForPrivate        bool   `json:"require_request_for_private"`
	AutoAcceptRequestsFromFollowers bool   `json:"auto_accept_requests_from_followers"`
	ShowOnlineStatus                bool   `json:"show_online_status"`
	NotificationsEnabled            bool   `json:"notifications_enabled"`
	SoundEnabled                    bool   `json:"sound_enabled"`
}

// DefaultChatPreferences, hiç ayar kaydetmemiş kullanıcının etkin ayarları.
// Varsayılan: private mesaja açık ama request şartlı.
func DefaultChatPreferences(userID string) *ChatPreferences {
	return &ChatPreferences{
		UserID:                   userID,
		AllowPrivateMessages:     true,
		RequireRequestForPrivate: true,
		ShowOnlineStatus:         true,
		NotificationsEnabled:     true,
		SoundEnabled:             true,
	}
}

// UpdateChatPreferencesRequest, partial update isteği.
// Pointer alanlar nil ise o alan değiştirilmez.
type UpdateChatPreferencesRequest struct {
	AllowPrivateMessages            *bool `json:"allow_private_messages"`
	RequireRequestForPrivate        *bool `json:"require_request_for_private"`
	AutoAcceptRequestsFromFollowers *bool `json:"auto_accept_requests_from_followers"`
	ShowOnlineStatus                *bool `json:"show_online_status"`
	NotificationsEnabled            *bool `json:"notifications_enabled"`
	SoundEnabled                    *bool `json:"sound_enabled"`
}

// Apply, nil olmayan alanları mevcut ayarların üstüne yazar.
func (r *UpdateChatPreferencesRequest) Apply(p *ChatPreferences) {
	if r.AllowPrivateMessages != nil {
		p.AllowPrivateMessages = *r.AllowPrivateMessages
	}
	if r.RequireRequestForPrivate != nil {
		p.RequireRequestForPrivate = *r.RequireRequestForPrivate
	}
	if r.AutoAcceptRequestsFromFollowers != nil {
		p.AutoAcceptRequestsFromFollowers = *r.AutoAcceptRequestsFromFollowers
	}
	if r.ShowOnlineStatus != nil {
		p.ShowOnlineStatus = *r.ShowOnlineStatus
	}
	if r.NotificationsEnabled != nil {
		p.NotificationsEnabled = *r.NotificationsEnabled
	}
	if r.SoundEnabled != nil {
		p.SoundEnabled = *r.SoundEnabled
	}
}

// UserBlock, bir kullanıcının başka bir kullanıcıyı engellemesi.
// Chat request handshake'i ve private kanal oluşturmayı bloklar.
type UserBlock struct {
	BlockerID string    `json:"blocker_id"`
	BlockedID string    `json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}
