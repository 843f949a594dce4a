// Package models — Ban ve UnbanRequest domain modelleri.
//
// Ban sistemi nasıl çalışır?
// 1. Moderatör bir kullanıcıyı banlar — global (channel_id NULL) veya kanal scoped
// 2. Her sendMessage çağrısı senkron olarak aktif ban kontrolü yapar:
//    session ortasında banlanan kullanıcının bir SONRAKİ gönderimi reddedilir
// 3. Global ban, enforcement açısından tüm kanal scoped ban'ları kapsar
// 4. Banlı kullanıcıya jenerik mesaj döner; gerçek ban sebebi sadece
//    moderatör ban listesinde görünür (evasion koçluğunu önlemek için)
// 5. Banlı kullanıcı bir UnbanRequest açabilir; approve aktif ban'ları düşürür
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Ban, aktif veya geçmiş bir yasaklamayı temsil eder.
// ChannelID nil ise ban globaldir. ExpiresAt nil ise süresizdir.
// (user_id, scope) başına en fazla bir aktif ban — partial unique index.
type Ban struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	ChannelID *string    `json:"channel_id"`
	BannedBy  string     `json:"banned_by"`
	Reason    string     `json:"reason"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`
	IsActive  bool       `json:"is_active"`
}

// IsGlobal, ban'ın tüm kanalları kapsayıp kapsamadığı.
func (b *Ban) IsGlobal() bool {
	return b.ChannelID == nil
}

// InEffect, ban'ın verilen anda yürürlükte olup olmadığı.
// is_active flag'i VE süre birlikte değerlendirilir — süresi dolmuş bir
// ban satırı deactivate edilmemiş olsa bile yürürlükte sayılmaz.
func (b *Ban) InEffect(now time.Time) bool {
	if !b.IsActive {
		return false
	}
	return b.ExpiresAt == nil || now.Before(*b.ExpiresAt)
}

// BanRequest, ban oluşturma isteği.
// DurationDays verilmezse ban süresizdir.
type BanRequest struct {
	UserID       string  `json:"user_id"`
	Reason       string  `json:"reason"`
	ChannelID    *string `json:"channel_id"`
	DurationDays *int    `json:"duration_days"`
}

// Validate, BanRequest kontrolü.
func (r *BanRequest) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	if r.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return fmt.Errorf("ban reason is required")
	}
	if utf8.RuneCountInString(r.Reason) > 512 {
		return fmt.Errorf("ban reason must be at most 512 characters")
	}
	if r.DurationDays != nil && *r.DurationDays < 1 {
		return fmt.Errorf("duration_days must be positive")
	}
	return nil
}

// UnbanRequestStatus, unban isteğinin durumu.
type UnbanRequestStatus string

const (
	UnbanRequestPending  UnbanRequestStatus = "pending"
	UnbanRequestApproved UnbanRequestStatus = "approved"
	UnbanRequestRejected UnbanRequestStatus = "rejected"
)

// UnbanRequest, banlı kullanıcının af talebi.
// Kullanıcı başına aynı anda en fazla bir pending talep bulunur.
type UnbanRequest struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Reason      string             `json:"reason"`
	Status      UnbanRequestStatus `json:"status"`
	RequestedAt time.Time          `json:"requested_at"`
	ReviewedBy  *string            `json:"reviewed_by"`
	ReviewedAt  *time.Time         `json:"reviewed_at"`
}

// CreateUnbanRequestRequest, unban talebi açma isteği.
type CreateUnbanRequestRequest struct {
	Reason string `json:"reason"`
}

// Validate, CreateUnbanRequestRequest kontrolü.
func (r *CreateUnbanRequestRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return fmt.Errorf("reason is required")
	}
	if utf8.RuneCountInString(r.Reason) > 1000 {
		return fmt.Errorf("reason must be at most 1000 characters")
	}
	return nil
}

// ResolveUnbanRequestRequest, moderatörün unban talebini karara bağlaması.
type ResolveUnbanRequestRequest struct {
	Action string `json:"action"` // "approve" veya "reject"
}

// Validate, aksiyon kontrolü.
func (r *ResolveUnbanRequestRequest) Validate() error {
	switch r.Action {
	case "approve", "reject":
		return nil
	}
	return fmt.Errorf("action must be one of: approve, reject")
}
