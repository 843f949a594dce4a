// Package models, chat servisinin domain modellerini tanımlar.
//
// Model nedir?
// Veritabanındaki bir tablonun Go karşılığıdır; aynı zamanda API'den
// gelen/giden verilerin şeklini belirler. json tag'leri serialize davranışını
// kontrol eder.
//
// Kullanıcı kimliği bu servise AİT DEĞİLDİR. users tablosu identity
// servisinin yazdığı bir read-model'dir — chat sadece okur, asla kullanıcı
// oluşturmaz veya credential doğrulamaz.
package models

import "time"

// Role, kullanıcının marketplace genelindeki rolüdür.
// Identity servisi atar, chat sadece yetki kontrolü için okur.
type Role string

const (
	RoleUser       Role = "user"
	RoleVerified   Role = "verified"
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// CanModerate, moderasyon operasyonları (ban, mesaj silme, unban review)
// için tek yetki noktasıdır. Rol string karşılaştırmaları handler'lara
// dağılmaz — her moderasyon path'i bu fonksiyonu çağırır.
func CanModerate(role Role) bool {
	switch role {
	case RoleModerator, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// CanAdminister, admin seviyesi operasyonlar için yetki kontrolü.
func CanAdminister(role Role) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// User, identity servisinden okunan kullanıcı bilgisi.
// Chat tarafında mesaj enrichment'ı (sender profili) için kullanılır.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

// SentinelSender, sender profili yüklenemediğinde mesajla birlikte dönen
// placeholder kullanıcı. Enrichment hatası mesaj gönderimini asla
// başarısız kılmaz — degrade edilmiş sender ile devam edilir.
func SentinelSender(userID string) *User {
	return &User{
		ID:       userID,
		Username: "bilinmeyen",
		Role:     RoleUser,
	}
}
