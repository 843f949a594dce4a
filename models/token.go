package models

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims, identity servisinin imzaladığı JWT'nin payload'ı.
//
// Chat servisi token İHRAÇ ETMEZ — sadece identity servisiyle paylaşılan
// secret ile imzayı doğrular ve "current user + role" gerçeğini okur.
// Session/credential yönetimi tamamen identity servisinin sorumluluğundadır.
//
// Bu struct models paketinde tanımlanır çünkü birden fazla katman
// (middleware, ws) tarafından kullanılır — circular dependency'yi önler.
type IdentityClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}
