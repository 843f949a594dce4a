// Package middleware, HTTP request pipeline'ına eklenen ara katmanları barındırır.
//
// Middleware Pattern nedir?
// Her HTTP request, handler'a ulaşmadan önce bir veya daha fazla middleware'dan geçer.
// Middleware'lar zincir şeklinde çalışır: Auth → Moderator → Handler
//
// Go'da middleware bir fonksiyondur:
//   func(next http.Handler) http.Handler
//
// "next" parametresi zincirdeki bir sonraki handler'dır.
// Middleware kendi işini yapar (ör: token doğrula), sonra next'i çağırır.
// Eğer hata varsa next'i çağırmaz → request burada durur.
package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/firsat-app/chat-server/handlers"
	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
	"github.com/firsat-app/chat-server/pkg/cache"
	"github.com/firsat-app/chat-server/repository"
)

// Authenticator, identity servisinin imzaladığı JWT'leri doğrular.
//
// Chat servisi token İHRAÇ ETMEZ. Identity servisiyle paylaşılan HMAC
// secret ile imza kontrol edilir; claims "current user + role" gerçeğidir.
type Authenticator struct {
	jwtSecret []byte
}

// NewAuthenticator, constructor.
func NewAuthenticator(jwtSecret string) *Authenticator {
	return &Authenticator{jwtSecret: []byte(jwtSecret)}
}

// ValidateToken, JWT'yi doğrular ve claims'i döner.
// ws.TokenValidator interface'ini de bu metod karşılar.
func (a *Authenticator) ValidateToken(tokenString string) (*models.IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.IdentityClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.IdentityClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: token missing user_id", pkg.ErrUnauthorized)
	}

	return claims, nil
}

// AuthMiddleware, JWT token doğrulama middleware'ı.
//
// Doğrulamaya ek olarak users read-model'ini senkronize eder: identity
// servisi kullanıcıyı bizim DB'mize yazmaz, biz her authenticated
// request'te claims'ten upsert ederiz. syncCache aynı kullanıcı için
// tekrarlanan upsert'leri 5 dakika bastırır — her request'te DB yazması
// olmaz.
type AuthMiddleware struct {
	authenticator *Authenticator
	userRepo      repository.UserRepository
	syncCache     *cache.TTLCache[string, struct{}]
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(authenticator *Authenticator, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		userRepo:      userRepo,
		syncCache:     cache.New[string, struct{}](5*time.Minute, 10*time.Minute),
	}
}

// Require, JWT token zorunlu kılan middleware.
// Token yoksa veya geçersizse → 401 Unauthorized.
//
// HTTP header formatı: Authorization: Bearer <token>
//
// Middleware nasıl çalışır?
// 1. "Authorization" header'ını oku
// 2. "Bearer " prefix'ini kaldır → raw token string
// 3. Authenticator.ValidateToken() ile doğrula
// 4. Claims'i read-model'e senkronize et (cache'lenmemişse)
// 5. Claims'i context'e ekle → next handler'ı çağır
// 6. Geçersizse → 401 döndür, next ÇAĞIRILMAZ
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Header'dan token'ı al
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		// 2. "Bearer " prefix'ini kaldır
		if !strings.HasPrefix(authHeader, "Bearer ") {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		// 3. Token'ı doğrula
		claims, err := m.authenticator.ValidateToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		// 4. Read-model senkronizasyonu — başarısızlık isteği BLOKLAMAZ.
		// Enrichment degrade olur ama mesajlaşma devam eder.
		if _, synced := m.syncCache.Get(claims.UserID); !synced {
			user := &models.User{
				ID:       claims.UserID,
				Username: claims.Username,
				Role:     claims.Role,
			}
			if err := m.userRepo.Sync(r.Context(), user); err != nil {
				log.Printf("[auth] failed to sync user %s: %v", claims.UserID, err)
			} else {
				m.syncCache.Set(claims.UserID, struct{}{})
			}
		}

		// 5. Context'e claims'i ekle
		// Downstream handler'lar r.Context().Value(handlers.ClaimsContextKey) ile erişir.
		ctx := context.WithValue(r.Context(), handlers.ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
