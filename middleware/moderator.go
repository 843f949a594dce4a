// Package middleware — ModeratorMiddleware, moderasyon yetkisi kontrolü.
//
// AuthMiddleware'den SONRA çalışır — context'te claims mevcuttur.
// models.CanModerate tek yetki noktasıdır; rol string karşılaştırması
// handler'lara dağılmaz.
//
// Kullanım:
//
//	authMw.Require(moderatorMw.Require(http.HandlerFunc(banHandler.List)))
package middleware

import (
	"net/http"

	"github.com/firsat-app/chat-server/handlers"
	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
)

// ModeratorMiddleware, moderatör yetkisi zorunlu kılan middleware.
type ModeratorMiddleware struct{}

// NewModeratorMiddleware, constructor.
func NewModeratorMiddleware() *ModeratorMiddleware {
	return &ModeratorMiddleware{}
}

// Require, moderatör yetkisi zorunlu kılan middleware.
// Context'teki rol CanModerate'i karşılamıyorsa → 403 Forbidden.
func (m *ModeratorMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(handlers.ClaimsContextKey).(*models.IdentityClaims)
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
			return
		}

		if !models.CanModerate(claims.Role) {
			pkg.ErrorWithMessage(w, http.StatusForbidden, "moderator access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
