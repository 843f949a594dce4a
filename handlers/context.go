package handlers

import (
	"net/http"

	"github.com/firsat-app/chat-server/models"
)

// ClaimsContextKey, context'te doğrulanmış JWT claim'lerini taşıyan key.
//
// Go'da context.Value() any tip kabul eder — string key kullanmak çakışmaya
// neden olabilir. Özel bir tip tanımlayarak namespace collision'ı önleriz.
//
// AuthMiddleware token'ı doğrulayıp claim'leri buraya koyar; handler'lar
// currentClaims ile okur. Chat servisi kendi user session'ı tutmaz —
// "kim olduğun" gerçeği her istekte identity token'ından gelir.
type contextKey string

const ClaimsContextKey contextKey = "claims"

// currentClaims, request context'inden doğrulanmış claim'leri çeker.
// AuthMiddleware'den geçmeyen bir route'ta çağrılırsa ok=false döner —
// bu bir programlama hatasıdır, handler 401 ile cevap vermelidir.
func currentClaims(r *http.Request) (*models.IdentityClaims, bool) {
	claims, ok := r.Context().Value(ClaimsContextKey).(*models.IdentityClaims)
	return claims, ok
}
