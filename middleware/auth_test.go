package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/firsat-app/chat-server/handlers"
	"github.com/firsat-app/chat-server/models"
)

const testSecret = "test-secret"

// fakeUserRepo, read-model senkronizasyonunu kaydeden minimal repository.
type fakeUserRepo struct {
	mu     sync.Mutex
	synced []models.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	return map[string]models.User{}, nil
}

func (r *fakeUserRepo) Sync(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synced = append(r.synced, *user)
	return nil
}

func signToken(t *testing.T, claims *models.IdentityClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func userClaims(userID string) *models.IdentityClaims {
	return &models.IdentityClaims{
		UserID:   userID,
		Username: "u-" + userID,
		Role:     models.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestValidateToken(t *testing.T) {
	auth := NewAuthenticator(testSecret)

	claims, err := auth.ValidateToken(signToken(t, userClaims("alice"), testSecret))
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "alice" || claims.Role != models.RoleUser {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateTokenRejections(t *testing.T) {
	auth := NewAuthenticator(testSecret)

	// Yanlış secret ile imzalanmış
	if _, err := auth.ValidateToken(signToken(t, userClaims("alice"), "wrong-secret")); err == nil {
		t.Error("yanlış imza kabul edilmemeli")
	}

	// Süresi geçmiş
	expired := userClaims("alice")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	if _, err := auth.ValidateToken(signToken(t, expired, testSecret)); err == nil {
		t.Error("süresi geçmiş token kabul edilmemeli")
	}

	// user_id claim'i boş
	empty := userClaims("")
	if _, err := auth.ValidateToken(signToken(t, empty, testSecret)); err == nil {
		t.Error("user_id'siz token kabul edilmemeli")
	}

	if _, err := auth.ValidateToken("bozuk.token.string"); err == nil {
		t.Error("bozuk token kabul edilmemeli")
	}
}

func TestAuthMiddlewareRequire(t *testing.T) {
	auth := NewAuthenticator(testSecret)
	repo := &fakeUserRepo{}
	mw := NewAuthMiddleware(auth, repo)

	var gotClaims *models.IdentityClaims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = r.Context().Value(handlers.ClaimsContextKey).(*models.IdentityClaims)
		w.WriteHeader(http.StatusOK)
	})
	handler := mw.Require(next)

	// Header yok → 401
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/channels", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("header'sız status = %d, want 401", rec.Code)
	}

	// Bearer prefix'i yok → 401
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/channels", nil)
	req.Header.Set("Authorization", "Token abc")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Bearer'sız status = %d, want 401", rec.Code)
	}

	// Geçerli token → claims context'e konur, kullanıcı senkronize edilir
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/channels", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userClaims("alice"), testSecret))
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("geçerli token status = %d, want 200", rec.Code)
	}
	if gotClaims == nil || gotClaims.UserID != "alice" {
		t.Fatalf("context claims = %+v", gotClaims)
	}
	if len(repo.synced) != 1 || repo.synced[0].ID != "alice" {
		t.Errorf("synced = %+v, want alice upsert", repo.synced)
	}

	// Sync cache: aynı kullanıcı için tekrar upsert yapılmaz
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/channels", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userClaims("alice"), testSecret))
	handler.ServeHTTP(rec, req)
	if len(repo.synced) != 1 {
		t.Errorf("ikinci istek tekrar sync etti: %d", len(repo.synced))
	}
}

func TestModeratorMiddlewareRequire(t *testing.T) {
	mw := NewModeratorMiddleware()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := mw.Require(next)

	// Context'te claims yok → 401
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/bans", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("claims'siz status = %d, want 401", rec.Code)
	}

	// Normal kullanıcı → 403
	claims := userClaims("alice")
	req := httptest.NewRequest("GET", "/api/bans", nil)
	req = req.WithContext(context.WithValue(req.Context(), handlers.ClaimsContextKey, claims))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("user status = %d, want 403", rec.Code)
	}

	// Moderatör geçer
	modClaims := userClaims("mod")
	modClaims.Role = models.RoleModerator
	req = httptest.NewRequest("GET", "/api/bans", nil)
	req = req.WithContext(context.WithValue(req.Context(), handlers.ClaimsContextKey, modClaims))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("moderatör status = %d, want 200", rec.Code)
	}
}
