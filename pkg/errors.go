// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Error'lar sentinel değer olarak tanımlanır ve service katmanında
// fmt.Errorf("%w: detay") ile sarılır. Handler katmanı errors.Is ile
// hangi sentinel'e denk geldiğine bakar ve HTTP status'a çevirir:
//
//	if errors.Is(err, pkg.ErrForbidden) { ... }
package pkg

import "errors"

// Domain-level error'lar.
// Handler katmanı bu error'ları HTTP status code'larına map'ler (bkz. response.go).
//
// ErrValidation: İçerik/istek şekli geçersiz — kullanıcıya gösterilir, retry edilmez.
// ErrConflict: Aynı kayıt zaten mevcut (pending chat request, aktif ban, pair
// channel yarışı) — caller yeniden yazmak yerine mevcut durumu fetch etmeli.
// ErrInvalidState: Terminal durumdaki bir kayda geçiş denendi (ör: yanıtlanmış
// chat request'e tekrar yanıt).
// ErrConfiguration: Kurulum hatası (global kanal provision edilmemiş) —
// feature için fatal, operatörlere alert edilir.
// ErrTransient: Geçici storage/ağ hatası — sadece idempotent operasyonlarda
// backoff ile retry güvenlidir.
var (
	ErrValidation    = errors.New("validation failed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidState  = errors.New("invalid state")
	ErrRateLimited   = errors.New("rate limited")
	ErrConfiguration = errors.New("configuration error")
	ErrTransient     = errors.New("transient error")
)
