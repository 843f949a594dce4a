// Package moderation — mesaj içeriği için saf (stateless) kural motoru.
//
// Neden saf fonksiyon?
// Kurallar DB'ye, saate veya kullanıcıya bakmaz; aynı girdi her zaman aynı
// sonucu verir. Bu, motoru tabloyla test edilebilir kılar ve servis
// katmanının sıralamasından bağımsız tutar (ban kontrolü, membership vb.
// moderation'ın DIŞINDA kalır).
//
// Kurallar:
// 1. Uzunluk: en fazla 1000 karakter (rune).
// 2. Karakter tekrarı: aynı rune'dan 8'den uzun ardışık dizi spam sayılır.
// 3. Link: URL'lere sadece izinli domain'de müsaade edilir (varsayılan
//    firsat.app — deal paylaşım linkleri). Diğer tüm linkler reddedilir.
// 4. Caps lock: 20 karakterden uzun mesajlarda harflerin %70'inden fazlası
//    büyükse bağırma sayılır.
// 5. Yasaklı kelime listesi (config'den gelir, case-insensitive substring).
//
// Reddedilen mesajlar KAYDEDİLMEZ — motor sonucu Validate çağıranın
// ErrValidation'a çevirmesi beklenir.
package moderation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxContentLength, kural motorunun uzunluk sınırı (rune cinsinden).
const MaxContentLength = 1000

// maxRepeatRun, izin verilen en uzun ardışık aynı-rune dizisi.
const maxRepeatRun = 8

// upperRatioThreshold ve upperMinLength: caps lock kuralının eşikleri.
const (
	upperRatioThreshold = 0.7
	upperMinLength      = 20
)

// urlRegex, içerikteki linkleri yakalar. Şema zorunlu değildir —
// "www.example.com" da link sayılır, yoksa filtre trivially atlatılır.
var urlRegex = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)

// Result, kural motorunun kararı.
// IsValid false ise Reason insan-okunabilir (client'a gösterilir) bir
// açıklama taşır.
type Result struct {
	IsValid bool
	Reason  string
}

// Engine, konfigüre edilmiş kural seti.
// Immutable — oluşturulduktan sonra değişmez, goroutine-safe.
type Engine struct {
	allowedLinkDomain string
	bannedWords       []string
}

// NewEngine, kural motorunu oluşturur.
//
// allowedLinkDomain: linklere izin verilen tek domain (örn: "firsat.app").
// Subdomain'ler de kabul edilir (deal.firsat.app).
// bannedWords: yasaklı kelime listesi; boş olabilir.
func NewEngine(allowedLinkDomain string, bannedWords []string) *Engine {
	words := make([]string, 0, len(bannedWords))
	for _, w := range bannedWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			words = append(words, w)
		}
	}
	return &Engine{
		allowedLinkDomain: strings.ToLower(strings.TrimSpace(allowedLinkDomain)),
		bannedWords:       words,
	}
}

// Validate, içeriği tüm kurallardan geçirir. İlk ihlalde durur —
// Reason her zaman tek bir kuralı işaret eder.
func (e *Engine) Validate(content string) Result {
	if utf8.RuneCountInString(content) > MaxContentLength {
		return Result{Reason: "message is too long"}
	}

	if hasRepeatedRun(content) {
		return Result{Reason: "message contains excessive repeated characters"}
	}

	if reason := e.checkLinks(content); reason != "" {
		return Result{Reason: reason}
	}

	if isShouting(content) {
		return Result{Reason: "message contains too many uppercase letters"}
	}

	if word := e.findBannedWord(content); word != "" {
		return Result{Reason: "message contains prohibited content"}
	}

	return Result{IsValid: true}
}

// hasRepeatedRun, aynı rune'un maxRepeatRun'dan uzun ardışık tekrarını arar.
// "aaaa" normal, "aaaaaaaaa" (9 tekrar) spam.
func hasRepeatedRun(content string) bool {
	var prev rune
	run := 0
	for _, r := range content {
		if r == prev {
			run++
			if run > maxRepeatRun {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// checkLinks, içerikteki her URL'in izinli domain'de olduğunu doğrular.
func (e *Engine) checkLinks(content string) string {
	matches := urlRegex.FindAllString(content, -1)
	if len(matches) == 0 {
		return ""
	}
	if e.allowedLinkDomain == "" {
		return "links are not allowed"
	}

	for _, raw := range matches {
		host := linkHost(raw)
		if host != e.allowedLinkDomain && !strings.HasSuffix(host, "."+e.allowedLinkDomain) {
			return "links are only allowed to " + e.allowedLinkDomain
		}
	}
	return ""
}

// linkHost, yakalanan link string'inden host kısmını çıkarır.
// net/url.Parse şemasız "www.x.com/y" girdisinde host'u boş bırakır,
// o yüzden elle ayıklanır.
func linkHost(raw string) string {
	s := strings.ToLower(raw)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "www.")
	return s
}

// isShouting, uzun mesajlarda büyük harf oranını kontrol eder.
// Sadece harfler sayılır — rakam ve noktalama oranı bozmaz.
func isShouting(content string) bool {
	if utf8.RuneCountInString(content) <= upperMinLength {
		return false
	}

	var letters, upper int
	for _, r := range content {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return false
	}
	return float64(upper)/float64(letters) > upperRatioThreshold
}

// findBannedWord, case-insensitive substring araması yapar.
// Bulursa eşleşen kelimeyi döner (log için); Reason'a kelime SIZMAZ.
func (e *Engine) findBannedWord(content string) string {
	lowered := strings.ToLower(content)
	for _, word := range e.bannedWords {
		if strings.Contains(lowered, word) {
			return word
		}
	}
	return ""
}
