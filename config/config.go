// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Config struct'ı tüm ayarları tek bir yerde toplar, böylece
// her yerde ayrı ayrı os.Getenv() çağırmak yerine tek bir Config nesnesi taşırız.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
// Her alt bölüm ayrı bir struct — her struct tek bir concern'ü temsil eder.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Moderation ModerationConfig
	RateLimit  RateLimitConfig
	Email      EmailConfig
	CORS       CORSConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/chat.db)
}

// JWTConfig, token doğrulama ayarları.
// Chat servisi token İHRAÇ ETMEZ — secret sadece identity servisinin
// imzasını doğrulamak için kullanılır ve iki servis arasında paylaşılır.
type JWTConfig struct {
	Secret string // Identity servisiyle paylaşılan imza anahtarı — GİZLİ TUTULMALI
}

// ModerationConfig, içerik filtresi ve retention ayarları.
type ModerationConfig struct {
	BannedWords       []string // Virgülle ayrılmış env'den parse edilir
	AllowedLinkDomain string   // Sadece bu domain'e link atılabilir
	RetentionSize     int      // Kanal başına tutulan en yeni mesaj sayısı
}

// RateLimitConfig, mesaj ve chat request limitleri.
type RateLimitConfig struct {
	MessageBurst    int           // Pencere içinde izin verilen mesaj sayısı
	MessageWindow   time.Duration // Mesaj sayma penceresi
	MessageCooldown time.Duration // Limit aşımında bekleme süresi
	RequestLimit    int           // Pencere başına chat request sayısı
	RequestWindow   time.Duration // Chat request penceresi
}

// EmailConfig, ops alert e-postaları için Resend ayarları.
// APIKey boşsa e-posta gönderilmez, alert'ler sadece loglanır.
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
	ToEmail      string // Ops ekibinin alert adresi
}

// CORSConfig, izin verilen origin'ler.
type CORSConfig struct {
	AllowedOrigins []string
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// Dosya yoksa hata vermez, sessizce devam eder.
	// Production'da bu dosya olmaz, gerçek env variable'lar kullanılır.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	retention, err := strconv.Atoi(getEnv("MESSAGE_RETENTION_SIZE", "100"))
	if err != nil || retention < 1 {
		return nil, fmt.Errorf("invalid MESSAGE_RETENTION_SIZE: %v", getEnv("MESSAGE_RETENTION_SIZE", "100"))
	}

	messageBurst, err := strconv.Atoi(getEnv("MESSAGE_RATE_BURST", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid MESSAGE_RATE_BURST: %w", err)
	}

	messageWindow, err := time.ParseDuration(getEnv("MESSAGE_RATE_WINDOW", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MESSAGE_RATE_WINDOW: %w", err)
	}

	messageCooldown, err := time.ParseDuration(getEnv("MESSAGE_RATE_COOLDOWN", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MESSAGE_RATE_COOLDOWN: %w", err)
	}

	requestLimit, err := strconv.Atoi(getEnv("CHAT_REQUEST_RATE_LIMIT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_REQUEST_RATE_LIMIT: %w", err)
	}

	requestWindow, err := time.ParseDuration(getEnv("CHAT_REQUEST_RATE_WINDOW", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_REQUEST_RATE_WINDOW: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/chat.db"),
		},
		JWT: JWTConfig{
			Secret: jwtSecret,
		},
		Moderation: ModerationConfig{
			BannedWords:       splitList(getEnv("BANNED_WORDS", "")),
			AllowedLinkDomain: getEnv("ALLOWED_LINK_DOMAIN", "firsat.app"),
			RetentionSize:     retention,
		},
		RateLimit: RateLimitConfig{
			MessageBurst:    messageBurst,
			MessageWindow:   messageWindow,
			MessageCooldown: messageCooldown,
			RequestLimit:    requestLimit,
			RequestWindow:   requestWindow,
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("ALERT_FROM_EMAIL", "chat@firsat.app"),
			ToEmail:      getEnv("ALERT_TO_EMAIL", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
	}

	return cfg, nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// splitList, virgülle ayrılmış env değerini temizleyip slice'a çevirir.
// Boş girdi boş slice döner, nil değil.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
