// Package main, firsat.app chat server'ının giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//   1.  Config'i yükle
//   2.  Database'i başlat (embedded migration'larla)
//   3.  Repository'leri oluştur (DB bağlantısı ile)
//   4.  WebSocket Hub'ı başlat
//   5.  Service'leri oluştur (repository'ler + hub ile)
//   6.  Hub callback'lerini presence service'e bağla
//   7.  Handler'ları oluştur (service'ler ile)
//   8.  Middleware'ları oluştur
//   9.  HTTP router'ı kur, route'ları bağla
//  10.  CORS yapılandır
//  11.  Global kanalı doğrula, background sweep'i başlat
//  12.  HTTP Server'ı başlat
//  13.  Graceful shutdown
//
// Global değişken YOK — her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/firsat-app/chat-server/config"
	"github.com/firsat-app/chat-server/database"
	"github.com/firsat-app/chat-server/handlers"
	"github.com/firsat-app/chat-server/middleware"
	"github.com/firsat-app/chat-server/pkg/email"
	"github.com/firsat-app/chat-server/pkg/moderation"
	"github.com/firsat-app/chat-server/pkg/ratelimit"
	"github.com/firsat-app/chat-server/repository"
	"github.com/firsat-app/chat-server/services"
	"github.com/firsat-app/chat-server/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] chat server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d)", cfg.Server.Port)

	// ─── 2. Database ───
	//
	// Migration'lar binary'ye gömülü — deployment'ta SQL dosyası taşınmaz.
	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to open embedded migrations: %v", err)
	}

	db, err := database.New(cfg.Database.Path, migrationsFS)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Repository Layer ───
	userRepo := repository.NewSQLiteUserRepo(db.Conn)
	channelRepo := repository.NewSQLiteChannelRepo(db.Conn)
	messageRepo := repository.NewSQLiteMessageRepo(db.Conn)
	reactionRepo := repository.NewSQLiteReactionRepo(db.Conn)
	requestRepo := repository.NewSQLiteChatRequestRepo(db.Conn)
	banRepo := repository.NewSQLiteBanRepo(db.Conn)
	prefsRepo := repository.NewSQLitePreferencesRepo(db.Conn)

	// ─── 4. WebSocket Hub ───
	//
	// Hub, tüm WebSocket bağlantılarını yöneten merkezi yapıdır.
	// `go hub.Run()` ayrı bir goroutine'de event loop başlatır:
	// register/unregister channel'larını dinler ve client map'ini günceller.
	// Hub aynı zamanda EventPublisher interface'ini implement eder —
	// service'ler hub'a doğrudan bağımlı olmak yerine interface üzerinden erişir.
	hub := ws.NewHub()

	// ─── 5. Service Layer ───
	engine := moderation.NewEngine(cfg.Moderation.AllowedLinkDomain, cfg.Moderation.BannedWords)
	messageLimiter := ratelimit.NewMessageRateLimiter(
		cfg.RateLimit.MessageBurst, cfg.RateLimit.MessageWindow, cfg.RateLimit.MessageCooldown)
	requestLimiter := ratelimit.NewRequestRateLimiter(
		cfg.RateLimit.RequestLimit, cfg.RateLimit.RequestWindow)

	var alertSender email.AlertSender
	if cfg.Email.ResendAPIKey != "" && cfg.Email.ToEmail != "" {
		alertSender = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.ToEmail)
	} else {
		alertSender = email.NewNoopSender()
	}

	channelService := services.NewChannelService(channelRepo, requestRepo, prefsRepo, banRepo, hub)
	messageService := services.NewMessageService(
		messageRepo, channelRepo, userRepo, reactionRepo, banRepo,
		engine, messageLimiter, hub, cfg.Moderation.RetentionSize)
	reactionService := services.NewReactionService(reactionRepo, messageRepo, channelRepo, banRepo, hub)
	chatRequestService := services.NewChatRequestService(
		requestRepo, channelRepo, prefsRepo, banRepo, userRepo, requestLimiter, hub)
	moderationService := services.NewModerationService(banRepo, userRepo, alertSender, hub)
	preferencesService := services.NewPreferencesService(prefsRepo, userRepo)
	presenceService := services.NewPresenceService(channelRepo, prefsRepo, hub)

	// ─── 6. Hub Callback'leri ───
	//
	// Hub ws paketinde yaşıyor ama typing/presence mantığı service katmanında.
	// Hub'ın service'lere bağımlı olmasını istemiyoruz (Dependency Inversion) —
	// main.go wire-up noktasıdır, katmanları burada birbirine bağlarız.
	//
	// Callback'ler Hub içinde `go callback()` ile çağrılır, böylece Hub'ın
	// mutex Lock'u ile broadcast'lerin RLock'u çakışmaz.
	hub.SetCallbacks(
		presenceService.HandleTyping,
		presenceService.HandleTypingStop,
		presenceService.HandleConnect,
		presenceService.HandleDisconnect,
	)
	go hub.Run()

	// ─── 7. Handler Layer ───
	channelHandler := handlers.NewChannelHandler(channelService, presenceService)
	messageHandler := handlers.NewMessageHandler(messageService)
	reactionHandler := handlers.NewReactionHandler(reactionService)
	chatRequestHandler := handlers.NewChatRequestHandler(chatRequestService)
	moderationHandler := handlers.NewModerationHandler(moderationService)
	preferencesHandler := handlers.NewPreferencesHandler(preferencesService)

	// ─── 8. Middleware ───
	authenticator := middleware.NewAuthenticator(cfg.JWT.Secret)
	authMiddleware := middleware.NewAuthMiddleware(authenticator, userRepo)
	modMiddleware := middleware.NewModeratorMiddleware()

	wsHandler := ws.NewHandler(hub, authenticator)

	// ─── 9. HTTP Router ───
	mux := http.NewServeMux()

	// Health check — auth gerekmez
	mux.HandleFunc("GET /api/health", handlers.Health)

	// Channels — dizin, grup/private açma, üyelik
	mux.Handle("GET /api/channels", authMiddleware.Require(
		http.HandlerFunc(channelHandler.List)))
	mux.Handle("POST /api/channels/groups", authMiddleware.Require(
		http.HandlerFunc(channelHandler.CreateGroup)))
	mux.Handle("POST /api/channels/private", authMiddleware.Require(
		http.HandlerFunc(channelHandler.OpenPrivate)))
	mux.Handle("GET /api/channels/{id}", authMiddleware.Require(
		http.HandlerFunc(channelHandler.Get)))
	mux.Handle("POST /api/channels/{id}/join", authMiddleware.Require(
		http.HandlerFunc(channelHandler.Join)))
	mux.Handle("POST /api/channels/{id}/leave", authMiddleware.Require(
		http.HandlerFunc(channelHandler.Leave)))
	mux.Handle("POST /api/channels/{id}/read", authMiddleware.Require(
		http.HandlerFunc(channelHandler.MarkRead)))
	mux.Handle("GET /api/channels/{id}/online", authMiddleware.Require(
		http.HandlerFunc(channelHandler.Online)))

	// Messages — tüm yazma işlemleri HTTP'den geçer, WS sadece bildirim taşır
	mux.Handle("GET /api/channels/{id}/messages", authMiddleware.Require(
		http.HandlerFunc(messageHandler.List)))
	mux.Handle("POST /api/channels/{id}/messages", authMiddleware.Require(
		http.HandlerFunc(messageHandler.Create)))
	mux.Handle("PUT /api/messages/{id}", authMiddleware.Require(
		http.HandlerFunc(messageHandler.Update)))
	mux.Handle("DELETE /api/messages/{id}", authMiddleware.Require(
		http.HandlerFunc(messageHandler.Delete)))

	// Reactions
	mux.Handle("PUT /api/messages/{id}/reactions/{emoji}", authMiddleware.Require(
		http.HandlerFunc(reactionHandler.Add)))
	mux.Handle("DELETE /api/messages/{id}/reactions/{emoji}", authMiddleware.Require(
		http.HandlerFunc(reactionHandler.Remove)))

	// Chat requests — private sohbet izin handshake'i
	mux.Handle("POST /api/chat-requests", authMiddleware.Require(
		http.HandlerFunc(chatRequestHandler.Create)))
	mux.Handle("GET /api/chat-requests", authMiddleware.Require(
		http.HandlerFunc(chatRequestHandler.ListPending)))
	mux.Handle("POST /api/chat-requests/{id}/respond", authMiddleware.Require(
		http.HandlerFunc(chatRequestHandler.Respond)))

	// Moderation — ban CRUD moderatör gerektirir
	mux.Handle("POST /api/bans", authMiddleware.Require(
		modMiddleware.Require(http.HandlerFunc(moderationHandler.CreateBan))))
	mux.Handle("GET /api/bans", authMiddleware.Require(
		modMiddleware.Require(http.HandlerFunc(moderationHandler.ListBans))))
	mux.Handle("DELETE /api/bans/{id}", authMiddleware.Require(
		modMiddleware.Require(http.HandlerFunc(moderationHandler.DeleteBan))))

	// Unban requests — başvuru herkesin, karar moderatörün
	mux.Handle("POST /api/unban-requests", authMiddleware.Require(
		http.HandlerFunc(moderationHandler.CreateUnbanRequest)))
	mux.Handle("GET /api/unban-requests", authMiddleware.Require(
		modMiddleware.Require(http.HandlerFunc(moderationHandler.ListUnbanRequests))))
	mux.Handle("POST /api/unban-requests/{id}/resolve", authMiddleware.Require(
		modMiddleware.Require(http.HandlerFunc(moderationHandler.ResolveUnbanRequest))))

	// Preferences & blocks
	mux.Handle("GET /api/preferences", authMiddleware.Require(
		http.HandlerFunc(preferencesHandler.Get)))
	mux.Handle("PUT /api/preferences", authMiddleware.Require(
		http.HandlerFunc(preferencesHandler.Update)))
	mux.Handle("GET /api/blocks", authMiddleware.Require(
		http.HandlerFunc(preferencesHandler.ListBlocked)))
	mux.Handle("POST /api/blocks/{userID}", authMiddleware.Require(
		http.HandlerFunc(preferencesHandler.Block)))
	mux.Handle("DELETE /api/blocks/{userID}", authMiddleware.Require(
		http.HandlerFunc(preferencesHandler.Unblock)))
	mux.Handle("PUT /api/follows/{userID}", authMiddleware.Require(
		http.HandlerFunc(preferencesHandler.Follow)))
	mux.Handle("DELETE /api/follows/{userID}", authMiddleware.Require(
		http.HandlerFunc(preferencesHandler.Unfollow)))

	// WebSocket — token query parameter ile authenticate edilir
	//
	// Neden auth middleware kullanmıyoruz?
	// WebSocket upgrade sırasında tarayıcılar custom HTTP header gönderemez.
	// Bu yüzden JWT token URL query parameter olarak gönderilir:
	//   ws://server/ws?token=JWT_TOKEN
	// WS handler kendi içinde token doğrulaması yapar.
	mux.HandleFunc("GET /ws", wsHandler.HandleConnection)

	// ─── 10. CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		Debug:            false,
	})

	handler := corsHandler.Handler(mux)

	// ─── 11. Startup Doğrulaması + Background İşler ───
	//
	// Global kanal migration'da seed edilir — yoksa sistem yanlış kurulmuş
	// demektir. Server yine de ayağa kalkar (private/grup chat çalışır) ama
	// ops ekibine alert gider.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := channelRepo.GetGlobal(startupCtx); err != nil {
		log.Printf("[main] global channel check failed: %v", err)
		if alertErr := alertSender.SendOpsAlert(startupCtx,
			"Chat server configuration error",
			"The global channel is missing or inactive. Check the database seed."); alertErr != nil {
			log.Printf("[main] failed to send ops alert: %v", alertErr)
		}
	}
	startupCancel()

	// Süresi dolan chat request'leri periyodik olarak expire et.
	// Okuma yolu zaten expire olmuşları filtreler — sweep sadece DB'deki
	// durumu gerçeğe yaklaştırır, o yüzden seyrek çalışması sorun değil.
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if err := chatRequestService.SweepExpired(sweepCtx); err != nil {
					log.Printf("[main] chat request sweep failed: %v", err)
				}
			}
		}
	}()

	// ─── 12. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 13. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	sweepCancel()

	// Önce WebSocket bağlantılarını kapat — client'lar "server shutting down" bilir.
	// Sonra HTTP server'ı kapat — yeni request kabul etmeyi durdurur,
	// mevcut request'lerin bitmesini bekler (5sn timeout).
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
