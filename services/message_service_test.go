package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
	"github.com/firsat-app/chat-server/pkg/moderation"
	"github.com/firsat-app/chat-server/pkg/ratelimit"
)

func newMessageService(env *testEnv) MessageService {
	engine := moderation.NewEngine("firsat.app", []string{"yasakli"})
	limiter := ratelimit.NewMessageRateLimiter(100, time.Second, time.Second)
	return NewMessageService(
		env.messages, env.channels, env.users, env.react, env.bans,
		engine, limiter, env.hub, 100,
	)
}

func TestSendHappyPath(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	env.seedGroup(t, "ch1", "Genel", "alice", "bob")
	svc := newMessageService(env)

	msg, err := svc.Send(context.Background(), "ch1", "alice", &models.SendMessageRequest{
		Content: "harika bir fırsat buldum",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if msg.ID == "" || msg.SenderID != "alice" {
		t.Fatalf("Send() = %+v", msg)
	}
	if msg.Sender == nil || msg.Sender.Username != "u-alice" {
		t.Errorf("sender enrichment eksik: %+v", msg.Sender)
	}

	// Kanal üyelerine message_create yayınlanır
	ops := env.hub.opsFor("bob")
	if len(ops) == 0 || ops[len(ops)-1] != "message_create" {
		t.Errorf("bob'a giden event'ler = %v, want message_create", ops)
	}
}

func TestSendToGlobalWithoutMembership(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	svc := newMessageService(env)

	// Global kanala herkes implicit üyedir
	if _, err := svc.Send(context.Background(), "global", "alice", &models.SendMessageRequest{
		Content: "herkese merhaba",
	}); err != nil {
		t.Fatalf("global kanala Send() error = %v", err)
	}
	if env.hub.lastOp() != "message_create" {
		t.Errorf("lastOp = %q, want message_create", env.hub.lastOp())
	}
}

func TestSendRejectedWhenBanned(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "mod", "moderator")
	env.seedGroup(t, "ch1", "Genel", "alice")
	svc := newMessageService(env)
	ctx := context.Background()

	if err := env.bans.Create(ctx, &models.Ban{UserID: "alice", BannedBy: "mod", Reason: "çok gizli sebep"}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Send(ctx, "ch1", "alice", &models.SendMessageRequest{Content: "merhaba"})
	if !errors.Is(err, pkg.ErrForbidden) {
		t.Fatalf("Send() error = %v, want ErrForbidden", err)
	}
	// Ban sebebi asla sızdırılmaz
	if strings.Contains(err.Error(), "gizli sebep") {
		t.Errorf("ban sebebi hata mesajına sızdı: %v", err)
	}
}

func TestSendRejectedByModeration(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedGroup(t, "ch1", "Genel", "alice")
	svc := newMessageService(env)
	ctx := context.Background()

	_, err := svc.Send(ctx, "ch1", "alice", &models.SendMessageRequest{Content: "yasakli içerik"})
	if !errors.Is(err, pkg.ErrValidation) {
		t.Fatalf("Send() error = %v, want ErrValidation", err)
	}

	// Reddedilen içerik hiç kaydedilmez
	page, err := env.messages.Page(ctx, "ch1", 1, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Messages) != 0 {
		t.Errorf("reddedilen mesaj kaydedilmiş: %d adet", len(page.Messages))
	}
}

func TestSendRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	env.seedGroup(t, "ch1", "Genel", "bob")
	svc := newMessageService(env)

	// Üye olmayan için kanal yok gibi davranılır
	_, err := svc.Send(context.Background(), "ch1", "alice", &models.SendMessageRequest{Content: "merhaba"})
	if !errors.Is(err, pkg.ErrNotFound) {
		t.Fatalf("Send() error = %v, want ErrNotFound", err)
	}
}

func TestSendReplyMustStayInChannel(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedGroup(t, "ch1", "Genel", "alice")
	env.seedGroup(t, "ch2", "Diğer", "alice")
	svc := newMessageService(env)
	ctx := context.Background()

	parent, err := svc.Send(ctx, "ch1", "alice", &models.SendMessageRequest{Content: "orijinal"})
	if err != nil {
		t.Fatal(err)
	}

	// Aynı kanalda reply geçerli
	reply, err := svc.Send(ctx, "ch1", "alice", &models.SendMessageRequest{
		Content: "cevap", ReplyToID: &parent.ID,
	})
	if err != nil {
		t.Fatalf("aynı kanalda reply error = %v", err)
	}
	if reply.ReplyToID == nil || *reply.ReplyToID != parent.ID {
		t.Errorf("ReplyToID = %v", reply.ReplyToID)
	}

	// Başka kanaldan reply reddedilir
	_, err = svc.Send(ctx, "ch2", "alice", &models.SendMessageRequest{
		Content: "kaçak cevap", ReplyToID: &parent.ID,
	})
	if !errors.Is(err, pkg.ErrValidation) {
		t.Errorf("cross-channel reply error = %v, want ErrValidation", err)
	}
}

func TestSendRateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedGroup(t, "ch1", "Genel", "alice")

	engine := moderation.NewEngine("firsat.app", nil)
	limiter := ratelimit.NewMessageRateLimiter(2, time.Minute, time.Minute)
	svc := NewMessageService(env.messages, env.channels, env.users, env.react, env.bans,
		engine, limiter, env.hub, 100)
	ctx := context.Background()

	if _, err := svc.Send(ctx, "ch1", "alice", &models.SendMessageRequest{Content: "bir"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Send(ctx, "ch1", "alice", &models.SendMessageRequest{Content: "iki"}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Send(ctx, "ch1", "alice", &models.SendMessageRequest{Content: "üç"})
	if !errors.Is(err, pkg.ErrRateLimited) {
		t.Fatalf("Send() error = %v, want ErrRateLimited", err)
	}
}

func TestEditOnlySenderAndTextOnly(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	env.seedGroup(t, "ch1", "Genel", "alice", "bob")
	svc := newMessageService(env)
	ctx := context.Background()

	msg, err := svc.Send(ctx, "ch1", "alice", &models.SendMessageRequest{Content: "orijinal"})
	if err != nil {
		t.Fatal(err)
	}

	// Başkası düzenleyemez
	if _, err := svc.Edit(ctx, msg.ID, "bob", &models.EditMessageRequest{Content: "sahte"}); err == nil {
		t.Fatal("başkasının mesajı düzenlenememeli")
	}

	edited, err := svc.Edit(ctx, msg.ID, "alice", &models.EditMessageRequest{Content: "düzeltildi"})
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if edited.Content != "düzeltildi" || edited.EditedAt == nil {
		t.Errorf("Edit() = %+v", edited)
	}
}

func TestDeleteModeratorOnly(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "mod", "moderator")
	env.seedGroup(t, "ch1", "Genel", "alice")
	svc := newMessageService(env)
	ctx := context.Background()

	msg, err := svc.Send(ctx, "ch1", "alice", &models.SendMessageRequest{Content: "silinecek"})
	if err != nil {
		t.Fatal(err)
	}

	// Gönderen bile kendi mesajını silemez — silme moderasyon aracıdır
	if err := svc.Delete(ctx, msg.ID, "alice", models.RoleUser, ""); !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("sender Delete() error = %v, want ErrForbidden", err)
	}

	// Moderatör silebilir
	if err := svc.Delete(ctx, msg.ID, "mod", models.RoleModerator, "kural ihlali"); err != nil {
		t.Fatalf("moderatör Delete() error = %v", err)
	}

	// Silinen mesaj listede maskelenmiş görünür
	page, err := svc.Page(ctx, "ch1", "alice", 1, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Messages) != 1 {
		t.Fatalf("len = %d, want 1 (silinen mesaj listeden çıkarılmaz)", len(page.Messages))
	}
	if page.Messages[0].Content != models.DeletedContentMarker {
		t.Errorf("Content = %q, want %q", page.Messages[0].Content, models.DeletedContentMarker)
	}
}
