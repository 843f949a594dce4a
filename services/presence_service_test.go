package services

import (
	"context"
	"testing"

	"github.com/firsat-app/chat-server/models"
)

func newPresenceService(env *testEnv) PresenceService {
	return NewPresenceService(env.channels, env.prefs, env.hub)
}

func TestOnlineUsersRespectsVisibility(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	env.seedUser(t, "carol", "user")
	env.seedGroup(t, "ch1", "Genel", "alice", "bob", "carol")
	svc := newPresenceService(env)
	ctx := context.Background()

	env.hub.online["alice"] = true
	env.hub.online["bob"] = true
	// carol offline

	// bob online durumunu gizlemiş
	if err := env.prefs.Upsert(ctx, &models.ChatPreferences{
		UserID: "bob", AllowPrivateMessages: true, RequireRequestForPrivate: true,
	}); err != nil {
		t.Fatal(err)
	}

	online, err := svc.OnlineUsers(ctx, "ch1", "alice")
	if err != nil {
		t.Fatalf("OnlineUsers() error = %v", err)
	}
	if len(online) != 1 || online[0] != "alice" {
		t.Errorf("OnlineUsers() = %v, want sadece alice", online)
	}

	// Gizlenen kullanıcı kendi listesinde kendini görür
	online, err = svc.OnlineUsers(ctx, "ch1", "bob")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, id := range online {
		if id == "bob" {
			found = true
		}
	}
	if !found {
		t.Errorf("bob kendini görmeli: %v", online)
	}
}

func TestTypingLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	env.seedGroup(t, "ch1", "Genel", "alice", "bob")
	svc := newPresenceService(env)

	svc.HandleTyping("alice", "ch1")
	ops := env.hub.opsFor("bob")
	if len(ops) != 1 || ops[0] != "typing_start" {
		t.Fatalf("bob event'leri = %v, want typing_start", ops)
	}
	// Gönderen kendi typing event'ini almaz
	if ops := env.hub.opsFor("alice"); len(ops) != 0 {
		t.Errorf("alice'e typing gitmemeli: %v", ops)
	}

	// TTL içinde tekrar eden sinyal yeni broadcast üretmez
	svc.HandleTyping("alice", "ch1")
	if ops := env.hub.opsFor("bob"); len(ops) != 1 {
		t.Errorf("tekrar eden typing broadcast üretti: %v", ops)
	}

	svc.HandleTypingStop("alice", "ch1")
	ops = env.hub.opsFor("bob")
	if len(ops) != 2 || ops[1] != "typing_stopped" {
		t.Fatalf("stop sonrası bob event'leri = %v", ops)
	}

	// Aktif typing yokken stop no-op
	svc.HandleTypingStop("alice", "ch1")
	if ops := env.hub.opsFor("bob"); len(ops) != 2 {
		t.Errorf("ikinci stop event üretmemeli: %v", ops)
	}
}

func TestTypingRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	env.seedGroup(t, "ch1", "Genel", "bob")
	svc := newPresenceService(env)

	svc.HandleTyping("alice", "ch1")
	if ops := env.hub.opsFor("bob"); len(ops) != 0 {
		t.Errorf("üye olmayanın typing'i yayınlanmamalı: %v", ops)
	}
}

func TestPresenceBroadcastHonorsPreference(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	svc := newPresenceService(env)
	ctx := context.Background()

	svc.HandleConnect("alice")
	if env.hub.lastOp() != "presence_update" {
		t.Errorf("lastOp = %q, want presence_update", env.hub.lastOp())
	}

	// Gizli kullanıcının presence'ı hiç yayınlanmaz
	if err := env.prefs.Upsert(ctx, &models.ChatPreferences{
		UserID: "bob", AllowPrivateMessages: true, RequireRequestForPrivate: true,
	}); err != nil {
		t.Fatal(err)
	}
	before := len(env.hub.opsFor("anyone"))
	svc.HandleConnect("bob")
	svc.HandleDisconnect("bob")
	if after := len(env.hub.opsFor("anyone")); after != before {
		t.Errorf("gizli kullanıcının presence'ı yayınlandı: %d → %d", before, after)
	}
}

func TestDisconnectClearsTyping(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	env.seedGroup(t, "ch1", "Genel", "alice", "bob")
	svc := newPresenceService(env)

	svc.HandleTyping("alice", "ch1")
	svc.HandleDisconnect("alice")

	// Disconnect typing entry'sini düşürdü — yeni typing tekrar broadcast eder
	svc.HandleTyping("alice", "ch1")
	typingCount := 0
	for _, op := range env.hub.opsFor("bob") {
		if op == "typing_start" {
			typingCount++
		}
	}
	if typingCount != 2 {
		t.Errorf("typing_start sayısı = %d, want 2", typingCount)
	}
}
