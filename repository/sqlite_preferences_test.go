package repository

import (
	"context"
	"testing"

	"github.com/firsat-app/chat-server/models"
)

func TestPreferencesUpsertAndGet(t *testing.T) {
	conn := newTestDB(t)
	repo := NewSQLitePreferencesRepo(conn)
	ctx := context.Background()

	seedUser(t, conn, "alice")

	// Satır yoksa (nil, nil) — caller default'ları uygular
	got, err := repo.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Fatal("kayıt yokken nil dönmeli")
	}

	prefs := models.DefaultChatPreferences("alice")
	prefs.AllowPrivateMessages = false
	if err := repo.Upsert(ctx, prefs); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err = repo.Get(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.AllowPrivateMessages {
		t.Errorf("Get() = %+v, want AllowPrivateMessages=false", got)
	}

	// İkinci upsert günceller
	prefs.ShowOnlineStatus = false
	if err := repo.Upsert(ctx, prefs); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.Get(ctx, "alice")
	if got.ShowOnlineStatus {
		t.Error("ikinci Upsert ShowOnlineStatus'u güncellemeli")
	}
}

func TestFollowDirectional(t *testing.T) {
	conn := newTestDB(t)
	repo := NewSQLitePreferencesRepo(conn)
	ctx := context.Background()

	seedUser(t, conn, "alice")
	seedUser(t, conn, "bob")

	if err := repo.Follow(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	// Ayna tekrar gönderilebilir — idempotent
	if err := repo.Follow(ctx, "alice", "bob"); err != nil {
		t.Fatalf("tekrarlanan Follow() error = %v", err)
	}

	// Takip tek yönlüdür
	follows, err := repo.IsFollowing(ctx, "alice", "bob")
	if err != nil {
		t.Fatal(err)
	}
	if !follows {
		t.Error("alice→bob takip olmalı")
	}
	follows, err = repo.IsFollowing(ctx, "bob", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if follows {
		t.Error("bob→alice takip olmamalı")
	}

	if err := repo.Unfollow(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Unfollow() error = %v", err)
	}
	follows, _ = repo.IsFollowing(ctx, "alice", "bob")
	if follows {
		t.Error("Unfollow sonrası takip olmamalı")
	}
	// Olmayan kaydı silmek no-op
	if err := repo.Unfollow(ctx, "alice", "bob"); err != nil {
		t.Fatalf("tekrarlanan Unfollow() error = %v", err)
	}
}

func TestBlockDirectional(t *testing.T) {
	conn := newTestDB(t)
	repo := NewSQLitePreferencesRepo(conn)
	ctx := context.Background()

	seedUser(t, conn, "alice")
	seedUser(t, conn, "bob")

	if err := repo.Block(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Block() error = %v", err)
	}
	// Tekrar blocklamak hata değil
	if err := repo.Block(ctx, "alice", "bob"); err != nil {
		t.Fatalf("tekrarlanan Block() error = %v", err)
	}

	// Block tek yönlüdür
	blocked, err := repo.IsBlocked(ctx, "alice", "bob")
	if err != nil {
		t.Fatal(err)
	}
	if !blocked {
		t.Error("alice→bob blocked olmalı")
	}
	blocked, err = repo.IsBlocked(ctx, "bob", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if blocked {
		t.Error("bob→alice blocked olmamalı")
	}

	list, err := repo.ListBlocked(ctx, "alice")
	if err != nil {
		t.Fatalf("ListBlocked() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("len(ListBlocked) = %d, want 1", len(list))
	}

	if err := repo.Unblock(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Unblock() error = %v", err)
	}
	blocked, _ = repo.IsBlocked(ctx, "alice", "bob")
	if blocked {
		t.Error("Unblock sonrası blocked olmamalı")
	}
}
