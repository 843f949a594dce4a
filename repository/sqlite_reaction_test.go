package repository

import (
	"context"
	"testing"
)

func TestReactionAddRemove(t *testing.T) {
	conn := newTestDB(t)
	repo := NewSQLiteReactionRepo(conn)
	ctx := context.Background()

	seedUser(t, conn, "alice")
	seedUser(t, conn, "bob")
	seedGroupChannel(t, conn, "ch1", "Genel")
	seedMessage(t, conn, "m1", "ch1", "alice", "fırsat")

	changed, err := repo.Add(ctx, "m1", "bob", "🔥")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !changed {
		t.Fatal("ilk Add changed=true dönmeli")
	}

	// Aynı emoji'ye ikinci basış no-op
	changed, err = repo.Add(ctx, "m1", "bob", "🔥")
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("tekrarlanan Add changed=false dönmeli")
	}

	changed, err = repo.Remove(ctx, "m1", "bob", "🔥")
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if !changed {
		t.Error("mevcut reaction Remove changed=true dönmeli")
	}

	// Olmayan reaction'ı kaldırmak no-op
	changed, err = repo.Remove(ctx, "m1", "bob", "🔥")
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("olmayan reaction Remove changed=false dönmeli")
	}
}

func TestReactionGroups(t *testing.T) {
	conn := newTestDB(t)
	repo := NewSQLiteReactionRepo(conn)
	ctx := context.Background()

	seedUser(t, conn, "alice")
	seedUser(t, conn, "bob")
	seedUser(t, conn, "cem")
	seedGroupChannel(t, conn, "ch1", "Genel")
	seedMessage(t, conn, "m1", "ch1", "alice", "fırsat")

	for _, userID := range []string{"alice", "bob"} {
		if _, err := repo.Add(ctx, "m1", userID, "🔥"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := repo.Add(ctx, "m1", "cem", "👍"); err != nil {
		t.Fatal(err)
	}

	groups, err := repo.GroupsForMessage(ctx, "m1", "bob")
	if err != nil {
		t.Fatalf("GroupsForMessage() error = %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}

	byEmoji := map[string]struct {
		count   int
		reacted bool
	}{}
	for _, g := range groups {
		byEmoji[g.Emoji] = struct {
			count   int
			reacted bool
		}{g.Count, g.UserReacted}
	}

	if fire := byEmoji["🔥"]; fire.count != 2 || !fire.reacted {
		t.Errorf("🔥 = %+v, want count=2 reacted=true", fire)
	}
	if up := byEmoji["👍"]; up.count != 1 || up.reacted {
		t.Errorf("👍 = %+v, want count=1 reacted=false", up)
	}
}
