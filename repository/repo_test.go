package repository

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/firsat-app/chat-server/database"
	"github.com/firsat-app/chat-server/models"
)

// newTestDB, gerçek migration'larla geçici bir SQLite veritabanı açar.
// Repository testleri gerçek şemaya karşı çalışır — constraint'lerin
// (UNIQUE, partial index, FK) davranışı mock'lanamaz.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		t.Fatalf("failed to open embedded migrations: %v", err)
	}

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), migrationsFS)
	if err != nil {
		t.Fatalf("failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db.Conn
}

// seedUser, FK constraint'leri için test kullanıcısı ekler.
func seedUser(t *testing.T, conn *sql.DB, id string) {
	t.Helper()
	if _, err := conn.Exec(
		"INSERT INTO users (id, username, role) VALUES (?, ?, 'user')", id, "u-"+id,
	); err != nil {
		t.Fatalf("failed to seed user %s: %v", id, err)
	}
}

// seedGroupChannel, testler için üyesiz bir grup kanalı oluşturur.
func seedGroupChannel(t *testing.T, conn *sql.DB, id, name string) {
	t.Helper()
	if _, err := conn.Exec(
		"INSERT INTO channels (id, type, name, is_active) VALUES (?, 'group', ?, 1)", id, name,
	); err != nil {
		t.Fatalf("failed to seed channel %s: %v", id, err)
	}
}

// seedMessage, minimal bir text mesajı ekler.
func seedMessage(t *testing.T, conn *sql.DB, id, channelID, senderID, content string) {
	t.Helper()
	if _, err := conn.Exec(
		"INSERT INTO messages (id, channel_id, sender_id, content) VALUES (?, ?, ?, ?)",
		id, channelID, senderID, content,
	); err != nil {
		t.Fatalf("failed to seed message %s: %v", id, err)
	}
}

func TestUserRepoSyncAndGet(t *testing.T) {
	conn := newTestDB(t)
	repo := NewSQLiteUserRepo(conn)
	ctx := context.Background()

	user := &models.User{ID: "u1", Username: "ayse", Role: models.RoleUser}
	if err := repo.Sync(ctx, user); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "ayse" {
		t.Errorf("Username = %q, want %q", got.Username, "ayse")
	}

	// İkinci sync upsert'tir — rol/username güncellenir
	user.Username = "ayse_k"
	user.Role = models.RoleModerator
	if err := repo.Sync(ctx, user); err != nil {
		t.Fatalf("ikinci Sync() error = %v", err)
	}

	got, err = repo.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "ayse_k" || got.Role != models.RoleModerator {
		t.Errorf("upsert sonrası user = %+v", got)
	}
}

func TestUserRepoGetByIDs(t *testing.T) {
	conn := newTestDB(t)
	repo := NewSQLiteUserRepo(conn)
	ctx := context.Background()

	seedUser(t, conn, "u1")
	seedUser(t, conn, "u2")

	users, err := repo.GetByIDs(ctx, []string{"u1", "u2", "yok"})
	if err != nil {
		t.Fatalf("GetByIDs() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("len(users) = %d, want 2", len(users))
	}
	if _, ok := users["yok"]; ok {
		t.Error("bulunamayan ID map'te yer almamalı")
	}
}
