package services

import (
	"database/sql"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"

	"github.com/firsat-app/chat-server/database"
	"github.com/firsat-app/chat-server/repository"
	"github.com/firsat-app/chat-server/ws"
)

// fakeHub, testlerde ws.EventPublisher yerine geçer — yayınlanan event'leri
// kaydeder, gerçek bağlantı tutmaz. Online durumu test başına set edilir.
type fakeHub struct {
	mu     sync.Mutex
	events []publishedEvent
	online map[string]bool
}

type publishedEvent struct {
	op      string
	userIDs []string // boş → broadcast-to-all
}

func newFakeHub() *fakeHub {
	return &fakeHub{online: map[string]bool{}}
}

func (h *fakeHub) record(op string, userIDs ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, publishedEvent{op: op, userIDs: userIDs})
}

func (h *fakeHub) BroadcastToAll(event ws.Event) { h.record(event.Op) }

func (h *fakeHub) BroadcastToAllExcept(excludeUserID string, event ws.Event) {
	h.record(event.Op)
}
func (h *fakeHub) BroadcastToUser(userID string, event ws.Event) { h.record(event.Op, userID) }
func (h *fakeHub) BroadcastToUsers(userIDs []string, event ws.Event) {
	h.record(event.Op, userIDs...)
}
func (h *fakeHub) BroadcastToUsersExcept(userIDs []string, excludeUserID string, event ws.Event) {
	kept := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id != excludeUserID {
			kept = append(kept, id)
		}
	}
	h.record(event.Op, kept...)
}

func (h *fakeHub) GetOnlineUserIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.online))
	for id, on := range h.online {
		if on {
			ids = append(ids, id)
		}
	}
	return ids
}

func (h *fakeHub) IsOnline(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.online[userID]
}

func (h *fakeHub) Username(userID string) string { return "u-" + userID }

// opsFor, verilen kullanıcıya (veya broadcast-to-all olarak) giden
// event op'larını sırayla döner.
func (h *fakeHub) opsFor(userID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var ops []string
	for _, e := range h.events {
		if len(e.userIDs) == 0 {
			ops = append(ops, e.op)
			continue
		}
		for _, id := range e.userIDs {
			if id == userID {
				ops = append(ops, e.op)
				break
			}
		}
	}
	return ops
}

func (h *fakeHub) lastOp() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) == 0 {
		return ""
	}
	return h.events[len(h.events)-1].op
}

// testEnv, service testleri için gerçek SQLite repository'leri ve fake hub'ı
// bir arada kurar. Service mantığı gerçek constraint'lere karşı test edilir.
type testEnv struct {
	conn     *sql.DB
	hub      *fakeHub
	users    repository.UserRepository
	channels repository.ChannelRepository
	messages repository.MessageRepository
	react    repository.ReactionRepository
	requests repository.ChatRequestRepository
	bans     repository.BanRepository
	prefs    repository.PreferencesRepository
}

func newTestEnv(t *testing.T) *testEnv {
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

	return &testEnv{
		conn:     db.Conn,
		hub:      newFakeHub(),
		users:    repository.NewSQLiteUserRepo(db.Conn),
		channels: repository.NewSQLiteChannelRepo(db.Conn),
		messages: repository.NewSQLiteMessageRepo(db.Conn),
		react:    repository.NewSQLiteReactionRepo(db.Conn),
		requests: repository.NewSQLiteChatRequestRepo(db.Conn),
		bans:     repository.NewSQLiteBanRepo(db.Conn),
		prefs:    repository.NewSQLitePreferencesRepo(db.Conn),
	}
}

func (env *testEnv) seedUser(t *testing.T, id, role string) {
	t.Helper()
	if _, err := env.conn.Exec(
		"INSERT INTO users (id, username, role) VALUES (?, ?, ?)", id, "u-"+id, role,
	); err != nil {
		t.Fatalf("failed to seed user %s: %v", id, err)
	}
}

func (env *testEnv) seedGroup(t *testing.T, id, name string, members ...string) {
	t.Helper()
	if _, err := env.conn.Exec(
		"INSERT INTO channels (id, type, name, is_active) VALUES (?, 'group', ?, 1)", id, name,
	); err != nil {
		t.Fatalf("failed to seed channel %s: %v", id, err)
	}
	for _, m := range members {
		if _, err := env.conn.Exec(
			"INSERT INTO channel_members (channel_id, user_id) VALUES (?, ?)", id, m,
		); err != nil {
			t.Fatalf("failed to seed membership %s/%s: %v", id, m, err)
		}
	}
}

func strPtr(s string) *string { return &s }
