package services

import (
	"context"
	"errors"
	"testing"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
	"github.com/firsat-app/chat-server/pkg/email"
)

func newModerationService(env *testEnv) ModerationService {
	return NewModerationService(env.bans, env.users, email.NewNoopSender(), env.hub)
}

func TestBanRequiresModerator(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	svc := newModerationService(env)

	_, err := svc.Ban(context.Background(), "alice", models.RoleUser, &models.BanRequest{
		UserID: "bob", Reason: "hoşuma gitmedi",
	})
	if !errors.Is(err, pkg.ErrForbidden) {
		t.Fatalf("user Ban() error = %v, want ErrForbidden", err)
	}
}

func TestBanRules(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "mod", "moderator")
	env.seedUser(t, "mod2", "moderator")
	env.seedUser(t, "admin", "admin")
	svc := newModerationService(env)
	ctx := context.Background()

	// Moderatör kendini banlayamaz
	_, err := svc.Ban(ctx, "mod", models.RoleModerator, &models.BanRequest{UserID: "mod", Reason: "test"})
	if !errors.Is(err, pkg.ErrValidation) {
		t.Errorf("self-ban error = %v, want ErrValidation", err)
	}

	// Moderatör başka bir moderatörü banlayamaz
	_, err = svc.Ban(ctx, "mod", models.RoleModerator, &models.BanRequest{UserID: "mod2", Reason: "test"})
	if !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("mod-bans-mod error = %v, want ErrForbidden", err)
	}

	// Admin moderatörü banlayabilir
	if _, err := svc.Ban(ctx, "admin", models.RoleAdmin, &models.BanRequest{UserID: "mod2", Reason: "yetki aşımı"}); err != nil {
		t.Errorf("admin-bans-mod error = %v", err)
	}

	// Normal ban + banlıya jenerik bildirim
	ban, err := svc.Ban(ctx, "mod", models.RoleModerator, &models.BanRequest{UserID: "alice", Reason: "spam"})
	if err != nil {
		t.Fatalf("Ban() error = %v", err)
	}
	if !ban.IsActive || !ban.IsGlobal() {
		t.Errorf("Ban() = %+v", ban)
	}
	if ops := env.hub.opsFor("alice"); len(ops) != 1 || ops[0] != "ban_notice" {
		t.Errorf("alice event'leri = %v, want ban_notice", ops)
	}

	// Aynı scope'ta ikinci aktif ban
	_, err = svc.Ban(ctx, "mod", models.RoleModerator, &models.BanRequest{UserID: "alice", Reason: "yine spam"})
	if !errors.Is(err, pkg.ErrConflict) {
		t.Errorf("duplicate ban error = %v, want ErrConflict", err)
	}

	banned, err := svc.IsBanned(ctx, "alice", nil)
	if err != nil || !banned {
		t.Errorf("IsBanned() = (%v, %v), want (true, nil)", banned, err)
	}

	// Unban sonrası kalkmış olmalı
	if err := svc.Unban(ctx, "mod", models.RoleModerator, ban.ID); err != nil {
		t.Fatalf("Unban() error = %v", err)
	}
	banned, err = svc.IsBanned(ctx, "alice", nil)
	if err != nil || banned {
		t.Errorf("Unban sonrası IsBanned() = (%v, %v), want (false, nil)", banned, err)
	}
}

func TestListBansRequiresModerator(t *testing.T) {
	env := newTestEnv(t)
	svc := newModerationService(env)

	if _, err := svc.ListBans(context.Background(), models.RoleUser); !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("ListBans error = %v, want ErrForbidden", err)
	}
}

func TestUnbanRequestWorkflow(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "mod", "moderator")
	svc := newModerationService(env)
	ctx := context.Background()

	// Banlı olmayan kullanıcı talep açamaz
	_, err := svc.RequestUnban(ctx, "alice", &models.CreateUnbanRequestRequest{Reason: "haksızlık"})
	if !errors.Is(err, pkg.ErrValidation) {
		t.Fatalf("bansız RequestUnban error = %v, want ErrValidation", err)
	}

	if _, err := svc.Ban(ctx, "mod", models.RoleModerator, &models.BanRequest{UserID: "alice", Reason: "spam"}); err != nil {
		t.Fatal(err)
	}

	request, err := svc.RequestUnban(ctx, "alice", &models.CreateUnbanRequestRequest{Reason: "özür dilerim, tekrarlamayacağım"})
	if err != nil {
		t.Fatalf("RequestUnban() error = %v", err)
	}
	if request.Status != models.UnbanRequestPending {
		t.Errorf("Status = %q, want pending", request.Status)
	}

	// Kullanıcı başına tek pending talep
	_, err = svc.RequestUnban(ctx, "alice", &models.CreateUnbanRequestRequest{Reason: "ikinci talep"})
	if !errors.Is(err, pkg.ErrConflict) {
		t.Errorf("duplicate RequestUnban error = %v, want ErrConflict", err)
	}

	pending, err := svc.ListUnbanRequests(ctx, models.RoleModerator)
	if err != nil || len(pending) != 1 {
		t.Fatalf("ListUnbanRequests = (%d, %v), want 1 talep", len(pending), err)
	}

	// Approve tüm aktif ban'ları düşürür
	resolved, err := svc.ResolveUnbanRequest(ctx, "mod", models.RoleModerator, request.ID, &models.ResolveUnbanRequestRequest{Action: "approve"})
	if err != nil {
		t.Fatalf("ResolveUnbanRequest() error = %v", err)
	}
	if resolved.Status != models.UnbanRequestApproved {
		t.Errorf("Status = %q, want approved", resolved.Status)
	}
	if banned, _ := svc.IsBanned(ctx, "alice", nil); banned {
		t.Error("approve sonrası ban kalkmış olmalı")
	}

	// Çözülmüş talep tekrar çözülemez
	_, err = svc.ResolveUnbanRequest(ctx, "mod", models.RoleModerator, request.ID, &models.ResolveUnbanRequestRequest{Action: "reject"})
	if !errors.Is(err, pkg.ErrInvalidState) {
		t.Errorf("ikinci resolve error = %v, want ErrInvalidState", err)
	}
}
