package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/firsat-app/chat-server/models"
	"github.com/firsat-app/chat-server/pkg"
	"github.com/firsat-app/chat-server/pkg/ratelimit"
)

func newChatRequestService(env *testEnv) ChatRequestService {
	limiter := ratelimit.NewRequestRateLimiter(100, time.Minute)
	return NewChatRequestService(env.requests, env.channels, env.prefs, env.bans, env.users, limiter, env.hub)
}

func TestChatRequestSend(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	svc := newChatRequestService(env)

	request, err := svc.Send(context.Background(), "alice", &models.SendChatRequestRequest{
		RecipientID: "bob", Message: strPtr("merhaba, fırsatı konuşalım mı?"),
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if request.Status != models.ChatRequestPending {
		t.Errorf("Status = %q, want pending", request.Status)
	}

	// Sadece alıcıya bildirilir
	if ops := env.hub.opsFor("bob"); len(ops) != 1 || ops[0] != "chat_request_create" {
		t.Errorf("bob'a giden event'ler = %v", ops)
	}
	if ops := env.hub.opsFor("alice"); len(ops) != 0 {
		t.Errorf("requester'a bildirim gitmemeli: %v", ops)
	}
}

func TestChatRequestAutoAcceptFromFollower(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	svc := newChatRequestService(env)
	ctx := context.Background()

	// Bob takipçilerden gelenleri otomatik kabul ediyor, alice onu takip ediyor
	if err := env.prefs.Upsert(ctx, &models.ChatPreferences{
		UserID: "bob", AllowPrivateMessages: true, AutoAcceptRequestsFromFollowers: true,
	}); err != nil {
		t.Fatal(err)
	}
	if err := env.prefs.Follow(ctx, "alice", "bob"); err != nil {
		t.Fatal(err)
	}

	request, err := svc.Send(ctx, "alice", &models.SendChatRequestRequest{
		RecipientID: "bob", Message: strPtr("merhaba"),
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if request.Status != models.ChatRequestAccepted {
		t.Errorf("Status = %q, want accepted", request.Status)
	}

	// Private kanal açılmış ve iki tarafa da channel_create gitmiş olmalı
	dm, err := env.channels.GetPrivateByPair(ctx, models.PairKey("alice", "bob"))
	if err != nil {
		t.Fatal(err)
	}
	if dm == nil {
		t.Fatal("auto-accept private kanal oluşturmalı")
	}
	for _, userID := range []string{"alice", "bob"} {
		ops := env.hub.opsFor(userID)
		if len(ops) != 1 || ops[0] != "channel_create" {
			t.Errorf("%s event'leri = %v, want sadece channel_create", userID, ops)
		}
	}
}

func TestChatRequestAutoAcceptRequiresFollow(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	svc := newChatRequestService(env)
	ctx := context.Background()

	// Tercih açık ama alice bob'u takip ETMİYOR — normal pending akışı
	if err := env.prefs.Upsert(ctx, &models.ChatPreferences{
		UserID: "bob", AllowPrivateMessages: true, AutoAcceptRequestsFromFollowers: true,
	}); err != nil {
		t.Fatal(err)
	}

	request, err := svc.Send(ctx, "alice", &models.SendChatRequestRequest{
		RecipientID: "bob", Message: strPtr("merhaba"),
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if request.Status != models.ChatRequestPending {
		t.Errorf("Status = %q, want pending", request.Status)
	}
	if ops := env.hub.opsFor("bob"); len(ops) != 1 || ops[0] != "chat_request_create" {
		t.Errorf("bob'a giden event'ler = %v", ops)
	}
}

func TestChatRequestAutoAcceptFollowDirectionMatters(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	svc := newChatRequestService(env)
	ctx := context.Background()

	// Ters yön: bob alice'i takip ediyor ama alice bob'u etmiyor.
	// "Takipçilerden otomatik kabul" requester'ın takibine bakar.
	if err := env.prefs.Upsert(ctx, &models.ChatPreferences{
		UserID: "bob", AllowPrivateMessages: true, AutoAcceptRequestsFromFollowers: true,
	}); err != nil {
		t.Fatal(err)
	}
	if err := env.prefs.Follow(ctx, "bob", "alice"); err != nil {
		t.Fatal(err)
	}

	request, err := svc.Send(ctx, "alice", &models.SendChatRequestRequest{
		RecipientID: "bob", Message: strPtr("merhaba"),
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if request.Status != models.ChatRequestPending {
		t.Errorf("Status = %q, want pending", request.Status)
	}
}

func TestChatRequestSendRejections(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	env.seedUser(t, "carol", "user")
	env.seedUser(t, "dave", "user")
	env.seedUser(t, "mod", "moderator")
	svc := newChatRequestService(env)
	ctx := context.Background()

	// Kendine request
	_, err := svc.Send(ctx, "alice", &models.SendChatRequestRequest{RecipientID: "alice", Message: strPtr("selam")})
	if !errors.Is(err, pkg.ErrValidation) {
		t.Errorf("self request error = %v, want ErrValidation", err)
	}

	// Alıcı alice'i bloklamış — jenerik NotFound, blok varlığı sızdırılmaz
	if err := env.prefs.Block(ctx, "bob", "alice"); err != nil {
		t.Fatal(err)
	}
	_, err = svc.Send(ctx, "alice", &models.SendChatRequestRequest{RecipientID: "bob", Message: strPtr("selam")})
	if !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("blocked-by-recipient error = %v, want ErrNotFound", err)
	}

	// Gönderen carol'ı bloklamış — açık Forbidden
	if err := env.prefs.Block(ctx, "alice", "carol"); err != nil {
		t.Fatal(err)
	}
	_, err = svc.Send(ctx, "alice", &models.SendChatRequestRequest{RecipientID: "carol", Message: strPtr("selam")})
	if !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("you-blocked error = %v, want ErrForbidden", err)
	}

	// Alıcı private mesajları kapatmış
	if err := env.prefs.Upsert(ctx, &models.ChatPreferences{UserID: "dave"}); err != nil {
		t.Fatal(err)
	}
	_, err = svc.Send(ctx, "alice", &models.SendChatRequestRequest{RecipientID: "dave", Message: strPtr("selam")})
	if !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("prefs-closed error = %v, want ErrForbidden", err)
	}
}

func TestChatRequestSendDuplicatePending(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	svc := newChatRequestService(env)
	ctx := context.Background()

	if _, err := svc.Send(ctx, "alice", &models.SendChatRequestRequest{RecipientID: "bob", Message: strPtr("bir")}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Send(ctx, "alice", &models.SendChatRequestRequest{RecipientID: "bob", Message: strPtr("iki")})
	if !errors.Is(err, pkg.ErrConflict) {
		t.Errorf("duplicate pending error = %v, want ErrConflict", err)
	}
}

func TestChatRequestRespondAccept(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	svc := newChatRequestService(env)
	ctx := context.Background()

	request, err := svc.Send(ctx, "alice", &models.SendChatRequestRequest{RecipientID: "bob", Message: strPtr("merhaba")})
	if err != nil {
		t.Fatal(err)
	}

	updated, channel, err := svc.Respond(ctx, request.ID, "bob", &models.RespondChatRequestRequest{Action: "accept"})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if updated.Status != models.ChatRequestAccepted {
		t.Errorf("Status = %q, want accepted", updated.Status)
	}
	if channel == nil || channel.Type != models.ChannelTypePrivate {
		t.Fatalf("accept private kanal döndürmeli: %+v", channel)
	}

	// Her iki tarafa channel_create, requester'a request güncellemesi
	aliceOps := env.hub.opsFor("alice")
	foundChannel, foundUpdate := false, false
	for _, op := range aliceOps {
		if op == "channel_create" {
			foundChannel = true
		}
		if op == "chat_request_update" {
			foundUpdate = true
		}
	}
	if !foundChannel || !foundUpdate {
		t.Errorf("alice'e giden event'ler = %v", aliceOps)
	}

	// Terminal duruma ikinci yanıt geçersiz
	_, _, err = svc.Respond(ctx, request.ID, "bob", &models.RespondChatRequestRequest{Action: "reject"})
	if !errors.Is(err, pkg.ErrInvalidState) {
		t.Errorf("terminal respond error = %v, want ErrInvalidState", err)
	}
}

func TestChatRequestRespondIgnoreIsSilent(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	svc := newChatRequestService(env)
	ctx := context.Background()

	request, err := svc.Send(ctx, "alice", &models.SendChatRequestRequest{RecipientID: "bob", Message: strPtr("merhaba")})
	if err != nil {
		t.Fatal(err)
	}

	updated, channel, err := svc.Respond(ctx, request.ID, "bob", &models.RespondChatRequestRequest{Action: "ignore"})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if updated.Status != models.ChatRequestIgnored || channel != nil {
		t.Errorf("ignore = (%q, %v)", updated.Status, channel)
	}

	// Requester ignore edildiğini GÖRMEZ
	for _, op := range env.hub.opsFor("alice") {
		if op == "chat_request_update" {
			t.Error("ignore requester'a bildirilmemeli")
		}
	}
}

func TestChatRequestRespondOnlyRecipient(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	env.seedUser(t, "carol", "user")
	svc := newChatRequestService(env)
	ctx := context.Background()

	request, err := svc.Send(ctx, "alice", &models.SendChatRequestRequest{RecipientID: "bob", Message: strPtr("merhaba")})
	if err != nil {
		t.Fatal(err)
	}

	// Requester kendi isteğini yanıtlayamaz, üçüncü taraf hiç göremez
	for _, actor := range []string{"alice", "carol"} {
		_, _, err := svc.Respond(ctx, request.ID, actor, &models.RespondChatRequestRequest{Action: "accept"})
		if !errors.Is(err, pkg.ErrNotFound) {
			t.Errorf("%s respond error = %v, want ErrNotFound", actor, err)
		}
	}
}

func TestChatRequestAcceptBlockedWhenRequesterBanned(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "user")
	env.seedUser(t, "bob", "user")
	env.seedUser(t, "mod", "moderator")
	svc := newChatRequestService(env)
	ctx := context.Background()

	request, err := svc.Send(ctx, "alice", &models.SendChatRequestRequest{RecipientID: "bob", Message: strPtr("merhaba")})
	if err != nil {
		t.Fatal(err)
	}

	// Request gönderildikten SONRA gelen global ban accept'i engeller
	if err := env.bans.Create(ctx, &models.Ban{UserID: "alice", BannedBy: "mod", Reason: "spam"}); err != nil {
		t.Fatal(err)
	}
	_, _, err = svc.Respond(ctx, request.ID, "bob", &models.RespondChatRequestRequest{Action: "accept"})
	if !errors.Is(err, pkg.ErrInvalidState) {
		t.Errorf("banned-requester accept error = %v, want ErrInvalidState", err)
	}

	// Request pending kalır, reject hâlâ mümkündür
	updated, _, err := svc.Respond(ctx, request.ID, "bob", &models.RespondChatRequestRequest{Action: "reject"})
	if err != nil {
		t.Fatalf("reject error = %v", err)
	}
	if updated.Status != models.ChatRequestRejected {
		t.Errorf("Status = %q, want rejected", updated.Status)
	}
}
