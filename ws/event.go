// Package ws, WebSocket bağlantı yönetimi ve gerçek zamanlı event dağıtımını sağlar.
//
// Mimari:
// - Hub: Tüm bağlantıları yöneten merkezi yapı (Observer pattern)
// - Client: Her WebSocket bağlantısını temsil eder
// - Event: Client-server arası iletilen mesaj formatı
//
// Event akışı:
// 1. Kullanıcı mesaj gönderir → HTTP POST → Service → DB kayıt
// 2. Service, Hub'ın BroadcastToUsers metodunu kanal üyeleriyle çağırır
// 3. Hub, event'i hedef client'lara iletir
// 4. Her client'ın WritePump'ı event'i WebSocket'e yazar
// 5. Frontend event'i alır ve store'u günceller
//
// WebSocket tamamen read-path + notification'dır: mesaj GÖNDERMEK her zaman
// HTTP üzerinden yapılır (ban/moderation pipeline'ı tek yerde kalsın diye).
// Client'tan sadece heartbeat ve typing sinyalleri kabul edilir.
package ws

// Event, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Op (operation): Event türü — "message_create", "heartbeat" vb.
// Data: Event'e özgü payload — mesaj objesi, kanal bilgisi vb.
// Seq (sequence number): Her outbound event'e verilen artan sayı.
//   Frontend eksik event tespit etmek için seq'i takip eder.
//   Örnek: seq 5'ten sonra seq 7 gelirse, 6 kaybolmuş demektir.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server operasyonları
const (
	OpHeartbeat  = "heartbeat"   // Client her 30sn'de gönderir — "hâlâ bağlıyım" sinyali
	OpTyping     = "typing"      // Kullanıcı bir kanalda yazıyor
	OpTypingStop = "typing_stop" // Kullanıcı yazmayı bıraktı (TTL beklemeden)
)

// Server → Client operasyonları
const (
	OpReady        = "ready"         // Bağlantı kurulduğunda ilk gönderilen — online kullanıcılar
	OpHeartbeatAck = "heartbeat_ack" // Heartbeat'e yanıt — "seni duydum"

	OpMessageCreate = "message_create" // Yeni mesaj oluşturuldu
	OpMessageUpdate = "message_update" // Mesaj düzenlendi
	OpMessageDelete = "message_delete" // Mesaj silindi (redacted haliyle)

	// Reaction aggregate'i değişti — payload mesajın TAM reaction listesi,
	// delta değil. Client state'i overwrite eder, drift birikmez.
	OpReactionUpdate = "reaction_update"

	OpChannelCreate = "channel_create" // Kullanıcının üye olduğu yeni kanal (accept sonrası DM dahil)
	OpMemberJoin    = "member_join"    // Grup kanalına üye katıldı
	OpMemberLeave   = "member_leave"   // Üye ayrıldı

	OpTypingStart       = "typing_start"    // Bir kullanıcı yazıyor
	OpTypingStopped     = "typing_stopped"  // Yazma bitti (explicit stop veya TTL)
	OpPresenceUpdate    = "presence_update" // Kullanıcı online/offline oldu
	OpChatRequestCreate = "chat_request_create" // Yeni chat request geldi (sadece alıcıya)
	OpChatRequestUpdate = "chat_request_update" // Request yanıtlandı (sadece istek sahibine)
	OpBanNotice         = "ban_notice"          // Banlandın — jenerik bildirim, sebep yok
	OpUnbanNotice       = "unban_notice"        // Ban kalktı
)

// ReadyData, bağlantı kurulduğunda client'a gönderilen ilk event'in payload'ı.
// Frontend online kullanıcıları Set'e atar (presence indicator için).
type ReadyData struct {
	OnlineUserIDs []string `json:"online_user_ids"`
}

// PresenceData, bir kullanıcının online durumu değiştiğinde broadcast edilen payload.
// Status: "online" veya "offline".
type PresenceData struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// TypingData, typing / typing_stop event'lerinin Client → Server payload'ı.
type TypingData struct {
	ChannelID string `json:"channel_id"`
}

// TypingStartData, typing_start ve typing_stopped event'lerinin payload'ı
// (broadcast edilen). Username cache'ten gelir — DB lookup yok.
type TypingStartData struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	ChannelID string `json:"channel_id"`
}

// MessageDeleteData, message_delete event'inin payload'ı.
// Mesajın tamamı değil, client'ın redaksiyon için ihtiyacı olan minimum.
type MessageDeleteData struct {
	MessageID string `json:"message_id"`
	ChannelID string `json:"channel_id"`
}

// ReactionUpdateData, reaction_update event'inin payload'ı.
// Reactions alanı viewer-agnostik aggregate'tir (user_reacted içermez) —
// her client kendi user_reacted durumunu kendi aksiyonlarından bilir.
type ReactionUpdateData struct {
	MessageID string `json:"message_id"`
	ChannelID string `json:"channel_id"`
	Reactions any    `json:"reactions"`
}

// BanNoticeData, ban_notice event'inin payload'ı.
// Sebep bilinçli olarak YOKTUR — banlı kullanıcıya jenerik mesaj gösterilir.
type BanNoticeData struct {
	ChannelID *string `json:"channel_id"` // nil = global ban
}

// MemberEventData, member_join / member_leave payload'ı.
type MemberEventData struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
}
