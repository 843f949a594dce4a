package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ChannelType, bir kanalın türünü temsil eder.
//
// global: Sistemde tam olarak bir tane aktif global kanal bulunur, herkes
// implicit üyedir. Lazy oluşturulmaz — migration/seed ile provision edilir.
// group: İsimli, katıl/ayrıl yaşam döngüsü olan kanal.
// private: İki kullanıcı arasındaki DM kanalı; sırasız kullanıcı çifti
// başına en fazla bir tane (pair_key UNIQUE constraint'i ile).
type ChannelType string

const (
	ChannelTypeGlobal  ChannelType = "global"
	ChannelTypeGroup   ChannelType = "group"
	ChannelTypePrivate ChannelType = "private"
)

// Channel, bir konuşma alanını temsil eder.
// LastMessageAt denormalize edilmiştir — kanal listesi sıralaması için
// her mesaj gönderiminde güncellenir.
type Channel struct {
	ID            string      `json:"id"`
	Type          ChannelType `json:"type"`
	Name          *string     `json:"name"` // private kanallarda nil — isim karşı taraftan türetilir
	IsGlobal      bool        `json:"is_global"`
	CreatedBy     *string     `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
	IsActive      bool        `json:"is_active"`
	LastMessageAt *time.Time  `json:"last_message_at"`
	MemberCount   int         `json:"member_count"`
}

// ChannelSummary, kanal listesi için annotate edilmiş kanal.
// LastMessage JOIN ile doldurulur, UnreadCount caller'a özeldir.
type ChannelSummary struct {
	Channel
	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int      `json:"unread_count"`
	OtherUser   *User    `json:"other_user,omitempty"` // private kanalda karşı taraf
}

// ChannelMembership, bir kullanıcının kanal üyeliğini temsil eder.
type ChannelMembership struct {
	ChannelID   string    `json:"channel_id"`
	UserID      string    `json:"user_id"`
	JoinedAt    time.Time `json:"joined_at"`
	UnreadCount int       `json:"unread_count"`
}

// PairKey, iki kullanıcı ID'sinden sıra bağımsız bir private kanal anahtarı
// üretir. (A,B) ve (B,A) aynı anahtarı verir — DB'deki UNIQUE(pair_key)
// constraint'i aynı çift için ikinci bir private kanal oluşmasını
// uygulama seviyesi check-then-act'e güvenmeden engeller.
func PairKey(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}

// CreateGroupChannelRequest, grup kanalı oluşturma isteği.
type CreateGroupChannelRequest struct {
	Name string `json:"name"`
}

// Validate, grup kanalı isminin geçerli olup olmadığını kontrol eder.
func (r *CreateGroupChannelRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	nameLen := utf8.RuneCountInString(r.Name)
	if nameLen < 2 || nameLen > 64 {
		return fmt.Errorf("channel name must be between 2 and 64 characters")
	}
	return nil
}

// CreatePrivateChannelRequest, private kanal isteği — karşı tarafın ID'si.
type CreatePrivateChannelRequest struct {
	UserID string `json:"user_id"`
}

// Validate, CreatePrivateChannelRequest kontrolü.
func (r *CreatePrivateChannelRequest) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	if r.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	return nil
}
