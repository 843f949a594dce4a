package models

// ReactionGroup, bir mesajın tek bir emoji'si için aggregate görünüm.
//
// Tekil reaction tuple'ları (message_id, user_id, emoji) DB'de yaşar;
// API'ye her zaman gruplanmış hali döner. UserReacted, isteği yapan
// kullanıcının bu emoji'ye tepki verip vermediğini taşır — client'ın
// optimistic update sonrası reconcile etmesi için read-your-writes
// garantisiyle hesaplanır.
type ReactionGroup struct {
	Emoji       string `json:"emoji"`
	Count       int    `json:"count"`
	UserReacted bool   `json:"user_reacted"`
}
