// Package repository, veritabanı erişim katmanını tanımlar.
//
// Her aggregate için bir interface + bir SQLite implementasyonu (sqlite_*.go)
// bulunur. Service katmanı interface'lere bağımlıdır — test'te veya driver
// değişiminde implementasyon takası service kodunu etkilemez.
package repository

import (
	"context"

	"github.com/firsat-app/chat-server/models"
)

// UserRepository, identity read-model'ine erişim.
//
// users tablosu identity servisinin verisidir; chat buraya sadece token
// claim'lerinden gelen profil senkronizasyonu yazar (Sync) ve mesaj
// enrichment'ı için okur. Kullanıcı yaratma/silme bu servisin işi değildir.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByIDs, birden fazla kullanıcıyı batch yükler (N+1 önleme).
	// Bulunamayan ID'ler map'te yer almaz.
	GetByIDs(ctx context.Context, ids []string) (map[string]models.User, error)

	// Sync, token claim'lerinden gelen kullanıcı bilgisini read-model'e
	// upsert eder. Identity servisi tek doğruluk kaynağıdır — her
	// authenticated istekte güncel username/role buraya yansır.
	Sync(ctx context.Context, user *models.User) error
}
