// Package database embed dosyası — chat şemasının migration SQL
// dosyalarını binary'ye gömer.
//
// Go'nun embed paketi, derleme zamanında dosyaları binary'nin içine gömer.
// Chat server tek binary olarak deploy edilir; yanında migrations/ dizini
// taşımadan şemayı (kanallar, mesajlar, chat request'ler, ban'lar) kendisi
// kurabilir. //go:embed directive'i derleyiciye hangi dosyaları
// gömeceğini söyler.
package database

import "embed"

// EmbeddedMigrations, migrations/ dizinindeki şema dosyalarını içerir.
// database.New bunları sırayla uygular; global kanal seed'i de buradadır.
// Testler fs.Sub(EmbeddedMigrations, "migrations") ile aynı şemayı kurar.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS
