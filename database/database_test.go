package database

import (
	"io/fs"
	"path/filepath"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		want  int
		first string
	}{
		{
			name:  "basit iki statement",
			sql:   "CREATE TABLE a (id TEXT); CREATE TABLE b (id TEXT);",
			want:  2,
			first: "CREATE TABLE a (id TEXT)",
		},
		{
			name: "yorum içindeki noktalı virgül ayraç değildir",
			sql: "-- açıklama; devamı aynı satırda\n" +
				"CREATE TABLE a (id TEXT);\n" +
				"INSERT INTO a (id) VALUES ('x');",
			want: 2,
		},
		{
			name:  "string literal içindeki noktalı virgül korunur",
			sql:   "INSERT INTO a (id) VALUES ('a;b'); DELETE FROM a;",
			want:  2,
			first: "INSERT INTO a (id) VALUES ('a;b')",
		},
		{
			name:  "escape edilmiş tırnak string'i kapatmaz",
			sql:   "INSERT INTO a (id) VALUES ('it''s; fine');",
			want:  1,
			first: "INSERT INTO a (id) VALUES ('it''s; fine')",
		},
		{
			name: "sadece yorumdan oluşan parça statement sayılmaz",
			sql:  "CREATE TABLE a (id TEXT);\n-- kapanış notu\n",
			want: 1,
		},
		{
			name: "statement'ın başındaki yorum bloğu statement'la kalır",
			sql: "-- tablo açıklaması; noktalı virgüllü\n" +
				"CREATE TABLE a (id TEXT);",
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitStatements(tt.sql)
			if len(got) != tt.want {
				t.Fatalf("splitStatements() %d statement döndü, want %d: %q", len(got), tt.want, got)
			}
			if tt.first != "" && got[0] != tt.first {
				t.Errorf("statements[0] = %q, want %q", got[0], tt.first)
			}
		})
	}
}

func TestNewAppliesEmbeddedMigrations(t *testing.T) {
	migrationsFS, err := fs.Sub(EmbeddedMigrations, "migrations")
	if err != nil {
		t.Fatalf("failed to open embedded migrations: %v", err)
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath, migrationsFS)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	// Seed migration'ı global kanalı yaratmış olmalı
	var count int
	if err := db.Conn.QueryRow(
		"SELECT COUNT(*) FROM channels WHERE is_global = 1 AND is_active = 1",
	).Scan(&count); err != nil {
		t.Fatalf("global kanal sorgusu: %v", err)
	}
	if count != 1 {
		t.Errorf("aktif global kanal sayısı = %d, want 1", count)
	}

	// Aynı dosyaya ikinci New idempotenttir — migration'lar tekrar koşmaz
	db2, err := New(dbPath, migrationsFS)
	if err != nil {
		t.Fatalf("ikinci New() error = %v", err)
	}
	defer db2.Close()
}
