package repository

import "strings"

// isUniqueViolation, SQLite UNIQUE constraint hatasını tanır.
//
// modernc.org/sqlite driver'ı constraint hatalarını typed olarak export
// etmez; hata metni "UNIQUE constraint failed: tablo.kolon" şeklindedir.
// Pending chat request ve aktif ban gibi "aynı anda en fazla bir" kuralları
// partial unique index ile DB seviyesinde korunur — yarışı kaybeden INSERT
// bu hatayla döner ve service katmanı pkg.ErrConflict'e çevirir.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
