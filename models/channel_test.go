package models

import (
	"strings"
	"testing"
)

func TestPairKey(t *testing.T) {
	// Anahtar sıra bağımsız olmalı — (A,B) ve (B,A) aynı kanalı bulur.
	if PairKey("alice", "bob") != PairKey("bob", "alice") {
		t.Error("PairKey sıra bağımsız olmalı")
	}
	if got, want := PairKey("bob", "alice"), "alice:bob"; got != want {
		t.Errorf("PairKey = %q, want %q", got, want)
	}
}

func TestCreateGroupChannelRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "geçerli isim", input: "Elektronik Fırsatlar"},
		{name: "iki karakter sınırı", input: "ab"},
		{name: "tek karakter", input: "a", wantErr: true},
		{name: "boşluk trim edilir", input: "   x   ", wantErr: true},
		{name: "64 karakter üstü", input: strings.Repeat("k", 65), wantErr: true},
		{name: "unicode rune sayılır", input: strings.Repeat("ş", 64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := CreateGroupChannelRequest{Name: tt.input}
			err := req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
