package models

import (
	"testing"
	"time"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		req  ChatRequest
		want ChatRequestStatus
	}{
		{
			name: "süresi dolmamış pending",
			req:  ChatRequest{Status: ChatRequestPending, ExpiresAt: now.Add(time.Hour)},
			want: ChatRequestPending,
		},
		{
			name: "süresi dolmuş pending lazy expire olur",
			req:  ChatRequest{Status: ChatRequestPending, ExpiresAt: now.Add(-time.Hour)},
			want: ChatRequestExpired,
		},
		{
			name: "terminal durum süreden etkilenmez",
			req:  ChatRequest{Status: ChatRequestAccepted, ExpiresAt: now.Add(-time.Hour)},
			want: ChatRequestAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.EffectiveStatus(now); got != tt.want {
				t.Errorf("EffectiveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChatRequestStatusIsTerminal(t *testing.T) {
	terminal := []ChatRequestStatus{ChatRequestAccepted, ChatRequestRejected, ChatRequestIgnored, ChatRequestExpired}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%q terminal olmalı", s)
		}
	}
	if ChatRequestPending.IsTerminal() {
		t.Error("pending terminal olmamalı")
	}
}

func TestBanInEffect(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		ban  Ban
		want bool
	}{
		{name: "süresiz aktif ban", ban: Ban{IsActive: true}, want: true},
		{name: "süresi dolmamış ban", ban: Ban{IsActive: true, ExpiresAt: &future}, want: true},
		{name: "süresi geçmiş ban", ban: Ban{IsActive: true, ExpiresAt: &past}, want: false},
		{name: "deaktive edilmiş ban", ban: Ban{IsActive: false}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ban.InEffect(now); got != tt.want {
				t.Errorf("InEffect() = %v, want %v", got, tt.want)
			}
		})
	}
}
