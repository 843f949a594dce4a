// Package email, operasyon ekibine alert email'i göndermek için soyutlama
// katmanı sağlar.
//
// AlertSender interface'i ile gönderim detayları soyutlanır (Dependency
// Inversion). Şu anki implementasyon Resend API kullanır. İleride farklı
// bir sağlayıcıya geçmek için sadece yeni bir implementasyon yazıp
// constructor'da değiştirmek yeterli.
//
// Bu paket dışarıya üç şey sunar:
// 1. AlertSender interface — service'ler buna bağımlı olur
// 2. NewResendSender constructor — main.go'da wire-up için
// 3. NewNoopSender — API key konfigüre edilmediğinde sessiz fallback;
//    alert gönderememek hiçbir chat operasyonunu bloklamaz
package email

import (
	"context"
	"fmt"
	"html"
	"log"

	"github.com/resend/resend-go/v3"
)

// AlertSender, operasyonel alert gönderimi için interface.
// Service katmanı bu interface'e bağımlıdır, concrete Resend
// implementasyonuna değil.
type AlertSender interface {
	// SendOpsAlert, operasyon ekibine kısa bir alert email'i gönderir.
	// subject konu satırı, body düz metin açıklamadır.
	SendOpsAlert(ctx context.Context, subject, body string) error
}

// resendSender, Resend API ile alert gönderen AlertSender implementasyonu.
type resendSender struct {
	client    *resend.Client
	fromEmail string // Gönderici adresi (ör: alerts@firsat.app)
	toEmail   string // Operasyon ekibinin alert kutusu
}

// NewResendSender, Resend API client'ı ile yeni bir AlertSender oluşturur.
//
// apiKey: Resend dashboard'dan alınan API key (re_xxxxxxxx formatında).
// fromEmail: Gönderici adres — Resend'de doğrulanmış domain altında olmalı.
// toEmail: Alert'lerin gideceği operasyon adresi.
func NewResendSender(apiKey, fromEmail, toEmail string) AlertSender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		toEmail:   toEmail,
	}
}

// SendOpsAlert, alert email'ini gönderir.
// Body düz metindir; HTML şablona escape edilerek gömülür.
func (s *resendSender) SendOpsAlert(ctx context.Context, subject, body string) error {
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:24px;background-color:#1a1a2e;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%%" cellpadding="0" cellspacing="0">
    <tr>
      <td align="center">
        <table width="480" cellpadding="0" cellspacing="0" style="background-color:#16213e;border-radius:8px;padding:32px;">
          <tr>
            <td>
              <h1 style="color:#e2e8f0;font-size:20px;margin:0 0 16px 0;">firsat.app chat</h1>
              <h2 style="color:#f87171;font-size:16px;margin:0 0 16px 0;">%s</h2>
              <p style="color:#94a3b8;font-size:14px;line-height:1.6;margin:0;white-space:pre-wrap;">%s</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, html.EscapeString(subject), html.EscapeString(body))

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("firsat.app chat <%s>", s.fromEmail),
		To:      []string{s.toEmail},
		Subject: subject,
		Html:    htmlBody,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send ops alert email: %w", err)
	}

	return nil
}

// noopSender, email konfigüre edilmediğinde devreye giren fallback.
// Alert'i log'a yazar ve başarı döner — ops alert'i best-effort'tur.
type noopSender struct{}

// NewNoopSender, gönderim yapmayan AlertSender döner.
func NewNoopSender() AlertSender {
	return noopSender{}
}

func (noopSender) SendOpsAlert(_ context.Context, subject, body string) error {
	log.Printf("[email] ops alert (email not configured): %s — %s", subject, body)
	return nil
}
