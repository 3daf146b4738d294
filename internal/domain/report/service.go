// Package report sends the consolidated report email. Delivery is
// deliberately tolerant: a missing API key simulates the send and a
// provider error soft-fails, so the dashboard flow never breaks on email.
package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
	"github.com/shopspring/decimal"

	"github.com/controlenotas/notas-api/internal/domain/export"
	"github.com/controlenotas/notas-api/internal/domain/records"
)

// SendStatus tells the caller how the send actually went.
type SendStatus string

const (
	StatusSent      SendStatus = "real"
	StatusSimulated SendStatus = "demo"
	StatusSoftFail  SendStatus = "soft-fail"
)

// Outcome is the result of one report send attempt.
type Outcome struct {
	Status SendStatus `json:"status"`
	SentTo string     `json:"sent_to"`
	Note   string     `json:"note,omitempty"`
}

// Service sends consolidated report emails through Resend.
type Service struct {
	apiKey    string
	fromEmail string
	logger    *slog.Logger
}

func NewService(apiKey, fromEmail string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{apiKey: apiKey, fromEmail: fromEmail, logger: logger}
}

// Send emails a summary of the snapshot to the given address.
func (s *Service) Send(ctx context.Context, email string, snap *records.Snapshot) Outcome {
	if s.apiKey == "" {
		s.logger.Warn("resend api key missing, simulating report send", slog.String("to", email))
		return Outcome{Status: StatusSimulated, SentTo: email, Note: "envio simulado (sem chave Resend)"}
	}

	client := resend.NewClient(s.apiKey)
	sent, err := client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{email},
		Subject: "Relatório Consolidado",
		Html:    buildHTML(snap),
	})
	if err != nil {
		s.logger.Error("report send failed", slog.String("to", email), slog.Any("error", err))
		return Outcome{Status: StatusSoftFail, SentTo: email, Note: err.Error()}
	}

	s.logger.Info("report sent", slog.String("to", email), slog.String("id", sent.Id))
	return Outcome{Status: StatusSent, SentTo: email}
}

func buildHTML(snap *records.Snapshot) string {
	total := totalPayable(snap)
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; font-size:14px; line-height:1.4;">
			<h2>Relatório Consolidado</h2>
			<p>Faturas: %d &middot; Produtos: %d &middot; Fornecedores: %d</p>
			<p>Total a pagar: <strong>%s</strong></p>
			<hr/>
			<p style="color:#6b7280">Enviado automaticamente pelo sistema de Controle de Notas e Produtos.</p>
		</div>`,
		len(snap.Invoices), len(snap.Products), len(snap.Suppliers), total,
	)
}

func totalPayable(snap *records.Snapshot) string {
	sum := decimal.Zero
	for _, inv := range snap.Invoices {
		sum = sum.Add(inv.Total)
	}
	return export.FormatBRL(sum)
}
