// Package service implements the downstream service clients and the
// aggregation logic on top of the outbound executor.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/zumatel/hlr-service-bff/internal/proxy"
)

// Executor is the outbound call surface the services depend on.
// Implemented by proxy.Proxy.
type Executor interface {
	Get(ctx context.Context, opts proxy.Options) (json.RawMessage, error)
	Post(ctx context.Context, opts proxy.Options) (json.RawMessage, error)
}

// Transacao is the transaction metadata attached to aggregated responses.
type Transacao struct {
	ID       string `json:"id"`
	Datetime string `json:"datetime"`
}

// NewTransacao mints transaction metadata for a response assembled here
// rather than passed through from a downstream service.
func NewTransacao() Transacao {
	return Transacao{
		ID:       uuid.NewString(),
		Datetime: time.Now().UTC().Format(time.RFC3339),
	}
}

// Resultado is the standard downstream result envelope.
type Resultado struct {
	CodigoHTTP int             `json:"codigoHttp"`
	Mensagem   string          `json:"mensagem,omitempty"`
	Dados      json.RawMessage `json:"dados,omitempty"`
	Transacao  *Transacao      `json:"transacao,omitempty"`
}

// ApiResponse wraps a Resultado the way downstream services return it.
type ApiResponse struct {
	Resultado Resultado `json:"resultado"`
}

// PartnerValidation is a hub validation result tagged with the program that
// produced it.
type PartnerValidation struct {
	Partner   Program   `json:"partner"`
	Resultado Resultado `json:"resultado"`
}

// Successful reports whether the hub found the customer in the program.
func (v *PartnerValidation) Successful() bool {
	return v != nil && v.Resultado.CodigoHTTP == 200 && len(v.Resultado.Dados) > 0
}

// PartnerData is the normalized partner section of a customer profile.
type PartnerData struct {
	Found   bool            `json:"found"`
	Program *Program        `json:"program"`
	Tier    json.RawMessage `json:"tier,omitempty"`
	Message string          `json:"message,omitempty"`
}

// IdentifierInfo describes the identifier a profile was looked up by.
type IdentifierInfo struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// CustomerProfile is the aggregated account plus partner view of a customer.
// Account carries the billing response verbatim for compatibility with
// existing consumers; it is null when the billing lookup failed.
type CustomerProfile struct {
	Identifier IdentifierInfo  `json:"identifier"`
	Account    json.RawMessage `json:"account"`
	Partner    PartnerData     `json:"partner"`
	Transacao  Transacao       `json:"transacao"`
}
