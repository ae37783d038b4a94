package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/zumatel/hlr-service-bff/internal/proxy"
)

// ContaClient queries the billing (Conta) service for account details.
type ContaClient struct {
	exec    Executor
	baseURL string
}

// NewContaClient builds a billing client on top of the executor.
func NewContaClient(exec Executor, baseURL string) *ContaClient {
	return &ContaClient{exec: exec, baseURL: baseURL}
}

// GetDetalhes fetches account details for an identifier (MSISDN, IMSI, ICCID
// or document number). The response is returned verbatim so callers can pass
// it through unchanged.
func (c *ContaClient) GetDetalhes(ctx context.Context, id string) (json.RawMessage, error) {
	return c.exec.Get(ctx, proxy.Options{
		URL:       fmt.Sprintf("%s/conta/%s/detalhes", c.baseURL, id),
		LogPrefix: "CONTA",
	})
}

// ExtractMSISDN pulls the subscriber MSISDN out of a billing response.
// Returns "" when the response is nil or carries no MSISDN.
func ExtractMSISDN(conta json.RawMessage) string {
	return extractResultadoField(conta, "nuMsisdn", "msisdn")
}

// ExtractMVNO pulls the MVNO name out of a billing response.
func ExtractMVNO(conta json.RawMessage) string {
	return extractResultadoField(conta, "noMvno", "mvno")
}

// extractResultadoField reads the first non-empty of the named fields from the
// response's resultado object. Numeric values are rendered as their literal
// digits, not float notation.
func extractResultadoField(conta json.RawMessage, fields ...string) string {
	if len(conta) == 0 {
		return ""
	}

	var envelope struct {
		Resultado map[string]any `json:"resultado"`
	}
	dec := json.NewDecoder(bytes.NewReader(conta))
	dec.UseNumber()
	if err := dec.Decode(&envelope); err != nil {
		return ""
	}

	for _, field := range fields {
		switch v := envelope.Resultado[field].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}
