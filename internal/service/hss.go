package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zumatel/hlr-service-bff/internal/bfferrors"
	"github.com/zumatel/hlr-service-bff/internal/logger"
	"github.com/zumatel/hlr-service-bff/internal/proxy"
)

// HSSService queries the HSS network-subscriber endpoint, resolving any
// accepted identifier (MSISDN, IMSI, ICCID) to the MSISDN the HSS expects.
type HSSService struct {
	exec   Executor
	conta  *ContaClient
	hssURL string
}

// NewHSSService builds the HSS service.
func NewHSSService(exec Executor, conta *ContaClient, hssURL string) *HSSService {
	return &HSSService{exec: exec, conta: conta, hssURL: hssURL}
}

// QueryNetworkSubscriber looks up the network subscriber for an identifier.
// The identifier is first resolved through the billing service to the
// subscriber's MSISDN; no MSISDN on the account is a not-found condition.
func (s *HSSService) QueryNetworkSubscriber(ctx context.Context, identifier string) (json.RawMessage, error) {
	logger.Infof("[HSS] Querying network subscriber for identifier: %s", identifier)

	conta, err := s.conta.GetDetalhes(ctx, identifier)
	if err != nil {
		return nil, err
	}

	msisdn := ExtractMSISDN(conta)
	if msisdn == "" {
		logger.Errorw("MSISDN not found for identifier", "identifier", identifier)
		return nil, bfferrors.NotFound(
			fmt.Sprintf("MSISDN não encontrado para o identificador %s", identifier), nil)
	}

	logger.Infof("[HSS] MSISDN resolved: %s, calling HSS", msisdn)

	return s.exec.Post(ctx, proxy.Options{
		URL:       s.hssURL + "/network-subscriber",
		Body:      map[string]any{"dados": map[string]string{"imsi": msisdn}},
		LogPrefix: "HSS",
	})
}
