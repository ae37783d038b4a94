package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zumatel/hlr-service-bff/internal/bfferrors"
	"github.com/zumatel/hlr-service-bff/internal/logger"
	"github.com/zumatel/hlr-service-bff/internal/msisdn"
)

// ProfileService assembles the complete customer profile from the billing
// service and the partner hub.
type ProfileService struct {
	conta    *ContaClient
	partners *PartnerService
}

// NewProfileService builds the profile aggregator.
func NewProfileService(conta *ContaClient, partners *PartnerService) *ProfileService {
	return &ProfileService{conta: conta, partners: partners}
}

// GetCompleteProfile returns the aggregated account plus partner view for an
// identifier of any accepted type. The billing lookup is tolerated to fail
// only when enough other data exists; partner routing is strict by MVNO. A
// profile with no account data at all is a not-found condition.
func (s *ProfileService) GetCompleteProfile(ctx context.Context, identifier string) (*CustomerProfile, error) {
	logger.Infof("[CUSTOMER-PROFILE] Request for identifier: %s", identifier)

	digits, kind := msisdn.Detect(identifier)

	account, err := s.conta.GetDetalhes(ctx, digits)
	if err != nil {
		logger.Warnf("[CUSTOMER-PROFILE] Billing lookup failed for identifier %s: %v", digits, err)
		account = nil
	}

	// The MSISDN either is the identifier itself or comes off the account.
	subscriber := digits
	if kind != msisdn.TypeMSISDN {
		subscriber = ExtractMSISDN(account)
	}
	mvno := ExtractMVNO(account)

	partnerResult := s.fetchPartnerData(ctx, subscriber, mvno)

	if account == nil {
		return nil, bfferrors.NotFound(
			fmt.Sprintf("Não foi possível recuperar dados da conta para o identificador %s", identifier), nil)
	}
	if partnerResult == nil {
		logger.Infof("[CUSTOMER-PROFILE] No partner data available, returning account data only")
	}

	return &CustomerProfile{
		Identifier: IdentifierInfo{Type: string(kind), Value: digits},
		Account:    json.RawMessage(account),
		Partner:    s.partners.TransformToPartnerData(partnerResult, subscriber, mvno),
		Transacao:  NewTransacao(),
	}, nil
}

// fetchPartnerData runs the strict MVNO partner routing. Missing inputs and
// hub failures degrade to no partner data instead of failing the profile.
func (s *ProfileService) fetchPartnerData(ctx context.Context, subscriber, mvno string) *PartnerValidation {
	if subscriber == "" {
		logger.Infof("[CUSTOMER-PROFILE] No MSISDN available, skipping partner lookup")
		return nil
	}
	if mvno == "" {
		logger.Infof("[CUSTOMER-PROFILE] No MVNO available, skipping partner lookup")
		return nil
	}

	logger.Infof("[CUSTOMER-PROFILE] MVNO: %s, routing to partner API", mvno)

	result, err := s.partners.ValidateByMvno(ctx, mvno, subscriber)
	if err != nil {
		logger.Warnf("[CUSTOMER-PROFILE] Partner lookup failed for MVNO %s: %v", mvno, err)
		return nil
	}
	return result
}
