package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/zumatel/hlr-service-bff/internal/bfferrors"
	"github.com/zumatel/hlr-service-bff/internal/logger"
	"github.com/zumatel/hlr-service-bff/internal/proxy"
)

// Program identifies a partner loyalty program on the hub.
type Program string

const (
	ProgramPagueMenos Program = "pague-menos"
	ProgramIFood      Program = "ifood"
	ProgramUber       Program = "uber"
)

// programConfig holds the hub routing data for one program.
type programConfig struct {
	endpoint    string
	displayName string
	logPrefix   string
}

// mvnoKeyword maps a substring of the MVNO name to the program it routes to.
type mvnoKeyword struct {
	keyword string
	program Program
}

// PartnerService validates customers against the hub's partner programs.
type PartnerService struct {
	exec   Executor
	hubURL string

	mu       sync.RWMutex
	programs map[Program]programConfig
	order    []Program
	routing  []mvnoKeyword
}

// NewPartnerService builds a partner service with the known programs
// registered. Lookup order matters: FindCustomerPartner probes programs in
// registration order.
func NewPartnerService(exec Executor, hubURL string) *PartnerService {
	s := &PartnerService{
		exec:     exec,
		hubURL:   hubURL,
		programs: map[Program]programConfig{},
	}
	s.register(ProgramPagueMenos, programConfig{endpoint: "pague-menos", displayName: "Pague Menos", logPrefix: "HUB-PGM"})
	s.register(ProgramIFood, programConfig{endpoint: "ifood", displayName: "iFood", logPrefix: "HUB-IFOOD"})
	s.register(ProgramUber, programConfig{endpoint: "uber", displayName: "Uber", logPrefix: "HUB-UBER"})

	// MVNO routing keywords. "pague menos" has a space: the MVNO name is
	// free text ("Pague Menos Celular"), not the program slug.
	s.routing = []mvnoKeyword{
		{keyword: "ifood", program: ProgramIFood},
		{keyword: "pague menos", program: ProgramPagueMenos},
		{keyword: "uber", program: ProgramUber},
	}
	return s
}

func (s *PartnerService) register(p Program, cfg programConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.programs[p]; !exists {
		s.order = append(s.order, p)
	}
	s.programs[p] = cfg
}

func (s *PartnerService) config(p Program) (programConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.programs[p]
	return cfg, ok
}

// Programs returns the registered programs in lookup order.
func (s *PartnerService) Programs() []Program {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Program, len(s.order))
	copy(out, s.order)
	return out
}

// DisplayName returns the human-readable name of a program, falling back to
// the program slug when unregistered.
func (s *PartnerService) DisplayName(p Program) string {
	if cfg, ok := s.config(p); ok {
		return cfg.displayName
	}
	return string(p)
}

// ValidateTiers checks the customer's tier in one program. Downstream "not
// found" and business-error envelopes come back as data, not errors, since
// they are expected answers.
func (s *PartnerService) ValidateTiers(ctx context.Context, p Program, msisdn string) (*PartnerValidation, error) {
	cfg, ok := s.config(p)
	if !ok {
		return nil, bfferrors.Validation(fmt.Sprintf("unknown partner program %q", p), nil)
	}

	logger.Infof("[%s] Validating tiers for MSISDN: %s", cfg.logPrefix, msisdn)

	raw, err := s.exec.Get(ctx, proxy.Options{
		URL:                   s.hubEndpoint(cfg.endpoint, "validate-tiers", msisdn),
		LogPrefix:             cfg.logPrefix,
		PassThroughHTTPErrors: true,
	})
	if err != nil {
		return nil, err
	}

	var envelope ApiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, bfferrors.Integration(
			fmt.Sprintf("malformed response from %s hub endpoint", cfg.displayName), nil).WithCause(err)
	}
	return &PartnerValidation{Partner: p, Resultado: envelope.Resultado}, nil
}

// ValidateCollaborator checks whether the customer is a Pague Menos
// collaborator. The hub envelope is returned verbatim.
func (s *PartnerService) ValidateCollaborator(ctx context.Context, msisdn string) (json.RawMessage, error) {
	cfg, _ := s.config(ProgramPagueMenos)

	logger.Infof("[%s-COLLAB] Validating collaborator for MSISDN: %s", cfg.logPrefix, msisdn)

	return s.exec.Get(ctx, proxy.Options{
		URL:                   s.hubEndpoint(cfg.endpoint, "collaborator", msisdn),
		LogPrefix:             cfg.logPrefix + "-COLLAB",
		PassThroughHTTPErrors: true,
	})
}

// FindCustomerPartner probes every program in order and returns the first one
// that knows the customer, or nil when no program does. Individual program
// failures are logged and skipped.
func (s *PartnerService) FindCustomerPartner(ctx context.Context, msisdn string) (*PartnerValidation, error) {
	for _, p := range s.Programs() {
		result, err := s.ValidateTiers(ctx, p, msisdn)
		if err != nil {
			logger.Debugf("[PARTNER-LOOKUP] %s lookup failed, trying next: %v", s.DisplayName(p), err)
			continue
		}
		if result.Successful() {
			logger.Infof("[PARTNER-LOOKUP] Customer found in %s", s.DisplayName(p))
			return result, nil
		}
	}

	logger.Infof("[PARTNER-LOOKUP] Customer not found in any partner program")
	return nil, nil
}

// ValidateByMvno routes to the single program the MVNO name maps to. The
// mapping is strict: an MVNO that matches no program returns nil with no
// fallback probing of the other programs.
func (s *PartnerService) ValidateByMvno(ctx context.Context, mvno, msisdn string) (*PartnerValidation, error) {
	program, ok := s.routeByMvno(mvno)
	if !ok {
		logger.Infof("[PARTNER-ROUTING] MVNO %q does not match any known partner, skipping partner lookup", mvno)
		return nil, nil
	}

	logger.Infof("[PARTNER-ROUTING] MVNO %q matches %s, calling only this partner", mvno, s.DisplayName(program))

	result, err := s.ValidateTiers(ctx, program, msisdn)
	if err != nil {
		return nil, err
	}
	if result.Resultado.CodigoHTTP != 200 {
		logger.Infof("[PARTNER-ROUTING] %s returned HTTP %d: %s",
			s.DisplayName(program), result.Resultado.CodigoHTTP, result.Resultado.Mensagem)
	}
	return result, nil
}

func (s *PartnerService) routeByMvno(mvno string) (Program, bool) {
	normalized := strings.ToLower(mvno)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.routing {
		if strings.Contains(normalized, r.keyword) {
			return r.program, true
		}
	}
	return "", false
}

// TransformToPartnerData normalizes a hub validation into the profile's
// partner section, with a contextual message when the customer was not found.
func (s *PartnerService) TransformToPartnerData(v *PartnerValidation, msisdn, mvno string) PartnerData {
	if v.Successful() {
		program := v.Partner
		return PartnerData{Found: true, Program: &program, Tier: v.Resultado.Dados}
	}

	var message string
	switch {
	case msisdn == "":
		message = "MSISDN não disponível para consulta de parceiros"
	case mvno != "" && v != nil:
		message = fmt.Sprintf("Cliente com MVNO %q não está cadastrado no programa %s", mvno, s.DisplayName(v.Partner))
	case mvno != "":
		message = fmt.Sprintf("MVNO %q não corresponde a nenhum programa parceiro disponível", mvno)
	default:
		message = "Cliente não encontrado em programas parceiros"
	}

	data := PartnerData{Found: false, Message: message}
	if v != nil {
		program := v.Partner
		data.Program = &program
	}
	return data
}

func (s *PartnerService) hubEndpoint(program, operation, msisdn string) string {
	return fmt.Sprintf("%s/surf-hub/%s/%s?msisdn=%s", s.hubURL, program, operation, url.QueryEscape(msisdn))
}
