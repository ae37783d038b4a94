// Package api exposes the HTTP surface of the BFF: health and metrics, the
// token administration endpoint, and the downstream proxy routes.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/zumatel/hlr-service-bff/internal/auth"
	"github.com/zumatel/hlr-service-bff/internal/bfferrors"
	"github.com/zumatel/hlr-service-bff/internal/config"
	"github.com/zumatel/hlr-service-bff/internal/msisdn"
	"github.com/zumatel/hlr-service-bff/internal/proxy"
	"github.com/zumatel/hlr-service-bff/internal/service"
)

const serviceName = "hlr-service-bff"

// TokenManager is the token administration surface the API needs.
// Implemented by auth.Manager.
type TokenManager interface {
	Status() auth.TokenStatus
	ForceRefresh() error
}

// Handler carries the dependencies of all API routes.
type Handler struct {
	cfg      *config.Config
	tokens   TokenManager
	exec     service.Executor
	conta    *service.ContaClient
	partners *service.PartnerService
	hss      *service.HSSService
	profile  *service.ProfileService
}

// NewHandler wires the downstream services on top of the executor.
func NewHandler(cfg *config.Config, tokens TokenManager, exec service.Executor) *Handler {
	conta := service.NewContaClient(exec, cfg.ContaURL)
	partners := service.NewPartnerService(exec, cfg.HubURL)
	return &Handler{
		cfg:      cfg,
		tokens:   tokens,
		exec:     exec,
		conta:    conta,
		partners: partners,
		hss:      service.NewHSSService(exec, conta, cfg.HSSURL),
		profile:  service.NewProfileService(conta, partners),
	}
}

// Health reports liveness and the cached token state. It never triggers a
// token acquisition.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	status := h.tokens.Status()

	authState := "NO_TOKEN"
	if status.HasToken {
		authState = "AUTHENTICATED"
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "UP",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   serviceName,
		"authentication": map[string]any{
			"hasToken":  status.HasToken,
			"expiresAt": status.ExpiresAt,
			"ttl":       status.TTL,
			"status":    authState,
		},
	})
}

// TokenRefresh discards the cached token and acquires a fresh one.
func (h *Handler) TokenRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.ForceRefresh(); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":     "token refreshed",
		"tokenStatus": h.tokens.Status(),
	})
}

// ContaDetalhes proxies the billing detail lookup.
func (h *Handler) ContaDetalhes(w http.ResponseWriter, r *http.Request) {
	id := msisdn.Sanitize(mux.Vars(r)["id"])

	result, err := h.conta.GetDetalhes(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeRaw(w, http.StatusOK, result)
}

// HLRProxy forwards the request body to the HLR service unchanged.
func (h *Handler) HLRProxy(w http.ResponseWriter, r *http.Request) {
	h.rawProxy(w, r, h.cfg.HLRURL, "HLR")
}

// SummaProxy forwards the request body to the Summa service unchanged.
func (h *Handler) SummaProxy(w http.ResponseWriter, r *http.Request) {
	h.rawProxy(w, r, h.cfg.SummaURL, "SUMMA")
}

func (h *Handler) rawProxy(w http.ResponseWriter, r *http.Request, url, logPrefix string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, r, bfferrors.Validation("failed to read request body", nil).WithCause(err))
		return
	}

	result, err := h.exec.Post(r.Context(), proxy.Options{
		URL:       url,
		Body:      json.RawMessage(body),
		LogPrefix: logPrefix,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeRaw(w, http.StatusOK, result)
}

// hssRequest is the POST body of the network-subscriber lookup. The imsi
// field accepts any identifier type.
type hssRequest struct {
	Dados struct {
		IMSI string `json:"imsi"`
	} `json:"dados"`
}

// HSSQuery resolves the identifier from the POST body and queries the HSS.
func (h *Handler) HSSQuery(w http.ResponseWriter, r *http.Request) {
	var req hssRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Dados.IMSI == "" {
		h.writeError(w, r, bfferrors.Validation("dados.imsi is required", nil))
		return
	}

	result, err := h.hss.QueryNetworkSubscriber(r.Context(), msisdn.Sanitize(req.Dados.IMSI))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeRaw(w, http.StatusOK, result)
}

// HSSQueryByPath is the GET variant of the network-subscriber lookup.
func (h *Handler) HSSQueryByPath(w http.ResponseWriter, r *http.Request) {
	identifier := msisdn.Sanitize(mux.Vars(r)["imsi"])

	result, err := h.hss.QueryNetworkSubscriber(r.Context(), identifier)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeRaw(w, http.StatusOK, result)
}

// HubValidateTiers validates the customer's tier in the program named by the
// path.
func (h *Handler) HubValidateTiers(w http.ResponseWriter, r *http.Request) {
	subscriber, ok := h.requiredMsisdn(w, r)
	if !ok {
		return
	}
	program := service.Program(mux.Vars(r)["program"])

	result, err := h.partners.ValidateTiers(r.Context(), program, subscriber)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HubCollaborator checks Pague Menos collaborator status.
func (h *Handler) HubCollaborator(w http.ResponseWriter, r *http.Request) {
	subscriber, ok := h.requiredMsisdn(w, r)
	if !ok {
		return
	}

	result, err := h.partners.ValidateCollaborator(r.Context(), subscriber)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeRaw(w, http.StatusOK, result)
}

// HubValidateAllTiers probes every partner program and returns the first
// match, or a not-found envelope when the customer is in none of them.
func (h *Handler) HubValidateAllTiers(w http.ResponseWriter, r *http.Request) {
	subscriber, ok := h.requiredMsisdn(w, r)
	if !ok {
		return
	}

	result, err := h.partners.FindCustomerPartner(r.Context(), subscriber)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if result != nil {
		h.writeJSON(w, http.StatusOK, result)
		return
	}

	h.writeJSON(w, http.StatusOK, service.ApiResponse{
		Resultado: service.Resultado{
			CodigoHTTP: http.StatusNotFound,
			Mensagem: "Cliente com MSISDN " + subscriber +
				" não encontrado em nenhum programa parceiro (Pague Menos | iFood | UBER)",
			Transacao: &service.Transacao{
				ID:       strconv.FormatInt(time.Now().UnixMilli(), 36),
				Datetime: time.Now().UTC().Format(time.RFC3339),
			},
		},
	})
}

// CustomerProfile returns the aggregated account plus partner profile.
func (h *Handler) CustomerProfile(w http.ResponseWriter, r *http.Request) {
	identifier := msisdn.Sanitize(mux.Vars(r)["identifier"])

	profile, err := h.profile.GetCompleteProfile(r.Context(), identifier)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) requiredMsisdn(w http.ResponseWriter, r *http.Request) (string, bool) {
	subscriber := msisdn.Sanitize(r.URL.Query().Get("msisdn"))
	if subscriber == "" {
		h.writeError(w, r, bfferrors.Validation("msisdn query parameter is required", nil))
		return "", false
	}
	return subscriber, true
}
