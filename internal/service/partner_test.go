package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zumatel/hlr-service-bff/internal/bfferrors"
	"github.com/zumatel/hlr-service-bff/internal/proxy"
)

func tierEnvelope(code int, mensagem string, dados any) json.RawMessage {
	resultado := map[string]any{"codigoHttp": code, "mensagem": mensagem}
	if dados != nil {
		resultado["dados"] = dados
	}
	body, err := json.Marshal(map[string]any{"resultado": resultado})
	if err != nil {
		panic(err)
	}
	return body
}

func TestValidateTiers_Success(t *testing.T) {
	stub := &execStub{respond: func(_ string, opts proxy.Options) (json.RawMessage, error) {
		return tierEnvelope(200, "ok", map[string]any{"medalha": "ouro"}), nil
	}}

	s := NewPartnerService(stub, "http://hub.internal")

	result, err := s.ValidateTiers(context.Background(), ProgramPagueMenos, "5511999999999")
	require.NoError(t, err)
	assert.Equal(t, ProgramPagueMenos, result.Partner)
	assert.True(t, result.Successful())
	assert.Contains(t, string(result.Resultado.Dados), "ouro")

	require.Len(t, stub.calls, 1)
	call := stub.calls[0]
	assert.Equal(t, "http://hub.internal/surf-hub/pague-menos/validate-tiers?msisdn=5511999999999", call.opts.URL)
	assert.Equal(t, "HUB-PGM", call.opts.LogPrefix)
	assert.True(t, call.opts.PassThroughHTTPErrors, "hub business errors must come back as data")
}

func TestValidateTiers_NotFoundEnvelopeIsData(t *testing.T) {
	stub := &execStub{respond: func(_ string, _ proxy.Options) (json.RawMessage, error) {
		return tierEnvelope(404, "cliente nao encontrado", nil), nil
	}}

	s := NewPartnerService(stub, "http://hub.internal")

	result, err := s.ValidateTiers(context.Background(), ProgramIFood, "5511999999999")
	require.NoError(t, err)
	assert.False(t, result.Successful())
	assert.Equal(t, 404, result.Resultado.CodigoHTTP)
}

func TestValidateTiers_UnknownProgram(t *testing.T) {
	s := NewPartnerService(&execStub{}, "http://hub.internal")

	_, err := s.ValidateTiers(context.Background(), Program("rappi"), "5511999999999")
	require.Error(t, err)
	assert.Equal(t, bfferrors.KindValidation, bfferrors.KindOf(err))
}

func TestValidateCollaborator(t *testing.T) {
	stub := &execStub{respond: func(_ string, _ proxy.Options) (json.RawMessage, error) {
		return tierEnvelope(200, "ok", map[string]any{"isCollaborator": true}), nil
	}}

	s := NewPartnerService(stub, "http://hub.internal")

	result, err := s.ValidateCollaborator(context.Background(), "5511999999999")
	require.NoError(t, err)
	assert.Contains(t, string(result), "isCollaborator")

	require.Len(t, stub.calls, 1)
	assert.Equal(t, "http://hub.internal/surf-hub/pague-menos/collaborator?msisdn=5511999999999", stub.calls[0].opts.URL)
	assert.Equal(t, "HUB-PGM-COLLAB", stub.calls[0].opts.LogPrefix)
}

func TestFindCustomerPartner_ReturnsFirstMatch(t *testing.T) {
	stub := &execStub{}
	stub.respond = func(_ string, opts proxy.Options) (json.RawMessage, error) {
		switch {
		case strings.Contains(opts.URL, "/pague-menos/"):
			return nil, bfferrors.ServiceUnavailable("hub down", nil)
		case strings.Contains(opts.URL, "/ifood/"):
			return tierEnvelope(404, "nao encontrado", nil), nil
		default:
			return tierEnvelope(200, "ok", map[string]any{"tier": "gold"}), nil
		}
	}

	s := NewPartnerService(stub, "http://hub.internal")

	result, err := s.FindCustomerPartner(context.Background(), "5511999999999")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, ProgramUber, result.Partner)
	assert.Len(t, stub.calls, 3, "all programs probed in order")
}

func TestFindCustomerPartner_NoMatch(t *testing.T) {
	stub := &execStub{respond: func(_ string, _ proxy.Options) (json.RawMessage, error) {
		return tierEnvelope(404, "nao encontrado", nil), nil
	}}

	s := NewPartnerService(stub, "http://hub.internal")

	result, err := s.FindCustomerPartner(context.Background(), "5511999999999")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestValidateByMvno_StrictRouting(t *testing.T) {
	tests := []struct {
		mvno    string
		program Program
	}{
		{"UBER CHIP", ProgramUber},
		{"iFood Movel", ProgramIFood},
		{"Pague Menos Celular", ProgramPagueMenos},
	}

	for _, tc := range tests {
		t.Run(tc.mvno, func(t *testing.T) {
			stub := &execStub{respond: func(_ string, _ proxy.Options) (json.RawMessage, error) {
				return tierEnvelope(200, "ok", map[string]any{"tier": "gold"}), nil
			}}
			s := NewPartnerService(stub, "http://hub.internal")

			result, err := s.ValidateByMvno(context.Background(), tc.mvno, "5511999999999")
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tc.program, result.Partner)
			assert.Len(t, stub.calls, 1, "only the matching program may be called")
			assert.Contains(t, stub.calls[0].opts.URL, fmt.Sprintf("/%s/", tc.program))
		})
	}
}

func TestValidateByMvno_UnknownMvnoSkipsLookup(t *testing.T) {
	stub := &execStub{respond: func(_ string, _ proxy.Options) (json.RawMessage, error) {
		t.Fatal("no hub call expected for an unknown MVNO")
		return nil, nil
	}}

	s := NewPartnerService(stub, "http://hub.internal")

	result, err := s.ValidateByMvno(context.Background(), "Correios Celular", "5511999999999")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Empty(t, stub.calls)
}

func TestTransformToPartnerData(t *testing.T) {
	s := NewPartnerService(&execStub{}, "http://hub.internal")

	t.Run("found", func(t *testing.T) {
		v := &PartnerValidation{
			Partner:   ProgramUber,
			Resultado: Resultado{CodigoHTTP: 200, Dados: json.RawMessage(`{"tier":"gold"}`)},
		}
		data := s.TransformToPartnerData(v, "5511999999999", "UBER CHIP")
		assert.True(t, data.Found)
		require.NotNil(t, data.Program)
		assert.Equal(t, ProgramUber, *data.Program)
		assert.JSONEq(t, `{"tier":"gold"}`, string(data.Tier))
		assert.Empty(t, data.Message)
	})

	t.Run("no msisdn", func(t *testing.T) {
		data := s.TransformToPartnerData(nil, "", "")
		assert.False(t, data.Found)
		assert.Nil(t, data.Program)
		assert.Equal(t, "MSISDN não disponível para consulta de parceiros", data.Message)
	})

	t.Run("mvno matched but customer not enrolled", func(t *testing.T) {
		v := &PartnerValidation{Partner: ProgramIFood, Resultado: Resultado{CodigoHTTP: 404}}
		data := s.TransformToPartnerData(v, "5511999999999", "iFood Movel")
		assert.False(t, data.Found)
		require.NotNil(t, data.Program)
		assert.Equal(t, ProgramIFood, *data.Program)
		assert.Contains(t, data.Message, "não está cadastrado no programa iFood")
	})

	t.Run("mvno with no matching program", func(t *testing.T) {
		data := s.TransformToPartnerData(nil, "5511999999999", "Correios Celular")
		assert.False(t, data.Found)
		assert.Contains(t, data.Message, "não corresponde a nenhum programa parceiro")
	})

	t.Run("generic not found", func(t *testing.T) {
		data := s.TransformToPartnerData(nil, "5511999999999", "")
		assert.Equal(t, "Cliente não encontrado em programas parceiros", data.Message)
	})
}
