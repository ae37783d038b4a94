package service

import (
	"context"
	"encoding/json"

	"github.com/zumatel/hlr-service-bff/internal/proxy"
)

// execCall records one outbound call made through the stub.
type execCall struct {
	method string
	opts   proxy.Options
}

// execStub implements Executor with a scripted responder.
type execStub struct {
	calls   []execCall
	respond func(method string, opts proxy.Options) (json.RawMessage, error)
}

func (s *execStub) Get(_ context.Context, opts proxy.Options) (json.RawMessage, error) {
	s.calls = append(s.calls, execCall{method: "GET", opts: opts})
	return s.respond("GET", opts)
}

func (s *execStub) Post(_ context.Context, opts proxy.Options) (json.RawMessage, error) {
	s.calls = append(s.calls, execCall{method: "POST", opts: opts})
	return s.respond("POST", opts)
}

// contaBody builds a billing response whose resultado holds the given fields.
func contaBody(fields map[string]any) json.RawMessage {
	body, err := json.Marshal(map[string]any{"resultado": fields})
	if err != nil {
		panic(err)
	}
	return body
}
