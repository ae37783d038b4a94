package proxy

import (
	"encoding/json"
	"strings"
)

const (
	// redactionMarker replaces the value of any sensitive field in logged
	// payloads.
	redactionMarker = "***REDACTED***"

	// sanitizeFailure is logged instead of the payload when it cannot be
	// serialized; logging must never break the request path.
	sanitizeFailure = "[log sanitization error]"
)

// sensitiveFieldSubstrings marks a field as sensitive when its key
// case-insensitively contains one of these.
var sensitiveFieldSubstrings = []string{
	"password",
	"senha",
	"token",
	"authorization",
	"auth",
	"secret",
	"api_key",
	"apikey",
	"cpf",
	"cnpj",
	"credit_card",
	"card_number",
}

// sanitizeForLog renders a payload for log output with sensitive fields
// redacted. Accepts raw JSON bytes or any JSON-encodable value.
func sanitizeForLog(payload any) string {
	if payload == nil {
		return "null"
	}

	var value any
	switch p := payload.(type) {
	case json.RawMessage:
		if err := json.Unmarshal(p, &value); err != nil {
			return sanitizeFailure
		}
	case []byte:
		if err := json.Unmarshal(p, &value); err != nil {
			return sanitizeFailure
		}
	default:
		encoded, err := json.Marshal(p)
		if err != nil {
			return sanitizeFailure
		}
		if err := json.Unmarshal(encoded, &value); err != nil {
			return sanitizeFailure
		}
	}

	out, err := json.Marshal(redactValue(value))
	if err != nil {
		return sanitizeFailure
	}
	return string(out)
}

// redactValue walks a decoded JSON value and replaces the value of any
// sensitive field with the redaction marker. Non-sensitive scalars pass
// through unchanged.
func redactValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		redacted := make(map[string]any, len(v))
		for key, item := range v {
			if isSensitiveField(key) {
				redacted[key] = redactionMarker
			} else {
				redacted[key] = redactValue(item)
			}
		}
		return redacted
	case []any:
		redacted := make([]any, len(v))
		for i, item := range v {
			redacted[i] = redactValue(item)
		}
		return redacted
	default:
		return v
	}
}

func isSensitiveField(key string) bool {
	lower := strings.ToLower(key)
	for _, substring := range sensitiveFieldSubstrings {
		if strings.Contains(lower, substring) {
			return true
		}
	}
	return false
}
