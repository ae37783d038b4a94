// Package msisdn classifies subscriber identifiers by their digit length.
package msisdn

import "strings"

// IdentifierType is the detected class of a subscriber identifier.
type IdentifierType string

const (
	TypeICCID   IdentifierType = "iccid"
	TypeIMSI    IdentifierType = "imsi"
	TypeMSISDN  IdentifierType = "msisdn"
	TypeUnknown IdentifierType = "unknown"
)

// Sanitize strips every non-digit character from an identifier.
func Sanitize(identifier string) string {
	var b strings.Builder
	b.Grow(len(identifier))
	for _, r := range identifier {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Detect classifies an identifier by the length of its digit string:
// 19 or 20 digits is an ICCID, 15 an IMSI, 10 to 13 an MSISDN.
func Detect(identifier string) (string, IdentifierType) {
	digits := Sanitize(identifier)
	switch n := len(digits); {
	case n == 19 || n == 20:
		return digits, TypeICCID
	case n == 15:
		return digits, TypeIMSI
	case n >= 10 && n <= 13:
		return digits, TypeMSISDN
	default:
		return digits, TypeUnknown
	}
}
