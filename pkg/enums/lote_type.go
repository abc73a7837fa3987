package enums

import "fmt"

// LoteType distinguishes inbound (registration) batches from outbound
// (packaging or scrap exit) batches.
type LoteType string

const (
	LoteTypeInbound  LoteType = "ENTRADA"
	LoteTypeOutbound LoteType = "SALIDA"
)

var validLoteTypes = []LoteType{LoteTypeInbound, LoteTypeOutbound}

// String implements fmt.Stringer.
func (l LoteType) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LoteType.
func (l LoteType) IsValid() bool {
	for _, candidate := range validLoteTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLoteType converts raw input into a LoteType.
func ParseLoteType(value string) (LoteType, error) {
	for _, candidate := range validLoteTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lote type %q", value)
}
