// naming.go
package model

import (
	"strings"
	"unicode"
)

// SafeName deja solo letras, dígitos, '-' y '_' (los espacios pasan a '_')
// para usar el nombre del cliente dentro de un nombre de archivo.
func SafeName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return DefaultCustomerName
	}
	return out
}
