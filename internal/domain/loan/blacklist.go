package loan

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// blacklistMarkers textos con los que el backend rechaza a personas en lista negra.
// No existe código de error estructurado; la lista es el contrato.
var blacklistMarkers = []string{
	"lista negra",
	"blacklist",
	"no puede hacer préstamos",
	"morosos",
}

// BlacklistMarkers devuelve una copia de los marcadores.
func BlacklistMarkers() []string {
	out := make([]string, len(blacklistMarkers))
	copy(out, blacklistMarkers)
	return out
}

// fold normaliza a NFC y aplica case folding Unicode ("PRÉSTAMOS" == "préstamos").
// cases.Caser tiene estado, por eso se crea uno por llamada.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// IsBlacklistRejection indica si el mensaje de error del backend corresponde a un rechazo
// por lista negra / morosidad.
func IsBlacklistRejection(message string) bool {
	if strings.TrimSpace(message) == "" {
		return false
	}
	folded := fold(message)
	for _, m := range blacklistMarkers {
		if strings.Contains(folded, fold(m)) {
			return true
		}
	}
	return false
}
