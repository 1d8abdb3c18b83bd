package chat

import (
	"regexp"

	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/brand"
)

// Redirection points the web widget at a tool page instead of (or in addition
// to) a plain text answer.
type Redirection struct {
	Intent      string `json:"intent"`
	URL         string `json:"url"`
	Explanation string `json:"explanation"`
	Action      string `json:"action"`
}

const RedirectActionOpen = "open"

var (
	valuationRE = regexp.MustCompile(`(?i)\b(valorar|valoraci[oó]n|tasar|tasaci[oó]n|cu[aá]nto vale|precio de mi (piso|casa|vivienda))\b`)
	simulatorRE = regexp.MustCompile(`(?i)\b(simular|simulador|calcular (la )?renta|cu[aá]nto (podr[ií]a )?cobrar|estimar (el )?alquiler)\b`)
)

// DetectRedirection inspects a visitor message for requests that the site
// tools answer better than the assistant can.
func DetectRedirection(message string, b brand.Config) *Redirection {
	switch {
	case valuationRE.MatchString(message):
		return &Redirection{
			Intent:      "valoracion",
			URL:         b.ValuationURL,
			Explanation: "Puedes obtener una valoración orientativa de tu vivienda en un par de minutos con nuestra herramienta online.",
			Action:      RedirectActionOpen,
		}
	case simulatorRE.MatchString(message):
		return &Redirection{
			Intent:      "simulador-renta",
			URL:         b.SimulatorURL,
			Explanation: "Nuestro simulador de renta te estima cuánto podrías cobrar por el alquiler según la zona y las características del inmueble.",
			Action:      RedirectActionOpen,
		}
	}
	return nil
}
