// Package brand holds the immutable business configuration injected into the
// prompt builder and the fallback responder. Tests substitute alternate values
// instead of reaching for globals.
package brand

// PricingTier describes one commercial service plan.
type PricingTier struct {
	Name        string
	Price       string
	Description string
}

// Config is the brand/business fact sheet the assistant speaks from.
type Config struct {
	Name                string
	Website             string
	CoverageArea        string
	ContactPhone        string
	PricingTiers        []PricingTier
	CallbackWindowHours int
	ValuationURL        string
	SimulatorURL        string
}

// Default returns the production Liventy Gestión configuration.
func Default() Config {
	return Config{
		Name:         "Liventy Gestión",
		Website:      "https://liventygestion.com",
		CoverageArea: "Bilbao y Bizkaia",
		ContactPhone: "944 000 000",
		PricingTiers: []PricingTier{
			{
				Name:        "Gestión Integral",
				Price:       "8% de la renta mensual",
				Description: "Búsqueda de inquilino, contratos, cobros, incidencias y mantenimiento. Todo incluido.",
			},
			{
				Name:        "Gestión Esencial",
				Price:       "5% de la renta mensual",
				Description: "Cobro de rentas y atención de incidencias. Contratación aparte.",
			},
			{
				Name:        "Solo Búsqueda de Inquilino",
				Price:       "50% de una mensualidad",
				Description: "Publicación, visitas, selección y contrato. Pago único.",
			},
			{
				Name:        "Garantía Premium",
				Price:       "10% de la renta mensual",
				Description: "Gestión integral más garantía de cobro ante impagos.",
			},
		},
		CallbackWindowHours: 24,
		ValuationURL:        "/valoracion",
		SimulatorURL:        "/simulador-renta",
	}
}
