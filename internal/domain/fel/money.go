// Package fel contiene las reglas de negocio del DTE guatemalteco: formato de montos,
// cálculo de líneas (IVA incluido en el precio) y validaciones previas al ensamblado.
package fel

import "github.com/shopspring/decimal"

const (
	VATShortName    = "IVA"
	TaxableUnitCode = "1" // CodigoUnidadGravable: tasa general del 12 %
)

// VATDivisor divisor para separar la base gravable de un total con IVA incluido (1 + 12 %).
var VATDivisor = decimal.RequireFromString("1.12")

// FormatFixed6 devuelve el monto con exactamente 6 decimales si es positivo y "0" en otro caso.
func FormatFixed6(d decimal.Decimal) string {
	if !d.IsPositive() {
		return "0"
	}
	return d.StringFixed(6)
}

// FormatPlain devuelve el monto sin decimales fijos ("0" para cero).
func FormatPlain(d decimal.Decimal) string {
	return d.String()
}
