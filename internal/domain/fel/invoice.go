package fel

import (
	"strings"

	pkgfel "github.com/jhoicas/fel-api/pkg/fel"
)

// InvoiceInput descripción parcial de un DTE; lo que falte se completa con valores por defecto.
type InvoiceInput struct {
	Type     string // Tipo (FPEQ por defecto)
	Currency string // CodigoMoneda (GTQ por defecto)
	Export   string // Exp: "SI" activa el modo exportación
	BranchID int    // CodigoEstablecimiento (1 por defecto)
	Receiver ReceiverInput
	Items    []LineItemInput
}

// ReceiverInput datos del receptor.
type ReceiverInput struct {
	ID          string // IDReceptor, "CF" por defecto
	Name        string
	Email       string
	Address     string // solo se usa en el complemento de exportación
	SpecialType string // TipoEspecial (opcional)
}

// IsExport indica si el documento va en modo exportación.
func (in InvoiceInput) IsExport() bool {
	return strings.EqualFold(strings.TrimSpace(in.Export), pkgfel.ExportYes)
}

// EffectiveBranchID devuelve el establecimiento solicitado o el 1.
func (in InvoiceInput) EffectiveBranchID() int {
	if in.BranchID <= 0 {
		return pkgfel.DefaultBranchID
	}
	return in.BranchID
}
