package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// IssuedDocument DTE certificado por la SAT y guardado localmente.
type IssuedDocument struct {
	ID            string
	IssuerNIT     string
	DocumentType  string // FACT, FPEQ, ...
	Authorization string // UUID de autorización (NumeroAutorizacion)
	Serie         string
	Number        string
	CertifiedAt   string // FechaHoraCertificacion tal como la devuelve la SAT
	GrandTotal    decimal.Decimal
	TaxTotal      decimal.Decimal
	XMLCertified  string
	Digest        string // SHA-256 (base64) del XML canonicalizado
	CreatedAt     time.Time
}
