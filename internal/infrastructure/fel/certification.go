package fel

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// ErrNotCertified el XML no trae NumeroAutorizacion.
var ErrNotCertified = errors.New("fel: el documento no está certificado")

// CertificationSummary datos mínimos de un DTE certificado, para indexar y guardar.
type CertificationSummary struct {
	Authorization string
	Serie         string
	Numero        string
	CertifiedAt   string
	IssuerNIT     string
	DocumentType  string
	GrandTotal    string
	TaxTotal      string
}

// certificationFields XPath por campo; local-name() evita depender del prefijo declarado.
// Si attr no está vacío se toma ese atributo del elemento encontrado.
var certificationFields = []struct {
	xpath string
	attr  string
	set   func(*CertificationSummary, string)
}{
	{`//*[local-name()='NumeroAutorizacion']`, "", func(s *CertificationSummary, v string) { s.Authorization = v }},
	{`//*[local-name()='NumeroAutorizacion']`, "Serie", func(s *CertificationSummary, v string) { s.Serie = v }},
	{`//*[local-name()='NumeroAutorizacion']`, "Numero", func(s *CertificationSummary, v string) { s.Numero = v }},
	{`//*[local-name()='FechaHoraCertificacion']`, "", func(s *CertificationSummary, v string) { s.CertifiedAt = v }},
	{`//*[local-name()='Emisor']`, "NITEmisor", func(s *CertificationSummary, v string) { s.IssuerNIT = v }},
	{`//*[local-name()='DatosGenerales']`, "Tipo", func(s *CertificationSummary, v string) { s.DocumentType = v }},
	{`//*[local-name()='Totales']/*[local-name()='GranTotal']`, "", func(s *CertificationSummary, v string) { s.GrandTotal = v }},
	{`//*[local-name()='TotalImpuesto']`, "TotalMontoImpuesto", func(s *CertificationSummary, v string) { s.TaxTotal = v }},
}

// ExtractCertification lee el resumen de certificación del XML devuelto por la SAT.
func ExtractCertification(xmlData []byte) (*CertificationSummary, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(xmlData))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	out := &CertificationSummary{}
	for _, f := range certificationFields {
		node, err := xmlquery.Query(doc, f.xpath)
		if err != nil {
			return nil, fmt.Errorf("fel: xpath %s: %w", f.xpath, err)
		}
		switch {
		case node == nil:
		case f.attr != "":
			f.set(out, node.SelectAttr(f.attr))
		default:
			f.set(out, strings.TrimSpace(node.InnerText()))
		}
	}
	if out.Authorization == "" {
		return nil, ErrNotCertified
	}
	return out, nil
}
