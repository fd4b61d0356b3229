package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fel-api/internal/domain/entity"
	domainfel "github.com/jhoicas/fel-api/internal/domain/fel"
)

// CreateDteRequest body para POST /api/dte y /api/dte/preview.
// Usa los nombres de la SAT; todo es opcional salvo Items.
type CreateDteRequest struct {
	DatosEmision struct {
		DatosGenerales struct {
			Tipo         string `json:"Tipo"`
			Exp          string `json:"Exp"`
			CodigoMoneda string `json:"CodigoMoneda"`
		} `json:"DatosGenerales"`
		Emisor struct {
			CodigoEstablecimiento int `json:"CodigoEstablecimiento"`
		} `json:"Emisor"`
		Receptor struct {
			IDReceptor        string `json:"IDReceptor"`
			NombreReceptor    string `json:"NombreReceptor"`
			CorreoReceptor    string `json:"CorreoReceptor"`
			DireccionReceptor string `json:"DireccionReceptor"`
			TipoEspecial      string `json:"TipoEspecial"`
		} `json:"Receptor"`
		Items struct {
			Item []DteItemRequest `json:"Item"`
		} `json:"Items"`
	} `json:"DatosEmision"`
}

// DteItemRequest línea del DTE. Cantidad ausente = 1.
type DteItemRequest struct {
	BienOServicio  string              `json:"BienOServicio"`
	Cantidad       decimal.NullDecimal `json:"Cantidad"`
	Descripcion    string              `json:"Descripcion"`
	PrecioUnitario decimal.Decimal     `json:"PrecioUnitario"`
	Descuento      decimal.Decimal     `json:"Descuento"`
}

// ToInput convierte el body al modelo de dominio.
func (r *CreateDteRequest) ToInput() domainfel.InvoiceInput {
	de := r.DatosEmision
	in := domainfel.InvoiceInput{
		Type:     de.DatosGenerales.Tipo,
		Currency: de.DatosGenerales.CodigoMoneda,
		Export:   de.DatosGenerales.Exp,
		BranchID: de.Emisor.CodigoEstablecimiento,
		Receiver: domainfel.ReceiverInput{
			ID:          de.Receptor.IDReceptor,
			Name:        de.Receptor.NombreReceptor,
			Email:       de.Receptor.CorreoReceptor,
			Address:     de.Receptor.DireccionReceptor,
			SpecialType: de.Receptor.TipoEspecial,
		},
		Items: make([]domainfel.LineItemInput, 0, len(de.Items.Item)),
	}
	for _, it := range de.Items.Item {
		in.Items = append(in.Items, domainfel.LineItemInput{
			Quantity:      it.Cantidad,
			UnitPrice:     it.PrecioUnitario,
			Discount:      it.Descuento,
			Description:   it.Descripcion,
			GoodOrService: it.BienOServicio,
		})
	}
	return in
}

// IssueDteResponse resultado de POST /api/dte: XML firmado, respuestas de firma y
// certificación tal como las devolvió la SAT y los datos de certificación.
type IssueDteResponse struct {
	XML                    string          `json:"xml"`
	Signing                json.RawMessage `json:"signing,omitempty"`
	Certification          json.RawMessage `json:"certification,omitempty"`
	NumeroAutorizacion     string          `json:"NumeroAutorizacion,omitempty"`
	Serie                  string          `json:"Serie,omitempty"`
	Numero                 string          `json:"Numero,omitempty"`
	FechaHoraCertificacion string          `json:"FechaHoraCertificacion,omitempty"`
	Stored                 bool            `json:"stored"`
}

// PreviewDteResponse resultado de POST /api/dte/preview.
type PreviewDteResponse struct {
	Request any    `json:"request"`
	XML     string `json:"xml"`
}

// DocumentResponse DTE guardado.
type DocumentResponse struct {
	ID                     string          `json:"id"`
	IssuerNIT              string          `json:"issuer_nit"`
	DocumentType           string          `json:"document_type"`
	NumeroAutorizacion     string          `json:"NumeroAutorizacion"`
	Serie                  string          `json:"Serie"`
	Numero                 string          `json:"Numero"`
	FechaHoraCertificacion string          `json:"FechaHoraCertificacion"`
	GrandTotal             decimal.Decimal `json:"grand_total"`
	TaxTotal               decimal.Decimal `json:"tax_total"`
	Digest                 string          `json:"digest"`
	CreatedAt              time.Time       `json:"created_at"`
	Document               any             `json:"document,omitempty"`
}

// NewDocumentResponse arma la respuesta; parsed es el árbol normalizado (opcional).
func NewDocumentResponse(d *entity.IssuedDocument, parsed any) DocumentResponse {
	return DocumentResponse{
		ID:                     d.ID,
		IssuerNIT:              d.IssuerNIT,
		DocumentType:           d.DocumentType,
		NumeroAutorizacion:     d.Authorization,
		Serie:                  d.Serie,
		Numero:                 d.Number,
		FechaHoraCertificacion: d.CertifiedAt,
		GrandTotal:             d.GrandTotal,
		TaxTotal:               d.TaxTotal,
		Digest:                 d.Digest,
		CreatedAt:              d.CreatedAt,
		Document:               parsed,
	}
}

// TaxpayerResponse datos generales del contribuyente.
type TaxpayerResponse struct {
	NIT            string           `json:"nit"`
	Name           string           `json:"name"`
	VATAffiliation string           `json:"vat_affiliation"`
	Branches       []BranchResponse `json:"branches"`
	DocumentTypes  []string         `json:"document_types"`
}

// BranchResponse establecimiento.
type BranchResponse struct {
	Number       int    `json:"number"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	Zone         string `json:"zone"`
	Municipality string `json:"municipality"`
	Department   string `json:"department"`
}

// PhraseResponse frase fiscal.
type PhraseResponse struct {
	Type     string `json:"TipoFrase"`
	Scenario string `json:"CodigoEscenario"`
	Text     string `json:"text,omitempty"`
}

// IncotermResponse término de comercio.
type IncotermResponse struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// NewTaxpayerResponse mapea la configuración del contribuyente.
func NewTaxpayerResponse(s *entity.TaxpayerSettings) TaxpayerResponse {
	return TaxpayerResponse{
		NIT:            s.NIT,
		Name:           s.Name,
		VATAffiliation: s.VATAffiliation,
		Branches:       NewBranchResponses(s.Branches),
		DocumentTypes:  s.DocumentTypes,
	}
}

// NewBranchResponses mapea establecimientos.
func NewBranchResponses(bs []entity.Branch) []BranchResponse {
	out := make([]BranchResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, BranchResponse{
			Number:       b.Number,
			Name:         b.Name,
			Address:      b.Street + " " + b.HouseNumber + " " + b.Colony,
			Zone:         b.Zone,
			Municipality: b.Municipality,
			Department:   b.Department,
		})
	}
	return out
}

// NewPhraseResponses mapea frases.
func NewPhraseResponses(ps []entity.Phrase) []PhraseResponse {
	out := make([]PhraseResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, PhraseResponse{Type: p.Type, Scenario: p.Scenario, Text: p.Text})
	}
	return out
}

// NewIncotermResponses mapea incoterms.
func NewIncotermResponses(is []entity.Incoterm) []IncotermResponse {
	out := make([]IncotermResponse, 0, len(is))
	for _, i := range is {
		out = append(out, IncotermResponse{Code: i.Code, Description: i.Description})
	}
	return out
}
