// Package fel implementa el códec del DTE guatemalteco: ensamblado del documento de
// solicitud, normalización de XML y parseo de documentos certificados por la SAT.
package fel

import (
	"encoding/json"

	domainfel "github.com/jhoicas/fel-api/internal/domain/fel"
)

// Namespaces del DTE FEL.
const (
	// Prefijo común del namespace dte (la versión cambia entre esquemas)
	NsDTEBase = "http://www.sat.gob.gt/dte/fel/"
	// Versión del esquema usada al generar XML
	NsDTE = "http://www.sat.gob.gt/dte/fel/0.2.0"
	// XML Digital Signature
	NsDs = "http://www.w3.org/2000/09/xmldsig#"
	// XAdES (objeto de la firma)
	NsXades = "http://uri.etsi.org/01903/v1.3.2#"
	// Complemento de exportaciones
	NsCex = "http://www.sat.gob.gt/face2/ComplementoExportaciones/0.1.0"
)

// Request documento de solicitud que se envía a procesar, firmar y certificar.
type Request struct {
	SAT       SAT       `json:"SAT"`
	Signature Signature `json:"Signature"`
	// FrasePaso contraseña FEL; solo viaja en la llamada de firma.
	FrasePaso string `json:"frasePaso,omitempty"`
}

// SAT raíz del documento tributario.
type SAT struct {
	DTE DTE `json:"DTE"`
}

// DTE datos de emisión y certificación.
type DTE struct {
	DatosEmision  DatosEmision  `json:"DatosEmision"`
	Certificacion Certificacion `json:"Certificacion"`
}

// DatosEmision cuerpo del documento.
type DatosEmision struct {
	DatosGenerales DatosGenerales `json:"DatosGenerales"`
	Emisor         Emisor         `json:"Emisor"`
	Receptor       Receptor       `json:"Receptor"`
	Frases         Frases         `json:"Frases"`
	Items          Items          `json:"Items"`
	Totales        Totales        `json:"Totales"`
	// Complementos solo existe en modo exportación.
	Complementos *Complementos `json:"Complementos,omitempty"`
}

// DatosGenerales tipo, moneda, fecha de emisión y bandera de exportación.
type DatosGenerales struct {
	Tipo             string `json:"Tipo"`
	Exp              string `json:"Exp,omitempty"`
	FechaHoraEmision string `json:"FechaHoraEmisionForm"`
	CodigoMoneda     string `json:"CodigoMoneda"`
}

// Emisor datos del contribuyente que emite.
type Emisor struct {
	NITEmisor             string          `json:"NITEmisor"`
	NombreEmisor          string          `json:"NombreEmisor"`
	CodigoEstablecimiento int             `json:"CodigoEstablecimiento"`
	NombreComercial       string          `json:"NombreComercial"`
	CorreoEmisor          string          `json:"CorreoEmisor"`
	AfiliacionIVA         string          `json:"AfiliacionIVA"`
	DireccionEmisor       DireccionEmisor `json:"DireccionEmisor"`
}

// DireccionEmisor dirección del establecimiento.
type DireccionEmisor struct {
	Direccion    string `json:"Direccion"`
	CodigoPostal string `json:"CodigoPostal"`
	Municipio    string `json:"Municipio"`
	Departamento string `json:"Departamento"`
	Pais         string `json:"Pais"`
}

// Receptor datos del comprador.
type Receptor struct {
	IDReceptor     string `json:"IDReceptor"`
	NombreReceptor string `json:"NombreReceptor"`
	CorreoReceptor string `json:"CorreoReceptor"`
	TipoEspecial   string `json:"TipoEspecial,omitempty"`
}

// Frases contenedor de frases.
type Frases struct {
	Frase []Frase `json:"Frase"`
}

// Frase frase fiscal del documento.
type Frase struct {
	TipoFrase       string `json:"TipoFrase"`
	CodigoEscenario string `json:"CodigoEscenario"`
}

// Items contenedor de líneas.
type Items struct {
	Item []domainfel.Item `json:"Item"`
}

// Totales totales por impuesto y gran total.
type Totales struct {
	TotalImpuestos TotalImpuestos `json:"TotalImpuestos"`
	GranTotal      string         `json:"GranTotal"`
}

// TotalImpuestos contenedor de totales por impuesto.
type TotalImpuestos struct {
	TotalImpuesto []domainfel.TaxTotal `json:"TotalImpuesto"`
}

// Complementos contenedor de complementos.
type Complementos struct {
	Complemento []Complemento `json:"Complemento"`
}

// Complemento encabezado tipado con un bucket abierto para campos adicionales del complemento.
type Complemento struct {
	IDComplemento     string
	NombreComplemento string
	URIComplemento    string
	Exportacion       *Exportacion
	Extra             map[string]any
}

// MarshalJSON serializa el encabezado y mezcla los campos de Extra al mismo nivel.
func (c Complemento) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(c.Extra)+4)
	for k, v := range c.Extra {
		m[k] = v
	}
	m["IDComplemento"] = c.IDComplemento
	m["NombreComplemento"] = c.NombreComplemento
	m["URIComplemento"] = c.URIComplemento
	if c.Exportacion != nil {
		m["Exportacion"] = c.Exportacion
	}
	return json.Marshal(m)
}

// UnmarshalJSON inverso de MarshalJSON: lo que no es encabezado queda en Extra.
func (c *Complemento) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Complemento{}
	for k, v := range raw {
		var err error
		switch k {
		case "IDComplemento":
			err = json.Unmarshal(v, &c.IDComplemento)
		case "NombreComplemento":
			err = json.Unmarshal(v, &c.NombreComplemento)
		case "URIComplemento":
			err = json.Unmarshal(v, &c.URIComplemento)
		case "Exportacion":
			c.Exportacion = &Exportacion{}
			err = json.Unmarshal(v, c.Exportacion)
		default:
			var val any
			err = json.Unmarshal(v, &val)
			if c.Extra == nil {
				c.Extra = make(map[string]any)
			}
			c.Extra[k] = val
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Exportacion datos del complemento de exportación.
type Exportacion struct {
	DireccionConsignatario string `json:"DireccionConsignatarioODestinatario"`
	Incoterm               string `json:"INCOTERM"`
	NombreConsignatario    string `json:"NombreConsignatarioODestinatario"`
	Version                string `json:"version"`
}

// Certificacion datos del certificador.
type Certificacion struct {
	NITCertificador        string             `json:"NITCertificador"`
	NombreCertificador     string             `json:"NombreCertificador"`
	NumeroAutorizacion     NumeroAutorizacion `json:"NumeroAutorizacion"`
	FechaHoraCertificacion string             `json:"FechaHoraCertificacion"`
}

// NumeroAutorizacion UUID de autorización con serie y número.
type NumeroAutorizacion struct {
	Serie  string `json:"Serie"`
	Numero string `json:"Numero"`
	Value  string `json:"text"`
}

// Signature esqueleto de firma; el portal lo completa al firmar.
type Signature struct {
	SignedInfo     SignedInfo `json:"SignedInfo"`
	SignatureValue string     `json:"SignatureValue"`
}

// SignedInfo esqueleto de ds:SignedInfo.
type SignedInfo struct {
	CanonicalizationMethod struct{}  `json:"CanonicalizationMethod"`
	SignatureMethod        struct{}  `json:"SignatureMethod"`
	Reference              Reference `json:"Reference"`
}

// Reference esqueleto de ds:Reference.
type Reference struct {
	DigestMethod struct{} `json:"DigestMethod"`
	DigestValue  struct{} `json:"DigestValue"`
}
