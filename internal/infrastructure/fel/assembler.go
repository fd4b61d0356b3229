package fel

import (
	"errors"
	"time"

	"github.com/jhoicas/fel-api/internal/domain/entity"
	domainfel "github.com/jhoicas/fel-api/internal/domain/fel"
	pkgfel "github.com/jhoicas/fel-api/pkg/fel"
)

// issueTimeLayout fecha de emisión con milisegundos y "Z" literal.
const issueTimeLayout = "2006-01-02T15:04:05.000Z"

// CertificationDefaults valores con los que se prellena Certificacion en la solicitud.
// La SAT los reemplaza al certificar.
type CertificationDefaults struct {
	NIT           string
	Name          string
	Serie         string
	Numero        string
	Authorization string
	CertifiedAt   string
}

// DefaultCertification valores históricos enviados por el portal.
func DefaultCertification() CertificationDefaults {
	return CertificationDefaults{
		NIT:           "16693949",
		Name:          "SuperIntendencia de Administracion Tributaria",
		Serie:         "F72BA9CD",
		Numero:        "226052895",
		Authorization: "F72BA9CD-0D79-4B1F-9453-0273B7D2EA88",
		CertifiedAt:   "2019-02-11T00:00:00-06:00",
	}
}

// AssemblerOption configura el Assembler.
type AssemblerOption func(*Assembler)

// WithClock reemplaza la fuente de la hora de emisión.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) { a.now = now }
}

// WithLocation zona horaria en la que se expresa FechaHoraEmision.
func WithLocation(loc *time.Location) AssemblerOption {
	return func(a *Assembler) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithCertification reemplaza los valores de Certificacion.
func WithCertification(c CertificationDefaults) AssemblerOption {
	return func(a *Assembler) { a.cert = c }
}

// WithExportPhraseScenario escenario de la frase que se agrega en exportación.
func WithExportPhraseScenario(code string) AssemblerOption {
	return func(a *Assembler) {
		if code != "" {
			a.exportScenario = code
		}
	}
}

// Assembler construye el documento de solicitud a partir de la descripción parcial del DTE
// y de la configuración del emisor. No hace E/S y es seguro para uso concurrente.
type Assembler struct {
	now            func() time.Time
	loc            *time.Location
	cert           CertificationDefaults
	exportScenario string
}

// NewAssembler crea el ensamblador. Por defecto usa time.Now en America/Guatemala.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		now:            time.Now,
		loc:            GuatemalaLocation(),
		cert:           DefaultCertification(),
		exportScenario: "1",
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// GuatemalaLocation devuelve America/Guatemala o UTC-6 si no hay base de zonas horarias.
func GuatemalaLocation() *time.Location {
	loc, err := time.LoadLocation("America/Guatemala")
	if err != nil {
		return time.FixedZone("CST", -6*60*60)
	}
	return loc
}

// Assemble genera el documento de solicitud. Un establecimiento inexistente no es error:
// sus campos quedan vacíos (ver domainfel.ValidateInvoice).
func (a *Assembler) Assemble(in domainfel.InvoiceInput, settings *entity.TaxpayerSettings) (*Request, error) {
	if settings == nil {
		return nil, errors.New("fel: configuración del emisor nula")
	}
	branchID := in.EffectiveBranchID()
	branch, _ := settings.Branch(branchID)
	export := in.IsExport()

	items := domainfel.BuildItems(in.Items)

	req := &Request{
		SAT: SAT{DTE: DTE{
			DatosEmision: DatosEmision{
				DatosGenerales: a.generalData(in, export),
				Emisor:         issuer(settings, branch, branchID),
				Receptor:       receiver(in.Receiver),
				Frases:         Frases{Frase: a.phrases(settings, export)},
				Items:          Items{Item: items.Items},
				Totales: Totales{
					TotalImpuestos: TotalImpuestos{TotalImpuesto: items.TaxTotals},
					GranTotal:      items.GrandTotal,
				},
			},
			Certificacion: Certificacion{
				NITCertificador:    a.cert.NIT,
				NombreCertificador: a.cert.Name,
				NumeroAutorizacion: NumeroAutorizacion{
					Serie:  a.cert.Serie,
					Numero: a.cert.Numero,
					Value:  a.cert.Authorization,
				},
				FechaHoraCertificacion: a.cert.CertifiedAt,
			},
		}},
	}

	if export {
		req.SAT.DTE.DatosEmision.Complementos = &Complementos{Complemento: []Complemento{exportComplement(in.Receiver)}}
	}
	return req, nil
}

func (a *Assembler) generalData(in domainfel.InvoiceInput, export bool) DatosGenerales {
	g := DatosGenerales{
		Tipo:             in.Type,
		CodigoMoneda:     in.Currency,
		FechaHoraEmision: a.now().In(a.loc).Format(issueTimeLayout),
	}
	if g.Tipo == "" {
		g.Tipo = pkgfel.DocTypeFacturaPequenio
	}
	if g.CodigoMoneda == "" {
		g.CodigoMoneda = pkgfel.CurrencyGTQ
	}
	if export {
		g.Exp = pkgfel.ExportYes
	}
	return g
}

func issuer(s *entity.TaxpayerSettings, b entity.Branch, branchID int) Emisor {
	return Emisor{
		NITEmisor:             s.NIT,
		NombreEmisor:          s.Name,
		CodigoEstablecimiento: branchID,
		NombreComercial:       b.Name,
		CorreoEmisor:          "",
		AfiliacionIVA:         s.VATAffiliation,
		DireccionEmisor: DireccionEmisor{
			Direccion:    branchAddress(b),
			CodigoPostal: pkgfel.DefaultPostalCode,
			Municipio:    b.Municipality,
			Departamento: b.Department,
			Pais:         pkgfel.CountryGT,
		},
	}
}

// branchAddress arma la dirección en el formato que espera la SAT (doble espacio tras la calle).
func branchAddress(b entity.Branch) string {
	return b.Street + "  " + b.HouseNumber + " " + b.Colony + ", zona " + b.Zone + ", " + b.Municipality + ", " + b.Department
}

func receiver(r domainfel.ReceiverInput) Receptor {
	out := Receptor{
		IDReceptor:     r.ID,
		NombreReceptor: r.Name,
		CorreoReceptor: r.Email,
		TipoEspecial:   r.SpecialType,
	}
	if out.IDReceptor == "" {
		out.IDReceptor = pkgfel.FinalConsumerID
	}
	if out.NombreReceptor == "" {
		out.NombreReceptor = pkgfel.FinalConsumerName
	}
	return out
}

func (a *Assembler) phrases(s *entity.TaxpayerSettings, export bool) []Frase {
	out := make([]Frase, 0, len(s.Phrases)+1)
	for _, p := range s.Phrases {
		out = append(out, Frase{TipoFrase: p.Type, CodigoEscenario: p.Scenario})
	}
	if export {
		if p, ok := s.AvailablePhrases()[a.exportScenario]; ok {
			out = append(out, Frase{TipoFrase: p.Type, CodigoEscenario: p.Scenario})
		}
	}
	return out
}

func exportComplement(r domainfel.ReceiverInput) Complemento {
	return Complemento{
		IDComplemento:     pkgfel.ComplementExportID,
		NombreComplemento: pkgfel.ComplementExportName,
		URIComplemento:    pkgfel.ComplementExportURI,
		Exportacion: &Exportacion{
			DireccionConsignatario: r.Address,
			Incoterm:               pkgfel.IncotermPlaceholder,
			NombreConsignatario:    r.Name,
			Version:                pkgfel.ComplementExportVersion,
		},
	}
}
