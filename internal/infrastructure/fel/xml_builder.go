package fel

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/beevik/etree"
)

// XMLBuilderService genera la representación dte:GTDocumento de un documento de solicitud.
// Sirve como vista previa antes de enviar a la SAT; la firma queda como esqueleto vacío.
type XMLBuilderService struct {
	indent int
}

// NewXMLBuilderService crea el servicio. indent <= 0 genera el XML en una sola línea.
func NewXMLBuilderService(indent int) *XMLBuilderService {
	return &XMLBuilderService{indent: indent}
}

// Build genera el XML del documento.
func (s *XMLBuilderService) Build(req *Request) ([]byte, error) {
	if req == nil {
		return nil, fmt.Errorf("fel: documento de solicitud nulo")
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("dte:GTDocumento")
	root.CreateAttr("xmlns:dte", NsDTE)
	root.CreateAttr("xmlns:ds", NsDs)
	root.CreateAttr("xmlns:cex", NsCex)
	root.CreateAttr("Version", "0.1")

	sat := root.CreateElement("dte:SAT")
	sat.CreateAttr("ClaseDocumento", "dte")
	dte := sat.CreateElement("dte:DTE")
	dte.CreateAttr("ID", "DatosCertificados")

	de := dte.CreateElement("dte:DatosEmision")
	de.CreateAttr("ID", "DatosEmision")
	d := req.SAT.DTE.DatosEmision
	writeGeneralData(de, d.DatosGenerales)
	writeIssuer(de, d.Emisor)
	writeReceiver(de, d.Receptor)
	writePhrases(de, d.Frases)
	writeItems(de, d.Items)
	writeTotals(de, d.Totales)
	if d.Complementos != nil {
		writeComplements(de, d.Complementos)
	}
	writeCertification(dte, req.SAT.DTE.Certificacion)
	writeSignatureSkeleton(root, req.Signature)

	if s.indent > 0 {
		doc.Indent(s.indent)
	}
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("fel: serializar XML: %w", err)
	}
	return out, nil
}

func writeGeneralData(parent *etree.Element, g DatosGenerales) {
	el := parent.CreateElement("dte:DatosGenerales")
	el.CreateAttr("CodigoMoneda", g.CodigoMoneda)
	if g.Exp != "" {
		el.CreateAttr("Exp", g.Exp)
	}
	el.CreateAttr("FechaHoraEmision", g.FechaHoraEmision)
	el.CreateAttr("Tipo", g.Tipo)
}

func writeIssuer(parent *etree.Element, e Emisor) {
	el := parent.CreateElement("dte:Emisor")
	el.CreateAttr("AfiliacionIVA", e.AfiliacionIVA)
	el.CreateAttr("CodigoEstablecimiento", strconv.Itoa(e.CodigoEstablecimiento))
	el.CreateAttr("CorreoEmisor", e.CorreoEmisor)
	el.CreateAttr("NITEmisor", e.NITEmisor)
	el.CreateAttr("NombreComercial", e.NombreComercial)
	el.CreateAttr("NombreEmisor", e.NombreEmisor)

	dir := el.CreateElement("dte:DireccionEmisor")
	writeText(dir, "dte:Direccion", e.DireccionEmisor.Direccion)
	writeText(dir, "dte:CodigoPostal", e.DireccionEmisor.CodigoPostal)
	writeText(dir, "dte:Municipio", e.DireccionEmisor.Municipio)
	writeText(dir, "dte:Departamento", e.DireccionEmisor.Departamento)
	writeText(dir, "dte:Pais", e.DireccionEmisor.Pais)
}

func writeReceiver(parent *etree.Element, r Receptor) {
	el := parent.CreateElement("dte:Receptor")
	el.CreateAttr("CorreoReceptor", r.CorreoReceptor)
	el.CreateAttr("IDReceptor", r.IDReceptor)
	el.CreateAttr("NombreReceptor", r.NombreReceptor)
	if r.TipoEspecial != "" {
		el.CreateAttr("TipoEspecial", r.TipoEspecial)
	}
}

func writePhrases(parent *etree.Element, f Frases) {
	el := parent.CreateElement("dte:Frases")
	for _, p := range f.Frase {
		fr := el.CreateElement("dte:Frase")
		fr.CreateAttr("CodigoEscenario", p.CodigoEscenario)
		fr.CreateAttr("TipoFrase", p.TipoFrase)
	}
}

func writeItems(parent *etree.Element, items Items) {
	el := parent.CreateElement("dte:Items")
	for _, it := range items.Item {
		i := el.CreateElement("dte:Item")
		i.CreateAttr("BienOServicio", it.GoodOrService)
		i.CreateAttr("NumeroLinea", strconv.Itoa(it.LineNumber))
		writeText(i, "dte:Cantidad", it.Quantity)
		writeText(i, "dte:Descripcion", it.Description)
		writeText(i, "dte:PrecioUnitario", it.UnitPrice)
		writeText(i, "dte:Precio", it.Price)
		writeText(i, "dte:Descuento", it.Discount)
		taxes := i.CreateElement("dte:Impuestos")
		for _, t := range it.Taxes.Tax {
			tx := taxes.CreateElement("dte:Impuesto")
			writeText(tx, "dte:NombreCorto", t.ShortName)
			writeText(tx, "dte:CodigoUnidadGravable", t.TaxableUnit)
			writeText(tx, "dte:MontoGravable", t.TaxableBase)
			writeText(tx, "dte:MontoImpuesto", t.TaxAmount)
		}
		writeText(i, "dte:Total", it.Total)
	}
}

func writeTotals(parent *etree.Element, t Totales) {
	el := parent.CreateElement("dte:Totales")
	ti := el.CreateElement("dte:TotalImpuestos")
	for _, tt := range t.TotalImpuestos.TotalImpuesto {
		x := ti.CreateElement("dte:TotalImpuesto")
		x.CreateAttr("NombreCorto", tt.ShortName)
		x.CreateAttr("TotalMontoImpuesto", tt.Amount)
	}
	writeText(el, "dte:GranTotal", t.GranTotal)
}

func writeComplements(parent *etree.Element, c *Complementos) {
	el := parent.CreateElement("dte:Complementos")
	for _, comp := range c.Complemento {
		x := el.CreateElement("dte:Complemento")
		x.CreateAttr("IDComplemento", comp.IDComplemento)
		x.CreateAttr("NombreComplemento", comp.NombreComplemento)
		x.CreateAttr("URIComplemento", comp.URIComplemento)
		if e := comp.Exportacion; e != nil {
			exp := x.CreateElement("cex:Exportacion")
			exp.CreateAttr("version", e.Version)
			writeText(exp, "cex:NombreConsignatarioODestinatario", e.NombreConsignatario)
			writeText(exp, "cex:DireccionConsignatarioODestinatario", e.DireccionConsignatario)
			writeText(exp, "cex:INCOTERM", e.Incoterm)
		}
		keys := make([]string, 0, len(comp.Extra))
		for k := range comp.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeText(x, "cex:"+k, fmt.Sprint(comp.Extra[k]))
		}
	}
}

func writeCertification(parent *etree.Element, c Certificacion) {
	el := parent.CreateElement("dte:Certificacion")
	writeText(el, "dte:NITCertificador", c.NITCertificador)
	writeText(el, "dte:NombreCertificador", c.NombreCertificador)
	na := el.CreateElement("dte:NumeroAutorizacion")
	na.CreateAttr("Numero", c.NumeroAutorizacion.Numero)
	na.CreateAttr("Serie", c.NumeroAutorizacion.Serie)
	na.SetText(c.NumeroAutorizacion.Value)
	writeText(el, "dte:FechaHoraCertificacion", c.FechaHoraCertificacion)
}

func writeSignatureSkeleton(parent *etree.Element, s Signature) {
	sig := parent.CreateElement("ds:Signature")
	si := sig.CreateElement("ds:SignedInfo")
	si.CreateElement("ds:CanonicalizationMethod")
	si.CreateElement("ds:SignatureMethod")
	ref := si.CreateElement("ds:Reference")
	ref.CreateElement("ds:DigestMethod")
	ref.CreateElement("ds:DigestValue")
	writeText(sig, "ds:SignatureValue", s.SignatureValue)
}

func writeText(parent *etree.Element, tag, value string) {
	parent.CreateElement(tag).SetText(value)
}
