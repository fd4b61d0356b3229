package fel_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infrafel "github.com/jhoicas/fel-api/internal/infrastructure/fel"
)

func loadSample(t *testing.T) []byte {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", "dte_certificado.xml"))
	require.NoError(t, err)
	return raw
}

// ── Documento certificado real (un ítem, una frase, dos firmas) ──

func TestParse_DocumentoCertificado(t *testing.T) {
	doc, err := infrafel.NewParser().Parse(loadSample(t))
	require.NoError(t, err)

	assert.Equal(t, "0.1", doc.Version)
	assert.Equal(t, "dte", doc.ClassDocument)
	assert.Equal(t, "DatosCertificados", doc.DTEID)

	require.NotNil(t, doc.Emission)
	assert.Equal(t, "DatosEmision", doc.Emission.ID)

	g := doc.Emission.GeneralData
	assert.Equal(t, "GTQ", g.Text("CodigoMoneda"))
	assert.Equal(t, "2021-11-18T02:42:15-06:00", g.Text("FechaHoraEmision"))
	assert.Equal(t, "FACT", g.Text("Tipo"))

	e := doc.Emission.Issuer
	assert.Equal(t, "28733657", e.Text("NITEmisor"))
	assert.Equal(t, "Awesome, Inc.", e.Text("NombreComercial"))
	assert.Equal(t, "Guatemala", e.Child("DireccionEmisor").Text("Municipio"))
	assert.Equal(t, "31 AVENIDA  14-08 CIUDAD DE PLATA II, zona 7, Guatemala, GUATEMALA",
		e.Child("DireccionEmisor").Text("Direccion"))

	r := doc.Emission.Receiver
	assert.Equal(t, "CF", r.Text("IDReceptor"))
	assert.Equal(t, "CONSUMIDOR FINAL", r.Text("NombreReceptor"))

	assert.Equal(t, "100.000000", doc.Emission.Totals.Text("GranTotal"))
	assert.Equal(t, "10.714286", doc.Emission.Totals.Child("TotalImpuestos").Child("TotalImpuesto").Text("TotalMontoImpuesto"))
	assert.Nil(t, doc.Emission.Complements)
}

func TestParse_RutaCompletaSAT(t *testing.T) {
	doc, err := infrafel.NewParser().Parse(loadSample(t))
	require.NoError(t, err)

	municipio := doc.SAT.Child("DTE").Child("DatosEmision").Child("Emisor").Child("DireccionEmisor").Text("Municipio")
	assert.Equal(t, "Guatemala", municipio)
}

func TestParse_UnItemEsObjeto(t *testing.T) {
	doc, err := infrafel.NewParser().Parse(loadSample(t))
	require.NoError(t, err)

	v, ok := doc.Emission.Items.Get("Item")
	require.True(t, ok)
	_, isNode := v.(*infrafel.Node)
	assert.True(t, isNode, "una sola ocurrencia no debe ser lista")

	items := doc.Items()
	require.Len(t, items, 1)
	it := items[0]
	assert.Equal(t, "1", it.Text("NumeroLinea"))
	assert.Equal(t, "B", it.Text("BienOServicio"))
	assert.Equal(t, "Test", it.Text("Descripcion"))
	assert.Equal(t, "100.000000", it.Text("Precio"))
	assert.Equal(t, "10.714286", it.Child("Impuestos").Child("Impuesto").Text("MontoImpuesto"))

	phrases := doc.Phrases()
	require.Len(t, phrases, 1)
	assert.Equal(t, "2", phrases[0].Text("CodigoEscenario"))
	assert.Equal(t, "1", phrases[0].Text("TipoFrase"))
}

func TestParse_Certificacion(t *testing.T) {
	doc, err := infrafel.NewParser().Parse(loadSample(t))
	require.NoError(t, err)

	assert.Equal(t, "D412A347-9720-44C0-A9CC-FDE068F0A2E7", doc.Authorization())
	na := doc.Certification.Child("NumeroAutorizacion")
	assert.Equal(t, "D412A347", na.Text("Serie"))
	assert.Equal(t, "2535474368", na.Text("Numero"))
	assert.Equal(t, "16693949", doc.Certification.Text("NITCertificador"))
	assert.Equal(t, []string{"Numero", "Serie", "NumeroAutorizacion"}, na.Keys(), "atributos primero")
}

func TestParse_Firmas(t *testing.T) {
	doc, err := infrafel.NewParser().Parse(loadSample(t))
	require.NoError(t, err)

	require.Len(t, doc.Signatures, 2)
	s := doc.Signatures[0]
	assert.Equal(t, "xmldsig-0f9247a2-1dd4-4936-8594-b4ed4c5e47b3", s.ID)
	assert.Equal(t, "http://www.w3.org/TR/2001/REC-xml-c14n-20010315", s.CanonicalizationMethod.Text("Algorithm"))
	assert.Equal(t, "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256", s.SignatureMethod.Text("Algorithm"))

	require.Len(t, s.References, 2)
	assert.Equal(t, "#DatosEmision", s.References[0].Text("URI"))
	assert.Equal(t, "echB6iiy9mLcRku/38m+NQYBkdughplOI0r2z03YrCo=", s.References[0].Text("DigestValue"))
	assert.Equal(t, "http://www.w3.org/2001/04/xmlenc#sha256", s.References[1].Child("DigestMethod").Text("Algorithm"))

	assert.Equal(t, "5Gbckd6Gk34gVuA8gY1ev15fSP3O4RcedQhJh9uL", s.SignatureValue.Text("SignatureValue"))
	assert.Equal(t, "xmldsig-0f9247a2-1dd4-4936-8594-b4ed4c5e47b3-sigvalue", s.SignatureValue.Text("Id"))
	assert.Equal(t, "MIIDYTCCAkmgAwIBAgIIYslpuahc8tYwDQYJKoZI", s.KeyInfo.Child("X509Data").Text("X509Certificate"))

	qp := s.Object.Child("QualifyingProperties")
	require.NotNil(t, qp)
	assert.Equal(t, "#xmldsig-0f9247a2-1dd4-4936-8594-b4ed4c5e47b3", qp.Text("Target"))
	certs := qp.Child("SignedProperties").Child("SignedSignatureProperties").Child("SigningCertificate").Sequence("Cert")
	assert.Len(t, certs, 2)
}

func TestParseJSON_MismaEstructura(t *testing.T) {
	out, err := infrafel.NewParser().ParseJSON(loadSample(t))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))

	de := m["DatosEmision"].(map[string]any)
	items := de["Items"].(map[string]any)
	_, isObject := items["Item"].(map[string]any)
	assert.True(t, isObject)

	sigs, isList := m["Signature"].([]any)
	require.True(t, isList, "dos firmas se serializan como lista")
	assert.Len(t, sigs, 2)

	cert := m["Certificacion"].(map[string]any)
	na := cert["NumeroAutorizacion"].(map[string]any)
	assert.Equal(t, "D412A347-9720-44C0-A9CC-FDE068F0A2E7", na["NumeroAutorizacion"])
	assert.NotContains(t, de, "Complementos")
}

// ── Cardinalidad ──

const threeItems = `<?xml version="1.0" encoding="UTF-8"?>
<dte:GTDocumento xmlns:dte="http://www.sat.gob.gt/dte/fel/0.2.0" Version="0.1">
  <dte:SAT ClaseDocumento="dte">
    <dte:DTE ID="DatosCertificados">
      <dte:DatosEmision ID="DatosEmision">
        <dte:Frases>
          <dte:Frase CodigoEscenario="1" TipoFrase="1"/>
          <dte:Frase CodigoEscenario="1" TipoFrase="4"/>
        </dte:Frases>
        <dte:Items>
          <dte:Item BienOServicio="B" NumeroLinea="1"><dte:Total>1.000000</dte:Total></dte:Item>
          <dte:Item BienOServicio="S" NumeroLinea="2"><dte:Total>2.000000</dte:Total></dte:Item>
          <dte:Item BienOServicio="B" NumeroLinea="3"><dte:Total>3.000000</dte:Total></dte:Item>
        </dte:Items>
      </dte:DatosEmision>
    </dte:DTE>
  </dte:SAT>
</dte:GTDocumento>`

func TestParse_TresItemsEsLista(t *testing.T) {
	doc, err := infrafel.NewParser().ParseString(threeItems)
	require.NoError(t, err)

	v, ok := doc.Emission.Items.Get("Item")
	require.True(t, ok)
	list, isList := v.(infrafel.List)
	require.True(t, isList)
	assert.Len(t, list, 3)

	items := doc.Items()
	require.Len(t, items, 3)
	for i, want := range []string{"1.000000", "2.000000", "3.000000"} {
		assert.Equal(t, want, items[i].Text("Total"))
	}
	assert.Len(t, doc.Phrases(), 2)
	assert.Empty(t, doc.Signatures)
	assert.Nil(t, doc.Certification)
}

const exportDoc = `<dte:GTDocumento xmlns:dte="http://www.sat.gob.gt/dte/fel/0.2.0" xmlns:cex="http://www.sat.gob.gt/face2/ComplementoExportaciones/0.1.0">
<dte:SAT><dte:DTE><dte:DatosEmision>
<dte:Complementos>
  <dte:Complemento IDComplemento="EXP" NombreComplemento="Exportacion" URIComplemento="text">
    <cex:Exportacion Version="1">
      <cex:NombreConsignatarioODestinatario>ACME LLC</cex:NombreConsignatarioODestinatario>
      <cex:INCOTERM>FOB</cex:INCOTERM>
    </cex:Exportacion>
  </dte:Complemento>
</dte:Complementos>
</dte:DatosEmision></dte:DTE></dte:SAT>
</dte:GTDocumento>`

func TestParse_ComplementoExportacion(t *testing.T) {
	doc, err := infrafel.NewParser().ParseString(exportDoc)
	require.NoError(t, err)

	comps := doc.Complements()
	require.Len(t, comps, 1)
	c := comps[0]
	assert.Equal(t, "EXP", c.Text("IDComplemento"))
	exp := c.Child("Exportacion")
	require.NotNil(t, exp)
	assert.Equal(t, "ACME LLC", exp.Text("NombreConsignatarioODestinatario"))
	assert.Equal(t, "FOB", exp.Text("INCOTERM"))
	assert.Equal(t, "1", exp.Text("Version"))
}

// ── Errores ──

func TestParse_XMLMalFormado(t *testing.T) {
	_, err := infrafel.NewParser().ParseString(`<dte:GTDocumento xmlns:dte="http://www.sat.gob.gt/dte/fel/0.2.0"><dte:SAT></dte:GTDocumento>`)
	require.Error(t, err)
	var pe *infrafel.ParseError
	assert.True(t, errors.As(err, &pe))

	_, err = infrafel.NewParser().ParseString("   ")
	assert.True(t, errors.As(err, &pe))
}

func TestParse_SinRaices(t *testing.T) {
	_, err := infrafel.NewParser().ParseString(`<dte:GTDocumento xmlns:dte="http://www.sat.gob.gt/dte/fel/0.2.0" Version="0.1"/>`)
	assert.ErrorIs(t, err, infrafel.ErrMissingRoots)
}

func TestParse_SoloFirma(t *testing.T) {
	src := `<dte:GTDocumento xmlns:dte="http://www.sat.gob.gt/dte/fel/0.2.0" xmlns:ds="http://www.w3.org/2000/09/xmldsig#">
<ds:Signature Id="s1"><ds:SignatureValue>abc</ds:SignatureValue></ds:Signature></dte:GTDocumento>`
	doc, err := infrafel.NewParser().ParseString(src)
	require.NoError(t, err)

	assert.Nil(t, doc.Emission)
	require.Len(t, doc.Signatures, 1)
	assert.Equal(t, "s1", doc.Signatures[0].ID)
	assert.Equal(t, "abc", doc.Signatures[0].SignatureValue.Text("SignatureValue"))

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.NotContains(t, m, "DatosEmision")
	sig, isObject := m["Signature"].(map[string]any)
	require.True(t, isObject, "una sola firma se serializa como objeto")
	assert.Equal(t, map[string]any{"SignatureValue": "abc"}, sig["SignatureValue"])
}

func TestParse_AutorizacionSinAtributos(t *testing.T) {
	src := `<dte:GTDocumento xmlns:dte="http://www.sat.gob.gt/dte/fel/0.2.0" Version="0.1">
<dte:SAT ClaseDocumento="dte"><dte:DTE ID="DatosCertificados">
<dte:Certificacion><dte:NITCertificador>16693949</dte:NITCertificador><dte:NumeroAutorizacion>UUID-1</dte:NumeroAutorizacion></dte:Certificacion>
</dte:DTE></dte:SAT></dte:GTDocumento>`
	doc, err := infrafel.NewParser().ParseString(src)
	require.NoError(t, err)
	assert.Equal(t, "UUID-1", doc.Authorization())
}

func TestParseFile(t *testing.T) {
	doc, err := infrafel.NewParser().ParseFile(filepath.Join("testdata", "dte_certificado.xml"))
	require.NoError(t, err)
	assert.Equal(t, "D412A347-9720-44C0-A9CC-FDE068F0A2E7", doc.Authorization())

	_, err = infrafel.NewParser().ParseFile(filepath.Join("testdata", "no-existe.xml"))
	assert.Error(t, err)
}
