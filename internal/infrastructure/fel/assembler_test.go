package fel_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fel-api/internal/domain/entity"
	domainfel "github.com/jhoicas/fel-api/internal/domain/fel"
	infrafel "github.com/jhoicas/fel-api/internal/infrastructure/fel"
)

func emisorDePrueba() *entity.TaxpayerSettings {
	return &entity.TaxpayerSettings{
		NIT:            "28733657",
		Name:           "FERRETERIA EL MARTILLO, SOCIEDAD ANONIMA",
		VATAffiliation: "GEN",
		Branches: []entity.Branch{
			{Number: 1, Name: "EL MARTILLO CENTRAL", Street: "6A AVENIDA", HouseNumber: "10-20", Colony: "CENTRO", Zone: "1", Municipality: "GUATEMALA", Department: "GUATEMALA"},
			{Number: 2, Name: "EL MARTILLO MIXCO", Street: "CALZADA ROOSEVELT", HouseNumber: "22-43", Colony: "SAN CRISTOBAL", Zone: "8", Municipality: "MIXCO", Department: "GUATEMALA"},
		},
		Phrases: []entity.Phrase{{Type: "1", Scenario: "1"}},
		PhraseGroups: []entity.PhraseGroup{
			{Type: "1", Phrases: []entity.Phrase{{Scenario: "1", Text: "Sujeto a pagos trimestrales ISR"}}},
			{Type: "4", Phrases: []entity.Phrase{{Scenario: "1", Text: "Exenta del IVA (art. 7 num. 2 Ley del IVA)"}}},
		},
	}
}

func relojFijo() func() time.Time {
	return func() time.Time { return time.Date(2024, 3, 5, 18, 4, 5, 123000000, time.UTC) }
}

func unItem() []domainfel.LineItemInput {
	return []domainfel.LineItemInput{{UnitPrice: decimal.RequireFromString("100"), Description: "Martillo"}}
}

func toMap(t *testing.T, v any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

// ── Valores por defecto ─────────────────────────────────────────────────────────

func TestAssemble_ValoresPorDefecto(t *testing.T) {
	a := infrafel.NewAssembler(infrafel.WithClock(relojFijo()))

	req, err := a.Assemble(domainfel.InvoiceInput{Items: unItem()}, emisorDePrueba())
	require.NoError(t, err)

	de := req.SAT.DTE.DatosEmision
	assert.Equal(t, "FPEQ", de.DatosGenerales.Tipo)
	assert.Equal(t, "GTQ", de.DatosGenerales.CodigoMoneda)
	assert.Equal(t, "2024-03-05T12:04:05.123Z", de.DatosGenerales.FechaHoraEmision, "hora local de Guatemala con Z literal")
	assert.Empty(t, de.DatosGenerales.Exp)

	assert.Equal(t, "CF", de.Receptor.IDReceptor)
	assert.Equal(t, "CONSUMIDOR FINAL", de.Receptor.NombreReceptor)

	assert.Equal(t, 1, de.Emisor.CodigoEstablecimiento)
	assert.Equal(t, "EL MARTILLO CENTRAL", de.Emisor.NombreComercial)
	assert.Equal(t, "GEN", de.Emisor.AfiliacionIVA)
	assert.Equal(t, "1", de.Emisor.DireccionEmisor.CodigoPostal)
	assert.Equal(t, "GT", de.Emisor.DireccionEmisor.Pais)
	assert.Equal(t, "6A AVENIDA  10-20 CENTRO, zona 1, GUATEMALA, GUATEMALA", de.Emisor.DireccionEmisor.Direccion)

	require.Len(t, de.Items.Item, 1)
	assert.Equal(t, "100.000000", de.Totales.GranTotal)
	require.Len(t, de.Totales.TotalImpuestos.TotalImpuesto, 1)
	assert.Equal(t, "10.714286", de.Totales.TotalImpuestos.TotalImpuesto[0].Amount)

	assert.Nil(t, de.Complementos)
	assert.Equal(t, []infrafel.Frase{{TipoFrase: "1", CodigoEscenario: "1"}}, de.Frases.Frase)
}

func TestAssemble_EstablecimientoSolicitado(t *testing.T) {
	a := infrafel.NewAssembler(infrafel.WithClock(relojFijo()))

	req, err := a.Assemble(domainfel.InvoiceInput{BranchID: 2, Items: unItem()}, emisorDePrueba())
	require.NoError(t, err)

	e := req.SAT.DTE.DatosEmision.Emisor
	assert.Equal(t, 2, e.CodigoEstablecimiento)
	assert.Equal(t, "EL MARTILLO MIXCO", e.NombreComercial)
	assert.Equal(t, "MIXCO", e.DireccionEmisor.Municipio)
}

func TestAssemble_EstablecimientoInexistenteQuedaVacio(t *testing.T) {
	a := infrafel.NewAssembler(infrafel.WithClock(relojFijo()))

	req, err := a.Assemble(domainfel.InvoiceInput{BranchID: 7, Items: unItem()}, emisorDePrueba())
	require.NoError(t, err)

	e := req.SAT.DTE.DatosEmision.Emisor
	assert.Equal(t, 7, e.CodigoEstablecimiento)
	assert.Empty(t, e.NombreComercial)
	assert.Empty(t, e.DireccionEmisor.Municipio)
}

func TestAssemble_SinConfiguracion(t *testing.T) {
	_, err := infrafel.NewAssembler().Assemble(domainfel.InvoiceInput{}, nil)
	assert.Error(t, err)
}

// ── Exportación ─────────────────────────────────────────────────────────────────

func TestAssemble_Exportacion(t *testing.T) {
	a := infrafel.NewAssembler(infrafel.WithClock(relojFijo()))
	in := domainfel.InvoiceInput{
		Type:   "FACT",
		Export: " si ",
		Receiver: domainfel.ReceiverInput{
			ID:      "CF",
			Name:    "IMPORTADORA DEL SUR S.A.",
			Address: "Av. Central 100, San Salvador",
		},
		Items: unItem(),
	}

	req, err := a.Assemble(in, emisorDePrueba())
	require.NoError(t, err)

	de := req.SAT.DTE.DatosEmision
	assert.Equal(t, "SI", de.DatosGenerales.Exp)
	require.NotNil(t, de.Complementos)
	require.Len(t, de.Complementos.Complemento, 1)

	c := de.Complementos.Complemento[0]
	assert.Equal(t, "EXP", c.IDComplemento)
	assert.Equal(t, "Exportacion", c.NombreComplemento)
	require.NotNil(t, c.Exportacion)
	assert.Equal(t, "ZZZ", c.Exportacion.Incoterm)
	assert.Equal(t, "Av. Central 100, San Salvador", c.Exportacion.DireccionConsignatario)
	assert.Equal(t, "IMPORTADORA DEL SUR S.A.", c.Exportacion.NombreConsignatario)

	// la frase de exportación sale del último grupo que define el escenario 1
	require.Len(t, de.Frases.Frase, 2)
	assert.Equal(t, infrafel.Frase{TipoFrase: "4", CodigoEscenario: "1"}, de.Frases.Frase[1])
}

func TestAssemble_EscenarioExportacionConfigurable(t *testing.T) {
	s := emisorDePrueba()
	s.PhraseGroups = append(s.PhraseGroups, entity.PhraseGroup{Type: "4", Phrases: []entity.Phrase{{Scenario: "9"}}})
	a := infrafel.NewAssembler(infrafel.WithClock(relojFijo()), infrafel.WithExportPhraseScenario("9"))

	req, err := a.Assemble(domainfel.InvoiceInput{Export: "SI", Items: unItem()}, s)
	require.NoError(t, err)

	frases := req.SAT.DTE.DatosEmision.Frases.Frase
	require.Len(t, frases, 2)
	assert.Equal(t, "9", frases[1].CodigoEscenario)
}

func TestAssemble_JSONSinExportacion(t *testing.T) {
	a := infrafel.NewAssembler(infrafel.WithClock(relojFijo()))

	req, err := a.Assemble(domainfel.InvoiceInput{Export: "NO", Items: unItem()}, emisorDePrueba())
	require.NoError(t, err)

	m := toMap(t, req)
	de := m["SAT"].(map[string]any)["DTE"].(map[string]any)["DatosEmision"].(map[string]any)
	assert.NotContains(t, de, "Complementos")
	dg := de["DatosGenerales"].(map[string]any)
	assert.NotContains(t, dg, "Exp")
	assert.Equal(t, "2024-03-05T12:04:05.123Z", dg["FechaHoraEmisionForm"])
	assert.NotContains(t, m, "frasePaso")
}

func TestAssemble_JSONConExportacion(t *testing.T) {
	a := infrafel.NewAssembler(infrafel.WithClock(relojFijo()))

	req, err := a.Assemble(domainfel.InvoiceInput{Export: "SI", Items: unItem()}, emisorDePrueba())
	require.NoError(t, err)

	m := toMap(t, req)
	de := m["SAT"].(map[string]any)["DTE"].(map[string]any)["DatosEmision"].(map[string]any)
	comps := de["Complementos"].(map[string]any)["Complemento"].([]any)
	require.Len(t, comps, 1)
	exp := comps[0].(map[string]any)["Exportacion"].(map[string]any)
	assert.Equal(t, "ZZZ", exp["INCOTERM"])
	assert.Equal(t, "1", exp["version"])
}

// ── Certificación y firma ───────────────────────────────────────────────────────

func TestAssemble_CertificacionPorDefecto(t *testing.T) {
	req, err := infrafel.NewAssembler().Assemble(domainfel.InvoiceInput{Items: unItem()}, emisorDePrueba())
	require.NoError(t, err)

	c := req.SAT.DTE.Certificacion
	assert.Equal(t, "16693949", c.NITCertificador)
	assert.Equal(t, "F72BA9CD-0D79-4B1F-9453-0273B7D2EA88", c.NumeroAutorizacion.Value)
	assert.Equal(t, "2019-02-11T00:00:00-06:00", c.FechaHoraCertificacion)

	m := toMap(t, req)
	sig := m["Signature"].(map[string]any)
	si := sig["SignedInfo"].(map[string]any)
	assert.Equal(t, map[string]any{}, si["CanonicalizationMethod"])
	assert.Equal(t, map[string]any{"DigestMethod": map[string]any{}, "DigestValue": map[string]any{}}, si["Reference"])
	assert.Equal(t, "", sig["SignatureValue"])
}

func TestAssemble_CertificacionConfigurada(t *testing.T) {
	cert := infrafel.CertificationDefaults{NIT: "1", Name: "CERT", Serie: "S", Numero: "N", Authorization: "A", CertifiedAt: "2024-01-01T00:00:00-06:00"}
	req, err := infrafel.NewAssembler(infrafel.WithCertification(cert)).Assemble(domainfel.InvoiceInput{Items: unItem()}, emisorDePrueba())
	require.NoError(t, err)

	c := req.SAT.DTE.Certificacion
	assert.Equal(t, "CERT", c.NombreCertificador)
	assert.Equal(t, infrafel.NumeroAutorizacion{Serie: "S", Numero: "N", Value: "A"}, c.NumeroAutorizacion)
}

func TestComplemento_ExtraSeMezcla(t *testing.T) {
	c := infrafel.Complemento{IDComplemento: "X", Extra: map[string]any{"Otro": "valor"}}

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var back infrafel.Complemento
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, "X", back.IDComplemento)
	assert.Equal(t, "valor", back.Extra["Otro"])
	assert.Nil(t, back.Exportacion)
}
