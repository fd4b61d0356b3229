package fel_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainfel "github.com/jhoicas/fel-api/internal/domain/fel"
	infrafel "github.com/jhoicas/fel-api/internal/infrastructure/fel"
)

// El XML generado a partir de una solicitud se lee de vuelta con los mismos valores.
func TestXMLBuilder_IdaYVuelta(t *testing.T) {
	a := infrafel.NewAssembler(infrafel.WithClock(relojFijo()))
	in := domainfel.InvoiceInput{
		Type:     "FACT",
		Export:   "SI",
		BranchID: 2,
		Receiver: domainfel.ReceiverInput{ID: "CF", Name: "IMPORTADORA DEL SUR S.A.", Email: "compras@importadora.sv", Address: "San Salvador"},
		Items: []domainfel.LineItemInput{
			{UnitPrice: decimal.RequireFromString("100"), Description: "Martillo"},
			{Quantity: qtyOf("3"), UnitPrice: decimal.RequireFromString("50"), Discount: decimal.RequireFromString("10"), GoodOrService: "S", Description: "Instalación"},
		},
	}
	req, err := a.Assemble(in, emisorDePrueba())
	require.NoError(t, err)

	for _, indent := range []int{0, 2} {
		raw, err := infrafel.NewXMLBuilderService(indent).Build(req)
		require.NoError(t, err)

		doc, err := infrafel.NewParser().Parse(raw)
		require.NoError(t, err, "indent=%d", indent)

		assert.Equal(t, "0.1", doc.Version)
		assert.Equal(t, "dte", doc.ClassDocument)
		assert.Equal(t, "FACT", doc.Emission.GeneralData.Text("Tipo"))
		assert.Equal(t, "SI", doc.Emission.GeneralData.Text("Exp"))
		assert.Equal(t, "2024-03-05T12:04:05.123Z", doc.Emission.GeneralData.Text("FechaHoraEmision"))
		assert.Equal(t, "2", doc.Emission.Issuer.Text("CodigoEstablecimiento"))
		assert.Equal(t, "MIXCO", doc.Emission.Issuer.Child("DireccionEmisor").Text("Municipio"))
		assert.Equal(t, "28733657", doc.Emission.Issuer.Text("NITEmisor"))
		assert.Equal(t, "FERRETERIA EL MARTILLO, SOCIEDAD ANONIMA", doc.Emission.Issuer.Text("NombreEmisor"))
		assert.Equal(t, "GEN", doc.Emission.Issuer.Text("AfiliacionIVA"))
		assert.Equal(t, "EL MARTILLO MIXCO", doc.Emission.Issuer.Text("NombreComercial"))

		assert.Equal(t, "CF", doc.Emission.Receiver.Text("IDReceptor"))
		assert.Equal(t, "IMPORTADORA DEL SUR S.A.", doc.Emission.Receiver.Text("NombreReceptor"))
		assert.Equal(t, "compras@importadora.sv", doc.Emission.Receiver.Text("CorreoReceptor"))

		items := doc.Items()
		require.Len(t, items, 2)
		want := req.SAT.DTE.DatosEmision.Items.Item
		for i, it := range items {
			assert.Equal(t, want[i].Total, it.Text("Total"))
			assert.Equal(t, want[i].Price, it.Text("Precio"))
			assert.Equal(t, want[i].GoodOrService, it.Text("BienOServicio"))
			assert.Equal(t, want[i].Quantity, it.Text("Cantidad"))
			assert.Equal(t, want[i].UnitPrice, it.Text("PrecioUnitario"))
			assert.Equal(t, want[i].Discount, it.Text("Descuento"))
			tax := it.Child("Impuestos").Child("Impuesto")
			assert.Equal(t, want[i].Taxes.Tax[0].TaxableBase, tax.Text("MontoGravable"))
			assert.Equal(t, want[i].Taxes.Tax[0].TaxAmount, tax.Text("MontoImpuesto"))
		}
		assert.Equal(t, "Instalación", items[1].Text("Descripcion"))

		totales := req.SAT.DTE.DatosEmision.Totales
		assert.Equal(t, totales.GranTotal, doc.Emission.Totals.Text("GranTotal"))
		totalIVA := doc.Emission.Totals.Child("TotalImpuestos").Child("TotalImpuesto")
		assert.Equal(t, totales.TotalImpuestos.TotalImpuesto[0].Amount, totalIVA.Text("TotalMontoImpuesto"))
		assert.Equal(t, "IVA", totalIVA.Text("NombreCorto"))
		assert.Len(t, doc.Phrases(), 2)

		comps := doc.Complements()
		require.Len(t, comps, 1)
		exp := comps[0].Child("Exportacion")
		assert.Equal(t, "1", exp.Text("version"))
		assert.Equal(t, "IMPORTADORA DEL SUR S.A.", exp.Text("NombreConsignatarioODestinatario"))
		assert.Equal(t, "ZZZ", exp.Text("INCOTERM"))
		assert.Equal(t, "San Salvador", exp.Text("DireccionConsignatarioODestinatario"))

		assert.Equal(t, "F72BA9CD-0D79-4B1F-9453-0273B7D2EA88", doc.Authorization())
		require.Len(t, doc.Signatures, 1)
	}
}

func TestXMLBuilder_ResumenDeCertificacion(t *testing.T) {
	req, err := infrafel.NewAssembler(infrafel.WithClock(relojFijo())).
		Assemble(domainfel.InvoiceInput{Type: "FACT", Items: unItem()}, emisorDePrueba())
	require.NoError(t, err)
	raw, err := infrafel.NewXMLBuilderService(0).Build(req)
	require.NoError(t, err)

	s, err := infrafel.ExtractCertification(raw)
	require.NoError(t, err)
	assert.Equal(t, "F72BA9CD", s.Serie)
	assert.Equal(t, "28733657", s.IssuerNIT)
	assert.Equal(t, "100.000000", s.GrandTotal)
	assert.Equal(t, "10.714286", s.TaxTotal)
}

func TestXMLBuilder_SolicitudNula(t *testing.T) {
	_, err := infrafel.NewXMLBuilderService(0).Build(nil)
	assert.Error(t, err)
}

func qtyOf(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
