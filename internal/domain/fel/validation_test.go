package fel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fel-api/internal/domain/entity"
	"github.com/jhoicas/fel-api/internal/domain/fel"
)

func testSettings() *entity.TaxpayerSettings {
	return &entity.TaxpayerSettings{
		NIT:            "28733657",
		Name:           "EMPRESA DE PRUEBA",
		VATAffiliation: "PEQ",
		Branches:       []entity.Branch{{Number: 1, Name: "CENTRAL"}},
		DocumentTypes:  []string{"FPEQ", "FACT"},
	}
}

func TestValidateInvoice_Valida(t *testing.T) {
	in := fel.InvoiceInput{
		Type:     "FPEQ",
		Receiver: fel.ReceiverInput{ID: "2873365-7"},
		Items:    []fel.LineItemInput{{UnitPrice: dec("10")}},
	}
	assert.NoError(t, fel.ValidateInvoice(in, testSettings()))
}

func TestValidateInvoice_EstablecimientoInexistente(t *testing.T) {
	in := fel.InvoiceInput{BranchID: 9, Items: []fel.LineItemInput{{}}}

	err := fel.ValidateInvoice(in, testSettings())
	require.Error(t, err)
	assert.ErrorIs(t, err, fel.ErrInvalidInvoice)
	assert.ErrorIs(t, err, fel.ErrBranchNotFound)
}

func TestValidateInvoice_AcumulaErrores(t *testing.T) {
	in := fel.InvoiceInput{
		Type:     "NCRE",
		Export:   "TAL VEZ",
		Currency: "QUETZAL",
		Items:    []fel.LineItemInput{{GoodOrService: "X", UnitPrice: dec("-1")}},
	}

	err := fel.ValidateInvoice(in, testSettings())
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "no tiene habilitado")
	assert.Contains(t, msg, "Exp debe ser SI o NO")
	assert.Contains(t, msg, "código de moneda")
	assert.Contains(t, msg, "BienOServicio")
	assert.Contains(t, msg, "precio unitario negativo")
}

func TestValidateInvoice_NITReceptor(t *testing.T) {
	in := fel.InvoiceInput{Receiver: fel.ReceiverInput{ID: "28733658"}, Items: []fel.LineItemInput{{}}}
	assert.ErrorIs(t, fel.ValidateInvoice(in, testSettings()), fel.ErrInvalidInvoice)

	in.Export = "SI"
	assert.NoError(t, fel.ValidateInvoice(in, testSettings()), "en exportación el receptor es extranjero")
}

func TestValidateInvoice_SinItems(t *testing.T) {
	err := fel.ValidateInvoice(fel.InvoiceInput{}, testSettings())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "al menos un ítem")
}
