package fel

import (
	"strings"

	"github.com/shopspring/decimal"

	pkgfel "github.com/jhoicas/fel-api/pkg/fel"
)

// LineItemInput línea tal como la describe quien emite. Todos los campos son opcionales:
// cantidad 1, precio 0, descuento 0, descripción vacía y BienOServicio "B".
type LineItemInput struct {
	Quantity      decimal.NullDecimal
	UnitPrice     decimal.Decimal
	Discount      decimal.Decimal
	Description   string
	GoodOrService string
}

// Item línea calculada con los montos ya formateados para el documento.
type Item struct {
	LineNumber    int       `json:"NumeroLinea"`
	GoodOrService string    `json:"BienOServicio"`
	Quantity      string    `json:"Cantidad"`
	Description   string    `json:"Descripcion"`
	UnitPrice     string    `json:"PrecioUnitario"`
	Price         string    `json:"Precio"`
	Discount      string    `json:"Descuento"`
	Taxes         ItemTaxes `json:"Impuestos"`
	Total         string    `json:"Total"`
}

// ItemTaxes contenedor de impuestos de la línea.
type ItemTaxes struct {
	Tax []ItemTax `json:"Impuesto"`
}

// ItemTax impuesto de la línea (solo IVA).
type ItemTax struct {
	ShortName   string `json:"NombreCorto"`
	TaxableUnit string `json:"CodigoUnidadGravable"`
	TaxableBase string `json:"MontoGravable"`
	TaxAmount   string `json:"MontoImpuesto"`
}

// TaxTotal total por impuesto para Totales/TotalImpuestos.
type TaxTotal struct {
	ShortName string `json:"NombreCorto"`
	Amount    string `json:"TotalMontoImpuesto"`
}

// ItemsResult líneas calculadas y totales del documento.
type ItemsResult struct {
	Items      []Item
	GrandTotal string
	TaxTotals  []TaxTotal

	GrandTotalValue decimal.Decimal
	TaxTotalValue   decimal.Decimal
}

// BuildItems calcula las líneas en el orden recibido. El número de línea es la posición
// (desde 1); el precio incluye IVA, así que la base gravable es Total / 1.12.
func BuildItems(inputs []LineItemInput) ItemsResult {
	res := ItemsResult{Items: make([]Item, 0, len(inputs))}
	grand := decimal.Zero
	taxSum := decimal.Zero

	for i, in := range inputs {
		qty := decimal.NewFromInt(1)
		if in.Quantity.Valid {
			qty = in.Quantity.Decimal
		}
		discount := in.Discount
		if discount.IsNegative() {
			discount = decimal.Zero
		}
		kind := strings.ToUpper(strings.TrimSpace(in.GoodOrService))
		if kind == "" {
			kind = pkgfel.GoodsCode
		}

		item := Item{
			LineNumber:    i + 1,
			GoodOrService: kind,
			Quantity:      FormatPlain(qty),
			Description:   in.Description,
			UnitPrice:     FormatFixed6(in.UnitPrice),
			Price:         "0",
			Discount:      FormatFixed6(discount),
			Total:         "0",
		}
		tax := ItemTax{ShortName: VATShortName, TaxableUnit: TaxableUnitCode, TaxableBase: "0", TaxAmount: "0"}

		if !in.UnitPrice.IsZero() && !qty.IsZero() {
			gross := in.UnitPrice.Mul(qty)
			item.Price = FormatFixed6(gross)

			net := gross.Sub(discount)
			if net.IsPositive() {
				item.Total = FormatFixed6(net)
				base := net.Div(VATDivisor)
				amount := net.Sub(base)
				tax.TaxableBase = FormatFixed6(base)
				tax.TaxAmount = FormatFixed6(amount)

				grand = grand.Add(net)
				if amount.IsPositive() {
					taxSum = taxSum.Add(amount.Round(6))
				}
			}
		}

		item.Taxes = ItemTaxes{Tax: []ItemTax{tax}}
		res.Items = append(res.Items, item)
	}

	res.GrandTotalValue = grand
	res.TaxTotalValue = taxSum
	res.GrandTotal = FormatFixed6(grand)
	res.TaxTotals = []TaxTotal{{ShortName: VATShortName, Amount: FormatPlain(taxSum)}}
	return res
}
