// Package fel contiene catálogos y validaciones del régimen de Factura
// Electrónica en Línea (FEL) de la SAT de Guatemala.
package fel

// =============================================================================
// Tipos de DTE (atributo Tipo de DatosGenerales)
// =============================================================================

const (
	DocTypeFactura               = "FACT" // Factura
	DocTypeFacturaCambiaria      = "FCAM" // Factura cambiaria
	DocTypeFacturaPequenio       = "FPEQ" // Factura pequeño contribuyente
	DocTypeFacturaCambiariaPeq   = "FCAP" // Factura cambiaria pequeño contribuyente
	DocTypeFacturaEspecial       = "FESP" // Factura especial
	DocTypeNotaAbono             = "NABN" // Nota de abono
	DocTypeReciboDonacion        = "RDON" // Recibo por donación
	DocTypeRecibo                = "RECI" // Recibo
	DocTypeNotaDebito            = "NDEB" // Nota de débito
	DocTypeNotaCredito           = "NCRE" // Nota de crédito
)

// ValidDocumentTypes tipos de DTE reconocidos por el régimen FEL.
var ValidDocumentTypes = map[string]bool{
	DocTypeFactura: true, DocTypeFacturaCambiaria: true, DocTypeFacturaPequenio: true,
	DocTypeFacturaCambiariaPeq: true, DocTypeFacturaEspecial: true, DocTypeNotaAbono: true,
	DocTypeReciboDonacion: true, DocTypeRecibo: true, DocTypeNotaDebito: true,
	DocTypeNotaCredito: true,
}

// =============================================================================
// Afiliación al IVA del emisor
// =============================================================================

const (
	AffiliationGeneral  = "GEN" // Régimen general
	AffiliationPequenio = "PEQ" // Pequeño contribuyente
	AffiliationExento   = "EXE" // Exento
)

// ValidAffiliations afiliaciones IVA válidas.
var ValidAffiliations = map[string]bool{
	AffiliationGeneral: true, AffiliationPequenio: true, AffiliationExento: true,
}

// =============================================================================
// Valores fijos del documento
// =============================================================================

const (
	CurrencyGTQ = "GTQ"

	ExportYes = "SI"
	ExportNo  = "NO"

	CountryGT          = "GT"
	DefaultPostalCode  = "1"
	FinalConsumerID    = "CF"
	FinalConsumerName  = "CONSUMIDOR FINAL"
	DefaultBranchID    = 1
	GoodsCode          = "B" // Bien
	ServicesCode       = "S" // Servicio
	IncotermPlaceholder = "ZZZ"
)

// ValidItemKinds valores de BienOServicio.
var ValidItemKinds = map[string]bool{GoodsCode: true, ServicesCode: true}

// =============================================================================
// Tipos de frase (atributo TipoFrase)
// =============================================================================

const (
	PhraseTypeISR         = "1" // Retenciones ISR
	PhraseTypeIVA         = "2" // Retenciones IVA
	PhraseTypeNoRetencion = "3" // No genera derecho a crédito fiscal
	PhraseTypeExenta      = "4" // Exenta o no afecta al IVA
	PhraseTypeEspecial    = "5" // Facturas especiales
)

// =============================================================================
// Complemento de exportación
// =============================================================================

const (
	ComplementExportID      = "EXP"
	ComplementExportName    = "Exportacion"
	ComplementExportURI     = "text"
	ComplementExportVersion = "1"
)
