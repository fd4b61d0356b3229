package fel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/fel-api/internal/domain/entity"
	pkgfel "github.com/jhoicas/fel-api/pkg/fel"
)

var (
	// ErrInvalidInvoice agrupa errores de validación del DTE.
	ErrInvalidInvoice = errors.New("DTE inválido")
	// ErrBranchNotFound el establecimiento solicitado no existe en la configuración del emisor.
	ErrBranchNotFound = errors.New("establecimiento no encontrado")
)

// ValidateInvoice revisa el DTE contra la configuración del emisor antes de ensamblarlo.
// El ensamblador tolera datos incompletos (establecimiento inexistente = campos vacíos);
// esta validación es la que los reporta.
func ValidateInvoice(in InvoiceInput, settings *entity.TaxpayerSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: configuración del emisor nula", ErrInvalidInvoice)
	}
	var errs []error

	if _, ok := settings.Branch(in.EffectiveBranchID()); !ok {
		errs = append(errs, fmt.Errorf("%w: %d", ErrBranchNotFound, in.EffectiveBranchID()))
	}

	if in.Type != "" {
		if !pkgfel.ValidDocumentTypes[in.Type] {
			errs = append(errs, fmt.Errorf("tipo de DTE desconocido: %q", in.Type))
		} else if !settings.AllowsDocumentType(in.Type) {
			errs = append(errs, fmt.Errorf("el emisor no tiene habilitado el tipo %q", in.Type))
		}
	}

	if in.Currency != "" && len(in.Currency) != 3 {
		errs = append(errs, fmt.Errorf("código de moneda inválido: %q", in.Currency))
	}

	if in.Export != "" {
		exp := strings.ToUpper(strings.TrimSpace(in.Export))
		if exp != pkgfel.ExportYes && exp != pkgfel.ExportNo {
			errs = append(errs, fmt.Errorf("Exp debe ser SI o NO, se recibió %q", in.Export))
		}
	}

	if id := strings.TrimSpace(in.Receiver.ID); id != "" && !pkgfel.IsFinalConsumer(id) && !in.IsExport() {
		if err := pkgfel.ValidateNIT(id); err != nil {
			errs = append(errs, fmt.Errorf("receptor: %w", err))
		}
	}

	if len(in.Items) == 0 {
		errs = append(errs, errors.New("el DTE debe tener al menos un ítem"))
	}
	for i, it := range in.Items {
		kind := strings.ToUpper(strings.TrimSpace(it.GoodOrService))
		if kind != "" && !pkgfel.ValidItemKinds[kind] {
			errs = append(errs, fmt.Errorf("ítem %d: BienOServicio debe ser B o S, se recibió %q", i+1, it.GoodOrService))
		}
		if it.Quantity.Valid && it.Quantity.Decimal.IsNegative() {
			errs = append(errs, fmt.Errorf("ítem %d: cantidad negativa", i+1))
		}
		if it.UnitPrice.IsNegative() {
			errs = append(errs, fmt.Errorf("ítem %d: precio unitario negativo", i+1))
		}
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidInvoice}, errs...)...)
	}
	return nil
}
