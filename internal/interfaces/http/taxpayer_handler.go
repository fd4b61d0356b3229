package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fel-api/internal/application/dto"
	"github.com/jhoicas/fel-api/internal/domain/entity"
)

// TaxpayerCatalog consultas sobre la configuración del contribuyente (*dte.Manager).
type TaxpayerCatalog interface {
	Refresh(ctx context.Context) error
	Taxpayer() (*entity.TaxpayerSettings, error)
	Branches() ([]entity.Branch, error)
	Phrases() ([]entity.Phrase, error)
	AvailablePhrases() ([]entity.Phrase, error)
	Incoterms() ([]entity.Incoterm, error)
	ErrorCodes() (map[string]string, error)
	DocumentTypes() ([]string, error)
}

// TaxpayerHandler catálogos del contribuyente descargados del portal FEL.
type TaxpayerHandler struct {
	catalog TaxpayerCatalog
}

// NewTaxpayerHandler construye el handler.
func NewTaxpayerHandler(catalog TaxpayerCatalog) *TaxpayerHandler {
	return &TaxpayerHandler{catalog: catalog}
}

// Get datos generales del contribuyente.
// GET /api/taxpayer
func (h *TaxpayerHandler) Get(c *fiber.Ctx) error {
	s, err := h.catalog.Taxpayer()
	if err != nil {
		return dteError(c, err)
	}
	return c.JSON(dto.NewTaxpayerResponse(s))
}

// Branches GET /api/taxpayer/branches
func (h *TaxpayerHandler) Branches(c *fiber.Ctx) error {
	bs, err := h.catalog.Branches()
	if err != nil {
		return dteError(c, err)
	}
	return c.JSON(dto.NewBranchResponses(bs))
}

// Phrases frases obligatorias del emisor.
// GET /api/taxpayer/phrases
func (h *TaxpayerHandler) Phrases(c *fiber.Ctx) error {
	ps, err := h.catalog.Phrases()
	if err != nil {
		return dteError(c, err)
	}
	return c.JSON(dto.NewPhraseResponses(ps))
}

// AvailablePhrases catálogo general de frases.
// GET /api/taxpayer/available-phrases
func (h *TaxpayerHandler) AvailablePhrases(c *fiber.Ctx) error {
	ps, err := h.catalog.AvailablePhrases()
	if err != nil {
		return dteError(c, err)
	}
	return c.JSON(dto.NewPhraseResponses(ps))
}

// Incoterms GET /api/taxpayer/incoterms
func (h *TaxpayerHandler) Incoterms(c *fiber.Ctx) error {
	is, err := h.catalog.Incoterms()
	if err != nil {
		return dteError(c, err)
	}
	return c.JSON(dto.NewIncotermResponses(is))
}

// ErrorCodes GET /api/taxpayer/error-codes
func (h *TaxpayerHandler) ErrorCodes(c *fiber.Ctx) error {
	codes, err := h.catalog.ErrorCodes()
	if err != nil {
		return dteError(c, err)
	}
	return c.JSON(codes)
}

// DocumentTypes GET /api/taxpayer/document-types
func (h *TaxpayerHandler) DocumentTypes(c *fiber.Ctx) error {
	types, err := h.catalog.DocumentTypes()
	if err != nil {
		return dteError(c, err)
	}
	return c.JSON(types)
}

// Refresh vuelve a descargar la configuración del portal.
// POST /api/taxpayer/refresh
func (h *TaxpayerHandler) Refresh(c *fiber.Ctx) error {
	if err := h.catalog.Refresh(c.UserContext()); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "FEL_UNAVAILABLE", Message: err.Error()})
	}
	s, err := h.catalog.Taxpayer()
	if err != nil {
		return dteError(c, err)
	}
	return c.JSON(dto.NewTaxpayerResponse(s))
}
