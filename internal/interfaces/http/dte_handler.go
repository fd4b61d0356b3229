package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fel-api/internal/application/dte"
	"github.com/jhoicas/fel-api/internal/application/dto"
	"github.com/jhoicas/fel-api/internal/domain"
	"github.com/jhoicas/fel-api/internal/domain/entity"
	domainfel "github.com/jhoicas/fel-api/internal/domain/fel"
	infrafel "github.com/jhoicas/fel-api/internal/infrastructure/fel"
)

// DteIssuer lo que el handler usa de *dte.Manager para emitir.
type DteIssuer interface {
	Issue(ctx context.Context, in domainfel.InvoiceInput) (*dte.IssueResult, error)
	Preview(in domainfel.InvoiceInput) (*dte.Preview, error)
}

// DocumentReader lo que el handler usa de *dte.DocumentService.
type DocumentReader interface {
	Parse(raw []byte) (*infrafel.ParsedDocument, error)
	Get(ctx context.Context, authorization string) (*dte.StoredDocument, error)
	List(ctx context.Context, nit string, limit, offset int) ([]*entity.IssuedDocument, error)
}

// DteHandler emisión, parseo y consulta de DTE.
type DteHandler struct {
	issuer    DteIssuer
	documents DocumentReader
}

// NewDteHandler construye el handler.
func NewDteHandler(issuer DteIssuer, documents DocumentReader) *DteHandler {
	return &DteHandler{issuer: issuer, documents: documents}
}

// Issue emite y certifica un DTE.
// POST /api/dte
func (h *DteHandler) Issue(c *fiber.Ctx) error {
	var in dto.CreateDteRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.issuer.Issue(c.UserContext(), in.ToInput())
	if err != nil {
		return dteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(newIssueDteResponse(res))
}

// Preview ensambla el DTE y devuelve el JSON y el XML sin enviarlos a la SAT.
// POST /api/dte/preview
func (h *DteHandler) Preview(c *fiber.Ctx) error {
	var in dto.CreateDteRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	p, err := h.issuer.Preview(in.ToInput())
	if err != nil {
		return dteError(c, err)
	}
	return c.JSON(dto.PreviewDteResponse{Request: p.Request, XML: p.XML})
}

// Parse recibe un DTE certificado (XML en el cuerpo) y devuelve su versión normalizada.
// POST /api/dte/parse
func (h *DteHandler) Parse(c *fiber.Ctx) error {
	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "se requiere el XML del DTE en el cuerpo"})
	}
	doc, err := h.documents.Parse(body)
	if err != nil {
		return dteError(c, err)
	}
	return c.JSON(doc)
}

// GetByAuthorization DTE guardado con su árbol normalizado.
// GET /api/dte/:authorization
func (h *DteHandler) GetByAuthorization(c *fiber.Ctx) error {
	auth := c.Params("authorization")
	if auth == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "autorización requerida"})
	}
	doc, err := h.documents.Get(c.UserContext(), auth)
	if err != nil {
		return dteError(c, err)
	}
	return c.JSON(dto.NewDocumentResponse(doc.Record, doc.Parsed))
}

// List DTE guardados del emisor del token (o ?nit=).
// GET /api/dte?limit=&offset=&nit=
func (h *DteHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	page.Normalize()
	nit := c.Query("nit", GetNIT(c))
	if nit == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "nit requerido"})
	}
	docs, err := h.documents.List(c.UserContext(), nit, page.Limit, page.Offset)
	if err != nil {
		return dteError(c, err)
	}
	items := make([]dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		items = append(items, dto.NewDocumentResponse(d, nil))
	}
	return c.JSON(fiber.Map{
		"items": items,
		"page":  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Count: len(items)},
	})
}

func newIssueDteResponse(res *dte.IssueResult) dto.IssueDteResponse {
	out := dto.IssueDteResponse{XML: res.XML, Stored: res.Stored}
	if res.Signing != nil {
		out.Signing = res.Signing.Raw
	}
	if res.Certification != nil {
		out.Certification = res.Certification.Raw
	}
	if s := res.Summary; s != nil {
		out.NumeroAutorizacion = s.Authorization
		out.Serie = s.Serie
		out.Numero = s.Numero
		out.FechaHoraCertificacion = s.CertifiedAt
	}
	return out
}

// dteError traduce errores de dominio y de la SAT a HTTP.
func dteError(c *fiber.Ctx, err error) error {
	var dteErr *domain.DteError
	var parseErr *infrafel.ParseError
	switch {
	case errors.As(err, &dteErr):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Code:    "SAT_REJECTED",
			Message: dteErr.Error(),
			Step:    dteErr.Step,
			Status:  dteErr.Status,
		})
	case errors.Is(err, domainfel.ErrInvalidInvoice):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.As(err, &parseErr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_XML", Message: err.Error()})
	case errors.Is(err, infrafel.ErrMissingRoots):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "NOT_A_DTE", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "DTE no encontrado"})
	case errors.Is(err, domain.ErrNoSettings):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "TAXPAYER_UNAVAILABLE", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
