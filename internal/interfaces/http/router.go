package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fel-api/internal/application/dte"
	"github.com/jhoicas/fel-api/pkg/jwt"
	"github.com/jhoicas/fel-api/pkg/logger"
)

// Manager lo que el router necesita de *dte.Manager.
type Manager interface {
	DteIssuer
	TaxpayerCatalog
}

var _ Manager = (*dte.Manager)(nil)
var _ DocumentReader = (*dte.DocumentService)(nil)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Manager   Manager
	Documents DocumentReader
	JWTSecret string
	Logger    *logger.Logger // opcional
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Logger != nil {
		app.Use(RequestLogger(deps.Logger))
	}
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC()})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token del contribuyente)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireTaxpayer(deps.Manager))
	issuerOnly := RequireRole(jwt.RoleIssuer)
	anyRole := RequireRole(jwt.RoleIssuer, jwt.RoleViewer)

	// Taxpayer (catálogos)
	taxpayer := protected.Group("/taxpayer")
	taxpayerHandler := NewTaxpayerHandler(deps.Manager)
	taxpayer.Get("/", anyRole, taxpayerHandler.Get)
	taxpayer.Get("/branches", anyRole, taxpayerHandler.Branches)
	taxpayer.Get("/phrases", anyRole, taxpayerHandler.Phrases)
	taxpayer.Get("/available-phrases", anyRole, taxpayerHandler.AvailablePhrases)
	taxpayer.Get("/incoterms", anyRole, taxpayerHandler.Incoterms)
	taxpayer.Get("/error-codes", anyRole, taxpayerHandler.ErrorCodes)
	taxpayer.Get("/document-types", anyRole, taxpayerHandler.DocumentTypes)
	taxpayer.Post("/refresh", issuerOnly, taxpayerHandler.Refresh)

	// DTE
	dtes := protected.Group("/dte")
	dteHandler := NewDteHandler(deps.Manager, deps.Documents)
	dtes.Post("/", issuerOnly, dteHandler.Issue)
	dtes.Post("/preview", issuerOnly, dteHandler.Preview)
	dtes.Post("/parse", anyRole, dteHandler.Parse)
	dtes.Get("/", anyRole, dteHandler.List)
	dtes.Get("/:authorization", anyRole, dteHandler.GetByAuthorization)
}

// RequestLogger registra método, ruta, estado y duración de cada petición.
func RequestLogger(log *logger.Logger) fiber.Handler {
	l := log.Component("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		ev := l.Info()
		if c.Response().StatusCode() >= fiber.StatusInternalServerError {
			ev = l.Error()
		}
		ev.Str("method", c.Method()).Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("duration", time.Since(start)).Msg("request")
		return err
	}
}
