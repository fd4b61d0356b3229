package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fel-api/internal/application/dto"
	"github.com/jhoicas/fel-api/internal/domain/entity"
)

// taxpayerSource es lo mínimo que necesita el middleware; lo implementa *dte.Manager.
type taxpayerSource interface {
	Taxpayer() (*entity.TaxpayerSettings, error)
}

// RequireTaxpayer verifica que el NIT del token sea el del contribuyente de la sesión FEL.
// Debe usarse después de AuthMiddleware.
//
//   - 403 Forbidden → el token pertenece a otro contribuyente.
//   - 503 Service Unavailable → la configuración del contribuyente no está cargada.
func RequireTaxpayer(src taxpayerSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		nit := GetNIT(c)
		if nit == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "nit no encontrado en el token"})
		}
		s, err := src.Taxpayer()
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "TAXPAYER_UNAVAILABLE",
				Message: "configuración del contribuyente no disponible, intente más tarde",
			})
		}
		if s.NIT != nit {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "TAXPAYER_MISMATCH",
				Message: "el token no corresponde al contribuyente " + s.NIT,
			})
		}
		return c.Next()
	}
}
