package dto

// Límites de paginación de los listados de DTE.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// PageRequest paginación (?limit=&offset=).
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// Normalize aplica el límite por defecto y acota valores fuera de rango.
func (p *PageRequest) Normalize() {
	if p.Limit <= 0 || p.Limit > MaxPageLimit {
		p.Limit = DefaultPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// ErrorResponse cuerpo de error HTTP. Step y Status solo vienen en rechazos de la SAT.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Step    string `json:"step,omitempty"`
	Status  int    `json:"status,omitempty"`
}
