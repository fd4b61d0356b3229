package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrDuplicate       = errors.New("recurso duplicado")
	ErrUnauthorized    = errors.New("no autorizado")
	ErrForbidden       = errors.New("acceso denegado")
	ErrInvalidEndpoint = errors.New("endpoint FEL desconocido")
	ErrNoSettings      = errors.New("configuración del contribuyente no cargada")
)

// DteError rechazo de la SAT en alguno de los pasos de emisión (estadoHttp distinto de 200).
type DteError struct {
	Step    string // procesar, firmar, certificar
	Status  int
	Message string
}

func (e *DteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("sat: %s rechazado (estado %d)", e.Step, e.Status)
	}
	return e.Message
}
