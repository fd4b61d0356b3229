package repository

import (
	"context"

	"github.com/jhoicas/fel-api/internal/domain/entity"
)

// DocumentRepository define el puerto de persistencia para DTE certificados.
type DocumentRepository interface {
	Save(ctx context.Context, doc *entity.IssuedDocument) error
	// GetByAuthorization devuelve nil, nil si no existe.
	GetByAuthorization(ctx context.Context, authorization string) (*entity.IssuedDocument, error)
	ListByIssuer(ctx context.Context, nit string, limit, offset int) ([]*entity.IssuedDocument, error)
}
