package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/fel-api/internal/domain"
	"github.com/jhoicas/fel-api/internal/domain/entity"
	"github.com/jhoicas/fel-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// schemaDocuments tabla de DTE certificados. NumeroAutorizacion es único por documento.
const schemaDocuments = `
CREATE TABLE IF NOT EXISTS fel_documents (
	id             UUID PRIMARY KEY,
	issuer_nit     VARCHAR(20)    NOT NULL,
	document_type  VARCHAR(4)     NOT NULL,
	authorization_uuid VARCHAR(36) NOT NULL UNIQUE,
	serie          VARCHAR(20)    NOT NULL,
	numero         VARCHAR(20)    NOT NULL,
	certified_at   VARCHAR(40)    NOT NULL,
	grand_total    NUMERIC(18,6)  NOT NULL,
	tax_total      NUMERIC(18,6)  NOT NULL,
	xml_certified  TEXT           NOT NULL,
	digest         VARCHAR(64)    NOT NULL,
	created_at     TIMESTAMPTZ    NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_fel_documents_issuer ON fel_documents (issuer_nit, created_at DESC);`

const documentColumns = `id, issuer_nit, document_type, authorization_uuid, serie, numero, certified_at,
	grand_total, tax_total, xml_certified, digest, created_at`

// DocumentRepo implementación de DocumentRepository (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

// EnsureSchema crea la tabla si no existe.
func (r *DocumentRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, schemaDocuments); err != nil {
		return fmt.Errorf("create fel_documents: %w", err)
	}
	return nil
}

// Save persiste un DTE certificado. Asigna ID y CreatedAt si vienen vacíos.
func (r *DocumentRepo) Save(ctx context.Context, doc *entity.IssuedDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: documento nulo", domain.ErrInvalidInput)
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO fel_documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		doc.ID, doc.IssuerNIT, doc.DocumentType, doc.Authorization, doc.Serie, doc.Number, doc.CertifiedAt,
		doc.GrandTotal, doc.TaxTotal, doc.XMLCertified, doc.Digest, doc.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert fel_document: %w", err)
	}
	return nil
}

// GetByAuthorization obtiene un DTE por su NumeroAutorizacion.
func (r *DocumentRepo) GetByAuthorization(ctx context.Context, authorization string) (*entity.IssuedDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fel_documents WHERE authorization_uuid = $1`
	d, err := scanDocument(r.q.QueryRow(ctx, query, authorization))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fel_document: %w", err)
	}
	return d, nil
}

// ListByIssuer lista los DTE de un emisor, más recientes primero.
func (r *DocumentRepo) ListByIssuer(ctx context.Context, nit string, limit, offset int) ([]*entity.IssuedDocument, error) {
	limit, offset = clampPage(limit, offset)
	query := `SELECT ` + documentColumns + ` FROM fel_documents
		WHERE issuer_nit = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, nit, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list fel_documents: %w", err)
	}
	defer rows.Close()
	var list []*entity.IssuedDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fel_document: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

func scanDocument(row pgx.Row) (*entity.IssuedDocument, error) {
	var d entity.IssuedDocument
	err := row.Scan(
		&d.ID, &d.IssuerNIT, &d.DocumentType, &d.Authorization, &d.Serie, &d.Number, &d.CertifiedAt,
		&d.GrandTotal, &d.TaxTotal, &d.XMLCertified, &d.Digest, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
