package dte

import (
	"context"
	"fmt"

	"github.com/jhoicas/fel-api/internal/domain"
	"github.com/jhoicas/fel-api/internal/domain/entity"
	"github.com/jhoicas/fel-api/internal/domain/repository"
	infrafel "github.com/jhoicas/fel-api/internal/infrastructure/fel"
)

// DocumentService lectura de DTE certificados: parseo de XML recibido y consulta de los guardados.
type DocumentService struct {
	parser *infrafel.Parser
	repo   repository.DocumentRepository
}

// NewDocumentService construye el servicio. repo puede ser nil (solo parseo).
func NewDocumentService(parser *infrafel.Parser, repo repository.DocumentRepository) *DocumentService {
	if parser == nil {
		parser = infrafel.NewParser()
	}
	return &DocumentService{parser: parser, repo: repo}
}

// Parse normaliza un DTE certificado.
func (s *DocumentService) Parse(raw []byte) (*infrafel.ParsedDocument, error) {
	return s.parser.Parse(raw)
}

// StoredDocument DTE guardado junto con su árbol normalizado.
type StoredDocument struct {
	Record *entity.IssuedDocument
	Parsed *infrafel.ParsedDocument
}

// Get busca un DTE por NumeroAutorizacion y lo parsea. domain.ErrNotFound si no existe.
func (s *DocumentService) Get(ctx context.Context, authorization string) (*StoredDocument, error) {
	if s.repo == nil {
		return nil, domain.ErrNotFound
	}
	rec, err := s.repo.GetByAuthorization(ctx, authorization)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	parsed, err := s.parser.ParseString(rec.XMLCertified)
	if err != nil {
		return nil, fmt.Errorf("dte: XML guardado de %s: %w", authorization, err)
	}
	return &StoredDocument{Record: rec, Parsed: parsed}, nil
}

// List DTE guardados de un emisor.
func (s *DocumentService) List(ctx context.Context, nit string, limit, offset int) ([]*entity.IssuedDocument, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListByIssuer(ctx, nit, limit, offset)
}
