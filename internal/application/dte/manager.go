// Package dte orquesta la emisión de DTE contra el portal FEL de la SAT:
//
//	validar → ensamblar → procesar → firmar (frasePaso) → certificar → guardar
//
// La configuración del contribuyente se descarga al crear el Manager y se mantiene
// como instantánea de solo lectura hasta el siguiente Refresh.
package dte

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fel-api/internal/domain"
	"github.com/jhoicas/fel-api/internal/domain/entity"
	domainfel "github.com/jhoicas/fel-api/internal/domain/fel"
	"github.com/jhoicas/fel-api/internal/domain/repository"
	infrafel "github.com/jhoicas/fel-api/internal/infrastructure/fel"
	"github.com/jhoicas/fel-api/pkg/logger"
)

// Pasos de emisión (campo "step" en logs y en domain.DteError).
const (
	StepProcess = "procesar"
	StepSign    = "firmar"
	StepCertify = "certificar"
)

// Config parámetros de emisión.
type Config struct {
	Password    string // frasePaso
	XMLIndent   int    // sangría de la vista previa
	SaveTimeout time.Duration
}

// Manager caso de uso de emisión y consulta de catálogos del contribuyente.
type Manager struct {
	gateway   infrafel.FELGateway
	assembler *infrafel.Assembler
	builder   *infrafel.XMLBuilderService
	repo      repository.DocumentRepository // nil = no se guardan los DTE
	cfg       Config
	log       *logger.Logger

	mu       sync.RWMutex
	settings *entity.TaxpayerSettings
}

// NewManager construye el Manager y descarga la configuración del contribuyente.
func NewManager(
	ctx context.Context,
	gateway infrafel.FELGateway,
	assembler *infrafel.Assembler,
	repo repository.DocumentRepository,
	cfg Config,
	log *logger.Logger,
) (*Manager, error) {
	if gateway == nil || assembler == nil {
		return nil, errors.New("dte: gateway y assembler son obligatorios")
	}
	if log == nil {
		log = logger.Nop()
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 10 * time.Second
	}
	m := &Manager{
		gateway:   gateway,
		assembler: assembler,
		builder:   infrafel.NewXMLBuilderService(cfg.XMLIndent),
		repo:      repo,
		cfg:       cfg,
		log:       log.Component("dte"),
	}
	if err := m.Refresh(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Refresh vuelve a descargar la configuración y reemplaza la instantánea.
func (m *Manager) Refresh(ctx context.Context) error {
	s, err := m.gateway.FetchSettings(ctx)
	if err != nil {
		return fmt.Errorf("dte: obtener configuración: %w", err)
	}
	if s == nil {
		return domain.ErrNoSettings
	}
	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()
	m.log.Info().Str("nit", s.NIT).Int("establecimientos", len(s.Branches)).Msg("configuración del contribuyente cargada")
	return nil
}

// Taxpayer instantánea completa de la configuración.
func (m *Manager) Taxpayer() (*entity.TaxpayerSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return nil, domain.ErrNoSettings
	}
	return m.settings, nil
}

// DocumentTypes tipos de DTE habilitados.
func (m *Manager) DocumentTypes() ([]string, error) {
	s, err := m.Taxpayer()
	if err != nil {
		return nil, err
	}
	return s.DocumentTypes, nil
}

// Branches establecimientos del emisor.
func (m *Manager) Branches() ([]entity.Branch, error) {
	s, err := m.Taxpayer()
	if err != nil {
		return nil, err
	}
	return s.Branches, nil
}

// Phrases frases obligatorias del emisor.
func (m *Manager) Phrases() ([]entity.Phrase, error) {
	s, err := m.Taxpayer()
	if err != nil {
		return nil, err
	}
	return s.Phrases, nil
}

// ErrorCodes mapa código -> mensaje del portal.
func (m *Manager) ErrorCodes() (map[string]string, error) {
	s, err := m.Taxpayer()
	if err != nil {
		return nil, err
	}
	return s.ErrorCodes(), nil
}

// AvailablePhrases frases generales aplanadas por escenario, ordenadas por código.
func (m *Manager) AvailablePhrases() ([]entity.Phrase, error) {
	s, err := m.Taxpayer()
	if err != nil {
		return nil, err
	}
	byScenario := s.AvailablePhrases()
	out := make([]entity.Phrase, 0, len(byScenario))
	for _, p := range byScenario {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Scenario < out[j].Scenario })
	return out, nil
}

// Incoterms catálogo general de incoterms.
func (m *Manager) Incoterms() ([]entity.Incoterm, error) {
	s, err := m.Taxpayer()
	if err != nil {
		return nil, err
	}
	return s.Incoterms, nil
}

// Preview resultado de ensamblar sin enviar a la SAT.
type Preview struct {
	Request *infrafel.Request
	XML     string
}

// Preview valida y ensambla el documento y genera su XML, sin llamadas al portal.
func (m *Manager) Preview(in domainfel.InvoiceInput) (*Preview, error) {
	req, err := m.prepare(in)
	if err != nil {
		return nil, err
	}
	raw, err := m.builder.Build(req)
	if err != nil {
		return nil, err
	}
	return &Preview{Request: req, XML: string(raw)}, nil
}

// IssueResult resultado de una emisión certificada.
type IssueResult struct {
	XML           string // XML firmado enviado a certificar
	Signing       *infrafel.GatewayResponse
	Certification *infrafel.GatewayResponse
	Summary       *infrafel.CertificationSummary
	Document      *entity.IssuedDocument
	Stored        bool
}

// Issue emite el DTE: procesar → firmar → certificar. Un estadoHttp distinto de 200
// en cualquier paso devuelve *domain.DteError con el mensaje de la SAT.
func (m *Manager) Issue(ctx context.Context, in domainfel.InvoiceInput) (*IssueResult, error) {
	req, err := m.prepare(in)
	if err != nil {
		return nil, err
	}

	// 1. Procesar
	resp, err := m.gateway.Process(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("dte: %s: %w", StepProcess, err)
	}
	if err := m.checkStep(StepProcess, resp); err != nil {
		return nil, err
	}

	// 2. Firmar
	req.FrasePaso = m.cfg.Password
	signing, err := m.gateway.Sign(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("dte: %s: %w", StepSign, err)
	}
	if err := m.checkStep(StepSign, signing); err != nil {
		return nil, err
	}
	signedXML := signing.FirstDetail()
	if signedXML == "" {
		return nil, &domain.DteError{Step: StepSign, Status: signing.Status, Message: "la SAT no devolvió el XML firmado"}
	}

	// 3. Certificar
	cert, err := m.gateway.Certify(ctx, signedXML)
	if err != nil {
		return nil, fmt.Errorf("dte: %s: %w", StepCertify, err)
	}
	if err := m.checkStep(StepCertify, cert); err != nil {
		return nil, err
	}

	out := &IssueResult{XML: signedXML, Signing: signing, Certification: cert}
	certifiedXML := cert.FirstDetail()
	if certifiedXML == "" {
		m.log.Warn().Str("step", StepCertify).Msg("certificación sin XML en detalle; no se guarda el documento")
		return out, nil
	}

	// El DTE ya está certificado: si el detalle no se puede leer se devuelve la
	// respuesta de la SAT sin resumen ni guardado, nunca un error.
	summary, err := infrafel.ExtractCertification([]byte(certifiedXML))
	if err != nil {
		m.log.Warn().Err(err).Str("step", StepCertify).Msg("detalle de certificación ilegible; no se guarda el documento")
		return out, nil
	}
	out.Summary = summary
	m.log.Info().Str("step", StepCertify).Str("autorizacion", summary.Authorization).
		Str("serie", summary.Serie).Str("numero", summary.Numero).Msg("DTE certificado")

	doc, err := issuedDocument(summary, certifiedXML)
	if err != nil {
		return nil, err
	}
	out.Document = doc
	out.Stored = m.save(ctx, doc)
	return out, nil
}

func (m *Manager) prepare(in domainfel.InvoiceInput) (*infrafel.Request, error) {
	s, err := m.Taxpayer()
	if err != nil {
		return nil, err
	}
	if err := domainfel.ValidateInvoice(in, s); err != nil {
		return nil, err
	}
	return m.assembler.Assemble(in, s)
}

func (m *Manager) checkStep(step string, resp *infrafel.GatewayResponse) error {
	if resp == nil {
		return &domain.DteError{Step: step, Message: "respuesta vacía de la SAT"}
	}
	m.log.Debug().Str("step", step).Int("estado_http", resp.Status).Msg("respuesta FEL")
	if resp.OK() {
		return nil
	}
	msg := resp.Message
	if msg == "" {
		msg = resp.FirstDetail()
	}
	m.log.Warn().Str("step", step).Int("estado_http", resp.Status).Str("mensaje", msg).Msg("SAT rechazó el documento")
	return &domain.DteError{Step: step, Status: resp.Status, Message: msg}
}

// save guarda el DTE certificado. Un fallo no invalida la certificación ya obtenida.
func (m *Manager) save(ctx context.Context, doc *entity.IssuedDocument) bool {
	if m.repo == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.SaveTimeout)
	defer cancel()
	if err := m.repo.Save(ctx, doc); err != nil {
		ev := m.log.Error()
		if errors.Is(err, domain.ErrDuplicate) {
			ev = m.log.Warn()
		}
		ev.Err(err).Str("autorizacion", doc.Authorization).Msg("no se pudo guardar el DTE certificado")
		return false
	}
	return true
}

func issuedDocument(s *infrafel.CertificationSummary, certifiedXML string) (*entity.IssuedDocument, error) {
	digest, err := infrafel.CanonicalDigest([]byte(certifiedXML))
	if err != nil {
		return nil, fmt.Errorf("dte: digest del XML certificado: %w", err)
	}
	return &entity.IssuedDocument{
		IssuerNIT:     s.IssuerNIT,
		DocumentType:  s.DocumentType,
		Authorization: s.Authorization,
		Serie:         s.Serie,
		Number:        s.Numero,
		CertifiedAt:   s.CertifiedAt,
		GrandTotal:    decimalOrZero(s.GrandTotal),
		TaxTotal:      decimalOrZero(s.TaxTotal),
		XMLCertified:  certifiedXML,
		Digest:        digest,
	}, nil
}

func decimalOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
