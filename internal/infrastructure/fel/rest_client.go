package fel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/fel-api/internal/domain"
	"github.com/jhoicas/fel-api/internal/domain/entity"
)

// ── Endpoints ─────────────────────────────────────────────────────────────────

const (
	DefaultRESTBaseURL = "https://felav02.c.sat.gob.gt/fel-rest/rest"
	DefaultRefererURL  = "https://felav.c.sat.gob.gt/fel-web/privado/vistas/fel.jsf"

	EndpointSettings = "configuracion"
	EndpointProcess  = "procesar"
	EndpointSign     = "firmar"
	EndpointCertify  = "certificar"

	jsonContentType = "application/json;charset=UTF-8"
)

var endpointPaths = map[string]string{
	EndpointSettings: "/publico/configuracion",
	EndpointProcess:  "/publico/procesarDocumento",
	EndpointSign:     "/publico/firmarDocumento",
	EndpointCertify:  "/publico/certificarDocumento",
}

// ── Puerto (interfaz) ─────────────────────────────────────────────────────────

// GatewayDetail elemento de "detalle" en las respuestas del portal.
type GatewayDetail struct {
	Message string `json:"mensaje"`
}

// GatewayResponse respuesta de procesar/firmar/certificar.
type GatewayResponse struct {
	Status  int             `json:"estadoHttp"`
	Message string          `json:"mensaje"`
	Details []GatewayDetail `json:"detalle"`
	Raw     json.RawMessage `json:"-"`
}

// OK indica estadoHttp 200.
func (r *GatewayResponse) OK() bool { return r != nil && r.Status == http.StatusOK }

// FirstDetail mensaje del primer elemento de detalle ("" si no hay).
func (r *GatewayResponse) FirstDetail() string {
	if r == nil || len(r.Details) == 0 {
		return ""
	}
	return r.Details[0].Message
}

// FELGateway puerto de salida hacia el servicio REST de FEL.
// La sesión del portal (cookies, token) la resuelve quien construye la implementación.
type FELGateway interface {
	FetchSettings(ctx context.Context) (*entity.TaxpayerSettings, error)
	Process(ctx context.Context, req *Request) (*GatewayResponse, error)
	Sign(ctx context.Context, req *Request) (*GatewayResponse, error)
	Certify(ctx context.Context, signedXML string) (*GatewayResponse, error)
}

// Token credenciales de la aplicación "Nuevo DTE" obtenidas por la sesión del portal.
type Token struct {
	Nit   string
	Clave string
}

// Query token como parámetros de URL.
func (t Token) Query() url.Values {
	return url.Values{"Nit": {t.Nit}, "Clave": {t.Clave}}
}

// TokenProvider entrega el token vigente de la sesión.
type TokenProvider interface {
	Token(ctx context.Context) (Token, error)
}

// StaticToken token fijo (configuración o pruebas).
type StaticToken Token

// Token implementa TokenProvider.
func (s StaticToken) Token(context.Context) (Token, error) { return Token(s), nil }

// ── Implementación REST ───────────────────────────────────────────────────────

// RESTClient implementa FELGateway con JSON sobre HTTP.
type RESTClient struct {
	httpClient *http.Client
	baseURL    string
	referer    string
	tokens     TokenProvider
}

// RESTClientConfig parámetros del cliente.
type RESTClientConfig struct {
	BaseURL    string
	RefererURL string
	Timeout    time.Duration
	// HTTPClient permite inyectar el cliente con el cookie jar de la sesión.
	HTTPClient *http.Client
}

// NewRESTClient construye el cliente. Sin HTTPClient usa uno con el timeout indicado (60 s por defecto).
func NewRESTClient(cfg RESTClientConfig, tokens TokenProvider) *RESTClient {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultRESTBaseURL
	}
	referer := cfg.RefererURL
	if referer == "" {
		referer = DefaultRefererURL
	}
	return &RESTClient{httpClient: hc, baseURL: base, referer: referer, tokens: tokens}
}

var _ FELGateway = (*RESTClient)(nil)

// FetchSettings obtiene la configuración del contribuyente (/publico/configuracion/{nit}/{clave}).
func (c *RESTClient) FetchSettings(ctx context.Context) (*entity.TaxpayerSettings, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("fel: obtener token: %w", err)
	}
	suffix := "/" + url.PathEscape(tok.Nit) + "/" + url.PathEscape(tok.Clave)
	raw, err := c.send(ctx, http.MethodGet, EndpointSettings, suffix, nil, "", tok)
	if err != nil {
		return nil, err
	}
	var payload settingsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("fel: decodificar configuración: %w", err)
	}
	return payload.toEntity(), nil
}

// Process envía el documento a /publico/procesarDocumento.
func (c *RESTClient) Process(ctx context.Context, req *Request) (*GatewayResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("fel: %s: documento nulo", EndpointProcess)
	}
	return c.Post(ctx, EndpointProcess, req)
}

// Sign envía el documento (con frasePaso) a /publico/firmarDocumento.
func (c *RESTClient) Sign(ctx context.Context, req *Request) (*GatewayResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("fel: %s: documento nulo", EndpointSign)
	}
	return c.Post(ctx, EndpointSign, req)
}

// Certify envía el XML firmado tal cual a /publico/certificarDocumento.
func (c *RESTClient) Certify(ctx context.Context, signedXML string) (*GatewayResponse, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("fel: obtener token: %w", err)
	}
	raw, err := c.send(ctx, http.MethodPost, EndpointCertify, "", []byte(signedXML), jsonContentType, tok)
	if err != nil {
		return nil, err
	}
	return decodeGatewayResponse(EndpointCertify, raw)
}

// Post serializa payload como JSON y lo envía al endpoint indicado por nombre
// (procesar, firmar, certificar).
func (c *RESTClient) Post(ctx context.Context, endpoint string, payload any) (*GatewayResponse, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("fel: obtener token: %w", err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("fel: %s: serializar documento: %w", endpoint, err)
	}
	raw, err := c.send(ctx, http.MethodPost, endpoint, "", body, jsonContentType, tok)
	if err != nil {
		return nil, err
	}
	return decodeGatewayResponse(endpoint, raw)
}

// send arma y ejecuta la llamada. Un endpoint desconocido devuelve domain.ErrInvalidEndpoint.
func (c *RESTClient) send(ctx context.Context, method, endpoint, suffix string, body []byte, contentType string, tok Token) ([]byte, error) {
	path, ok := endpointPaths[endpoint]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidEndpoint, endpoint)
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+suffix, rdr)
	if err != nil {
		return nil, fmt.Errorf("fel: crear request: %w", err)
	}
	req.Header.Set("Accept", "application/json;charset=utf-8")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Referer", c.referer+"?"+tok.Query().Encode())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fel: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("fel: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20)) // max 8 MB
	if err != nil {
		return nil, fmt.Errorf("fel: leer respuesta: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("fel: %s respondió HTTP %d", endpoint, resp.StatusCode)
	}
	return raw, nil
}

func decodeGatewayResponse(endpoint string, raw []byte) (*GatewayResponse, error) {
	var out GatewayResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("fel: %s: respuesta no es JSON: %w", endpoint, err)
	}
	out.Raw = json.RawMessage(raw)
	return &out, nil
}

// ── Payload de configuración ──────────────────────────────────────────────────

type settingsPayload struct {
	Respuesta struct {
		NitEmisor         string `json:"nitEmisor"`
		InformacionEmisor struct {
			Nombre           string          `json:"nombre"`
			AfiliacionIVA    string          `json:"afiliacionIVA"`
			Establecimientos []branchPayload `json:"establecimientos"`
			Frases           []phrasePayload `json:"frases"`
		} `json:"informacionEmisor"`
		FrasesGenerales []struct {
			CodigoTipoFrase flexString      `json:"codigoTipoFrase"`
			Frases          []phrasePayload `json:"frases"`
		} `json:"frasesGenerales"`
		ContenidoMensajes struct {
			Contenido []struct {
				Codigo  flexString `json:"codigo"`
				Mensaje string     `json:"mensaje"`
			} `json:"Contenido"`
		} `json:"contenidoMensajes"`
		CatalogosGenerales struct {
			Incoterms []struct {
				Codigo      string `json:"codigo"`
				Descripcion string `json:"descripcion"`
			} `json:"incoterms"`
		} `json:"catalogosGenerales"`
		RestriccionDocumento []struct {
			Dte string `json:"dte"`
		} `json:"restriccionDocumento"`
	} `json:"respuesta"`
}

type branchPayload struct {
	Numero       flexString `json:"numero"`
	Nombre       string     `json:"nombre"`
	CalleAvenida string     `json:"calleAvenida"`
	NumeroCasa   string     `json:"numeroCasa"`
	Colonia      string     `json:"colonia"`
	Zona         flexString `json:"zona"`
	Municipio    string     `json:"municipio"`
	Departamento string     `json:"departamento"`
}

type phrasePayload struct {
	TipoFrase       flexString `json:"tipoFrase"`
	CodigoEscenario flexString `json:"codigoEscenario"`
	TextoAColocar   string     `json:"textoAColocar"`
}

func (p settingsPayload) toEntity() *entity.TaxpayerSettings {
	r := p.Respuesta
	out := &entity.TaxpayerSettings{
		NIT:            r.NitEmisor,
		Name:           r.InformacionEmisor.Nombre,
		VATAffiliation: r.InformacionEmisor.AfiliacionIVA,
	}
	for _, b := range r.InformacionEmisor.Establecimientos {
		n, _ := strconv.Atoi(string(b.Numero))
		out.Branches = append(out.Branches, entity.Branch{
			Number:       n,
			Name:         b.Nombre,
			Street:       b.CalleAvenida,
			HouseNumber:  b.NumeroCasa,
			Colony:       b.Colonia,
			Zone:         string(b.Zona),
			Municipality: b.Municipio,
			Department:   b.Departamento,
		})
	}
	for _, f := range r.InformacionEmisor.Frases {
		out.Phrases = append(out.Phrases, f.toEntity(""))
	}
	for _, g := range r.FrasesGenerales {
		group := entity.PhraseGroup{Type: string(g.CodigoTipoFrase)}
		for _, f := range g.Frases {
			group.Phrases = append(group.Phrases, f.toEntity(group.Type))
		}
		out.PhraseGroups = append(out.PhraseGroups, group)
	}
	for _, m := range r.ContenidoMensajes.Contenido {
		out.ErrorMessages = append(out.ErrorMessages, entity.ErrorMessage{Code: string(m.Codigo), Message: m.Mensaje})
	}
	for _, i := range r.CatalogosGenerales.Incoterms {
		out.Incoterms = append(out.Incoterms, entity.Incoterm{Code: i.Codigo, Description: i.Descripcion})
	}
	for _, d := range r.RestriccionDocumento {
		out.DocumentTypes = append(out.DocumentTypes, d.Dte)
	}
	return out
}

// toEntity usa groupType cuando la frase trae su tipo solo en el grupo.
func (p phrasePayload) toEntity(groupType string) entity.Phrase {
	t := string(p.TipoFrase)
	if groupType != "" {
		t = groupType
	}
	return entity.Phrase{Type: t, Scenario: string(p.CodigoEscenario), Text: p.TextoAColocar}
}

// flexString acepta números o strings JSON (el portal mezcla ambos para códigos).
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(strings.TrimSpace(string(b)))
	return nil
}
