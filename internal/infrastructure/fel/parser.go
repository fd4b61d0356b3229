package fel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/beevik/etree"
)

// ErrMissingRoots el documento no contiene ni dte:SAT ni ds:Signature.
var ErrMissingRoots = errors.New("fel: el documento no contiene SAT ni Signature")

// ParseError el XML no está bien formado.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "fel: XML inválido: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// ParsedDocument DTE certificado, con cada sección normalizada por separado.
// Una sección ausente en el XML queda en nil y no aparece en el JSON.
type ParsedDocument struct {
	Version       string
	SAT           *Node // árbol completo de dte:SAT
	ClassDocument string
	DTEID         string
	Emission      *EmissionSection
	Certification *Node
	Signatures    []*SignatureSection
}

// EmissionSection dte:DatosEmision.
type EmissionSection struct {
	ID          string
	GeneralData *Node
	Issuer      *Node
	Receiver    *Node
	Phrases     *Node // {Frase: uno o varios}
	Items       *Node // {Item: uno o varios}
	Totals      *Node
	Complements *Node // {Complemento: uno o varios}
}

// SignatureSection un ds:Signature.
type SignatureSection struct {
	ID                     string
	CanonicalizationMethod *Node
	SignatureMethod        *Node
	References             []*Node
	SignatureValue         *Node
	KeyInfo                *Node
	Object                 *Node
}

// Items líneas del documento, una o varias.
func (d *ParsedDocument) Items() []*Node {
	if d.Emission == nil {
		return nil
	}
	return d.Emission.Items.Sequence("Item")
}

// Phrases frases del documento.
func (d *ParsedDocument) Phrases() []*Node {
	if d.Emission == nil {
		return nil
	}
	return d.Emission.Phrases.Sequence("Frase")
}

// Complements complementos del documento.
func (d *ParsedDocument) Complements() []*Node {
	if d.Emission == nil {
		return nil
	}
	return d.Emission.Complements.Sequence("Complemento")
}

// Authorization UUID de NumeroAutorizacion ("" si el documento no está certificado).
// Sin atributos Serie/Numero el valor llega como texto directo en lugar de nodo.
func (d *ParsedDocument) Authorization() string {
	v, _ := d.Certification.Get("NumeroAutorizacion")
	switch a := v.(type) {
	case Text:
		return string(a)
	case *Node:
		return a.Text("NumeroAutorizacion")
	}
	return ""
}

// Tree árbol normalizado de todo el documento; es lo que se serializa a JSON.
func (d *ParsedDocument) Tree() *Node {
	root := NewNode()
	setText(root, "Version", d.Version)
	setText(root, "ClaseDocumento", d.ClassDocument)
	setText(root, "ID", d.DTEID)
	if d.SAT != nil {
		root.Set("SAT", d.SAT)
	}
	if e := d.Emission; e != nil {
		n := NewNode()
		setText(n, "ID", e.ID)
		setNode(n, "DatosGenerales", e.GeneralData)
		setNode(n, "Emisor", e.Issuer)
		setNode(n, "Receptor", e.Receiver)
		setNode(n, "Frases", e.Phrases)
		setNode(n, "Items", e.Items)
		setNode(n, "Totales", e.Totals)
		setNode(n, "Complementos", e.Complements)
		root.Set("DatosEmision", n)
	}
	setNode(root, "Certificacion", d.Certification)
	if len(d.Signatures) > 0 {
		sigs := make([]*Node, 0, len(d.Signatures))
		for _, s := range d.Signatures {
			sigs = append(sigs, s.tree())
		}
		root.Set("Signature", oneOrMany(sigs))
	}
	return root
}

func (s *SignatureSection) tree() *Node {
	n := NewNode()
	setText(n, "Id", s.ID)
	si := NewNode()
	setNode(si, "CanonicalizationMethod", s.CanonicalizationMethod)
	setNode(si, "SignatureMethod", s.SignatureMethod)
	if len(s.References) > 0 {
		si.Set("Reference", oneOrMany(s.References))
	}
	n.Set("SignedInfo", si)
	setNode(n, "SignatureValue", s.SignatureValue)
	setNode(n, "KeyInfo", s.KeyInfo)
	setNode(n, "Object", s.Object)
	return n
}

// MarshalJSON serializa el documento con la forma del árbol normalizado.
func (d *ParsedDocument) MarshalJSON() ([]byte, error) {
	return d.Tree().MarshalJSON()
}

// Parser lee DTE certificados devueltos por la SAT.
type Parser struct{}

// NewParser crea el parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile lee y parsea un archivo XML.
func (p *Parser) ParseFile(path string) (*ParsedDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fel: leer %s: %w", path, err)
	}
	return p.Parse(raw)
}

// ParseString parsea el XML recibido como texto.
func (p *Parser) ParseString(s string) (*ParsedDocument, error) {
	return p.Parse([]byte(s))
}

// ParseJSON parsea el XML y devuelve el mismo árbol serializado como JSON.
func (p *Parser) ParseJSON(raw []byte) ([]byte, error) {
	doc, err := p.Parse(raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Parse parsea el XML. Un XML mal formado devuelve *ParseError sin árbol parcial.
func (p *Parser) Parse(raw []byte) (*ParsedDocument, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, &ParseError{Err: errors.New("documento vacío")}
	}
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = CharsetReader
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, &ParseError{Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &ParseError{Err: errors.New("documento sin elemento raíz")}
	}

	sat := findChild(root, "SAT", isDTENamespace)
	sigs := findChildren(root, "Signature", func(ns string) bool { return ns == NsDs })
	if sat == nil && len(sigs) == 0 {
		return nil, ErrMissingRoots
	}

	out := &ParsedDocument{Version: root.SelectAttrValue("Version", "")}
	if sat != nil {
		if err := parseSAT(sat, out); err != nil {
			return nil, err
		}
	}
	for _, s := range sigs {
		sec, err := parseSignature(s)
		if err != nil {
			return nil, err
		}
		out.Signatures = append(out.Signatures, sec)
	}
	return out, nil
}

func parseSAT(sat *etree.Element, out *ParsedDocument) error {
	var err error
	if out.SAT, err = Normalize(sat); err != nil {
		return err
	}
	out.ClassDocument = sat.SelectAttrValue("ClaseDocumento", "")

	dte := findChild(sat, "DTE", isDTENamespace)
	if dte == nil {
		return nil
	}
	out.DTEID = dte.SelectAttrValue("ID", "")

	if de := findChild(dte, "DatosEmision", isDTENamespace); de != nil {
		e := &EmissionSection{ID: de.SelectAttrValue("ID", "")}
		for tag, dst := range map[string]**Node{
			"DatosGenerales": &e.GeneralData,
			"Emisor":         &e.Issuer,
			"Receptor":       &e.Receiver,
			"Frases":         &e.Phrases,
			"Items":          &e.Items,
			"Totales":        &e.Totals,
		} {
			if *dst, err = normalizeChild(de, tag); err != nil {
				return err
			}
		}
		if comps := findChild(de, "Complementos", isDTENamespace); comps != nil {
			nodes := make([]*Node, 0)
			for _, c := range findChildren(comps, "Complemento", isDTENamespace) {
				n, err := Normalize(c, AnyNamespace())
				if err != nil {
					return err
				}
				nodes = append(nodes, n)
			}
			e.Complements = NewNode()
			if len(nodes) > 0 {
				e.Complements.Set("Complemento", oneOrMany(nodes))
			}
		}
		out.Emission = e
	}

	out.Certification, err = normalizeChild(dte, "Certificacion")
	return err
}

func parseSignature(sig *etree.Element) (*SignatureSection, error) {
	s := &SignatureSection{ID: sig.SelectAttrValue("Id", "")}
	var err error
	if si := findChild(sig, "SignedInfo", isDsNamespace); si != nil {
		if s.CanonicalizationMethod, err = normalizeChild(si, "CanonicalizationMethod"); err != nil {
			return nil, err
		}
		if s.SignatureMethod, err = normalizeChild(si, "SignatureMethod"); err != nil {
			return nil, err
		}
		for _, r := range findChildren(si, "Reference", isDsNamespace) {
			n, err := Normalize(r)
			if err != nil {
				return nil, err
			}
			s.References = append(s.References, n)
		}
	}
	if s.SignatureValue, err = normalizeChild(sig, "SignatureValue"); err != nil {
		return nil, err
	}
	if s.KeyInfo, err = normalizeChild(sig, "KeyInfo"); err != nil {
		return nil, err
	}
	if obj := findChild(sig, "Object", isDsNamespace); obj != nil {
		if s.Object, err = Normalize(obj, AnyNamespace()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// normalizeChild normaliza el primer hijo con la etiqueta dada en el namespace del padre.
func normalizeChild(parent *etree.Element, tag string) (*Node, error) {
	ns := parent.NamespaceURI()
	c := findChild(parent, tag, func(uri string) bool { return uri == ns })
	if c == nil {
		return nil, nil
	}
	return Normalize(c)
}

func findChild(parent *etree.Element, tag string, nsOK func(string) bool) *etree.Element {
	for _, c := range parent.ChildElements() {
		if c.Tag == tag && nsOK(c.NamespaceURI()) {
			return c
		}
	}
	return nil
}

func findChildren(parent *etree.Element, tag string, nsOK func(string) bool) []*etree.Element {
	var out []*etree.Element
	for _, c := range parent.ChildElements() {
		if c.Tag == tag && nsOK(c.NamespaceURI()) {
			out = append(out, c)
		}
	}
	return out
}

func isDTENamespace(uri string) bool { return strings.HasPrefix(uri, NsDTEBase) }

func isDsNamespace(uri string) bool { return uri == NsDs }

// oneOrMany aplica la regla de cardinalidad: una ocurrencia es el nodo, varias una lista.
func oneOrMany(nodes []*Node) Value {
	if len(nodes) == 1 {
		return nodes[0]
	}
	l := make(List, 0, len(nodes))
	for _, n := range nodes {
		l = append(l, n)
	}
	return l
}

func setText(n *Node, key, v string) {
	if v != "" {
		n.Set(key, Text(v))
	}
}

func setNode(n *Node, key string, v *Node) {
	if v != nil {
		n.Set(key, v)
	}
}
