package fel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Value valor normalizado de una clave: Text, *Node o List.
type Value interface {
	isValue()
}

// Text contenido de un elemento sin atributos ni hijos.
type Text string

// List ocurrencias repetidas de una misma etiqueta, en orden de documento.
type List []Value

func (Text) isValue()  {}
func (*Node) isValue() {}
func (List) isValue()  {}

// Node mapa ordenado nombre -> valor resultado de normalizar un elemento XML.
type Node struct {
	keys   []string
	values map[string]Value
}

// NewNode crea un nodo vacío.
func NewNode() *Node {
	return &Node{values: make(map[string]Value)}
}

// Set agrega o reemplaza una clave conservando la posición original.
func (n *Node) Set(key string, v Value) {
	if _, ok := n.values[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.values[key] = v
}

// Get devuelve el valor de la clave.
func (n *Node) Get(key string) (Value, bool) {
	if n == nil {
		return nil, false
	}
	v, ok := n.values[key]
	return v, ok
}

// Has indica si la clave existe.
func (n *Node) Has(key string) bool {
	_, ok := n.Get(key)
	return ok
}

// Keys claves en orden de inserción (atributos primero, luego hijos).
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	return append([]string(nil), n.keys...)
}

// Len número de claves.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.keys)
}

// Text devuelve el texto de la clave; "" si no existe o no es texto.
func (n *Node) Text(key string) string {
	v, _ := n.Get(key)
	if t, ok := v.(Text); ok {
		return string(t)
	}
	return ""
}

// Child devuelve el nodo de la clave. Si la clave se repitió devuelve la primera ocurrencia.
func (n *Node) Child(key string) *Node {
	seq := n.Sequence(key)
	if len(seq) == 0 {
		return nil
	}
	return seq[0]
}

// Sequence devuelve las ocurrencias de la clave como secuencia ordenada de nodos,
// sin importar si el documento trajo una o varias.
func (n *Node) Sequence(key string) []*Node {
	v, ok := n.Get(key)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case *Node:
		return []*Node{t}
	case List:
		out := make([]*Node, 0, len(t))
		for _, e := range t {
			if c, ok := e.(*Node); ok {
				out = append(out, c)
			}
		}
		return out
	}
	return nil
}

// MarshalJSON serializa el nodo como objeto respetando el orden de las claves.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range n.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(n.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// KeyCollisionError un atributo y un hijo (o el texto propio) comparten nombre.
type KeyCollisionError struct {
	Element string
	Key     string
}

func (e *KeyCollisionError) Error() string {
	return fmt.Sprintf("fel: colisión de clave %q en <%s>", e.Key, e.Element)
}

type normalizeOptions struct {
	namespace string
	any       bool
}

// NormalizeOption ajusta qué hijos se toman en cuenta.
type NormalizeOption func(*normalizeOptions)

// InNamespace considera solo los hijos del namespace indicado (en el primer nivel;
// los niveles inferiores usan el namespace de su propio elemento).
func InNamespace(uri string) NormalizeOption {
	return func(o *normalizeOptions) { o.namespace = uri; o.any = false }
}

// AnyNamespace considera los hijos de cualquier namespace en todos los niveles.
func AnyNamespace() NormalizeOption {
	return func(o *normalizeOptions) { o.any = true }
}

// Normalize convierte un elemento en un Node: primero sus atributos y luego sus hijos.
// Por defecto solo se consideran hijos del mismo namespace que el elemento.
func Normalize(el *etree.Element, opts ...NormalizeOption) (*Node, error) {
	if el == nil {
		return nil, fmt.Errorf("fel: elemento nulo")
	}
	o := normalizeOptions{namespace: el.NamespaceURI()}
	for _, fn := range opts {
		fn(&o)
	}
	return normalize(el, o, true)
}

// normalize arma el nodo del elemento. En la raíz (section=true) el texto de un elemento
// sin hijos se guarda siempre bajo su propia etiqueta; en niveles inferiores solo si
// además tiene atributos, porque si no childValue lo devuelve como Text.
func normalize(el *etree.Element, o normalizeOptions, section bool) (*Node, error) {
	n := NewNode()
	attrs := attributes(el)
	for _, a := range attrs {
		n.Set(a.Key, Text(a.Value))
	}

	children := filterChildren(el, o)
	if len(children) == 0 {
		if txt := leafText(el); txt != "" && (section || len(attrs) > 0) {
			if n.Has(el.Tag) {
				return nil, &KeyCollisionError{Element: el.Tag, Key: el.Tag}
			}
			n.Set(el.Tag, Text(txt))
		}
		return n, nil
	}

	for _, c := range children {
		v, err := childValue(c, o)
		if err != nil {
			return nil, err
		}
		prev, exists := n.values[c.Tag]
		switch {
		case !exists:
			n.Set(c.Tag, v)
		case isAttribute(attrs, c.Tag):
			return nil, &KeyCollisionError{Element: el.Tag, Key: c.Tag}
		default:
			if l, ok := prev.(List); ok {
				n.values[c.Tag] = append(l, v)
			} else {
				n.values[c.Tag] = List{prev, v}
			}
		}
	}
	return n, nil
}

func childValue(c *etree.Element, o normalizeOptions) (Value, error) {
	if len(attributes(c)) == 0 && len(filterChildren(c, childOptions(c, o))) == 0 {
		return Text(leafText(c)), nil
	}
	return normalize(c, childOptions(c, o), false)
}

// leafText texto del elemento tal cual; "" si solo tiene espacios en blanco.
func leafText(el *etree.Element) string {
	txt := el.Text()
	if strings.TrimSpace(txt) == "" {
		return ""
	}
	return txt
}

func childOptions(c *etree.Element, o normalizeOptions) normalizeOptions {
	if o.any {
		return o
	}
	return normalizeOptions{namespace: c.NamespaceURI()}
}

func filterChildren(el *etree.Element, o normalizeOptions) []*etree.Element {
	all := el.ChildElements()
	if o.any {
		return all
	}
	out := make([]*etree.Element, 0, len(all))
	for _, c := range all {
		if c.NamespaceURI() == o.namespace {
			out = append(out, c)
		}
	}
	return out
}

// attributes atributos propios del elemento: sin declaraciones xmlns ni atributos con prefijo.
func attributes(el *etree.Element) []etree.Attr {
	out := make([]etree.Attr, 0, len(el.Attr))
	for _, a := range el.Attr {
		if a.Space != "" || a.Key == "xmlns" {
			continue
		}
		out = append(out, a)
	}
	return out
}

func isAttribute(attrs []etree.Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}
