package entity

// TaxpayerSettings es la configuración del contribuyente emisor tal como la publica
// el portal FEL. Se obtiene una vez por sesión y se trata como instantánea de solo lectura.
type TaxpayerSettings struct {
	NIT            string
	Name           string
	VATAffiliation string // GEN, PEQ, EXE
	Branches       []Branch
	Phrases        []Phrase // frases obligatorias del emisor
	PhraseGroups   []PhraseGroup
	ErrorMessages  []ErrorMessage
	Incoterms      []Incoterm
	DocumentTypes  []string // tipos de DTE habilitados (vacío = sin restricción)
}

// Branch establecimiento del emisor.
type Branch struct {
	Number       int
	Name         string
	Street       string // calle o avenida
	HouseNumber  string
	Colony       string
	Zone         string
	Municipality string
	Department   string
}

// Phrase frase fiscal que acompaña al DTE.
type Phrase struct {
	Type     string // TipoFrase
	Scenario string // CodigoEscenario
	Text     string // texto a colocar en la representación gráfica
}

// PhraseGroup frases generales agrupadas por tipo.
type PhraseGroup struct {
	Type    string
	Phrases []Phrase
}

// ErrorMessage código de error del portal con su mensaje.
type ErrorMessage struct {
	Code    string
	Message string
}

// Incoterm término de comercio internacional del catálogo general.
type Incoterm struct {
	Code        string
	Description string
}

// Branch devuelve el primer establecimiento con el número indicado.
func (s *TaxpayerSettings) Branch(number int) (Branch, bool) {
	for _, b := range s.Branches {
		if b.Number == number {
			return b, true
		}
	}
	return Branch{}, false
}

// AvailablePhrases aplana las frases generales por código de escenario.
// Si el mismo escenario aparece en varios grupos, prevalece el último.
func (s *TaxpayerSettings) AvailablePhrases() map[string]Phrase {
	out := make(map[string]Phrase)
	for _, g := range s.PhraseGroups {
		for _, p := range g.Phrases {
			if p.Type == "" {
				p.Type = g.Type
			}
			out[p.Scenario] = p
		}
	}
	return out
}

// ErrorCodes devuelve el mapa código -> mensaje.
func (s *TaxpayerSettings) ErrorCodes() map[string]string {
	out := make(map[string]string, len(s.ErrorMessages))
	for _, m := range s.ErrorMessages {
		out[m.Code] = m.Message
	}
	return out
}

// AllowsDocumentType indica si el emisor puede emitir el tipo de DTE.
func (s *TaxpayerSettings) AllowsDocumentType(code string) bool {
	if len(s.DocumentTypes) == 0 {
		return true
	}
	for _, t := range s.DocumentTypes {
		if t == code {
			return true
		}
	}
	return false
}
