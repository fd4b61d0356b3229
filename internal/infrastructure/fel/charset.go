package fel

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// CharsetReader decodifica documentos declarados con otra codificación (ISO-8859-1,
// windows-1252, ...) a UTF-8. Se usa en encoding/xml y etree.
func CharsetReader(label string, input io.Reader) (io.Reader, error) {
	if strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return input, nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("fel: codificación no soportada %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("fel: codificación no soportada %q", label)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}
