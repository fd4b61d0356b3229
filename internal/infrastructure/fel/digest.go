package fel

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"

	"github.com/ucarion/c14n"
)

// CanonicalDigest SHA-256 en base64 del XML canonicalizado (C14N inclusivo).
// Dos documentos equivalentes con distinto formato producen el mismo digest.
func CanonicalDigest(data []byte) (string, error) {
	canonical, err := canonicalizeXML(data)
	if err != nil {
		return "", &ParseError{Err: err}
	}
	sum := sha256.Sum256(canonical)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func canonicalizeXML(data []byte) ([]byte, error) {
	data = bytes.TrimSpace(data)
	// C14N no incluye la declaración XML.
	if bytes.HasPrefix(data, []byte("<?xml")) {
		if end := bytes.Index(data, []byte("?>")); end >= 0 {
			data = bytes.TrimSpace(data[end+2:])
		}
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	dec.CharsetReader = CharsetReader
	return c14n.Canonicalize(dec)
}
