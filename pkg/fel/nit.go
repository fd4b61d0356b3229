package fel

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidateNIT valida el dígito verificador de un NIT guatemalteco (módulo 11).
// taxID puede ser "2873365-7", "28733657" o terminar en "K". "CF" no es un NIT.
func ValidateNIT(taxID string) error {
	base, check, err := splitNIT(taxID)
	if err != nil {
		return err
	}
	expected, err := ComputeNITCheckDigit(base)
	if err != nil {
		return err
	}
	if check != expected {
		return fmt.Errorf("fel: dígito verificador del NIT inválido: esperado %c, recibido %c", expected, check)
	}
	return nil
}

// ComputeNITCheckDigit calcula el dígito verificador para la parte numérica del NIT.
// Los pesos van de len(base)+1 (primer dígito) hasta 2 (último dígito); residuo 10 se representa con 'K'.
func ComputeNITCheckDigit(base string) (byte, error) {
	if base == "" {
		return 0, fmt.Errorf("fel: NIT vacío")
	}
	var sum int
	weight := len(base) + 1
	for _, r := range base {
		if !unicode.IsDigit(r) {
			return 0, fmt.Errorf("fel: NIT contiene caracteres no numéricos: %q", base)
		}
		sum += int(r-'0') * weight
		weight--
	}
	r := (11 - sum%11) % 11
	if r == 10 {
		return 'K', nil
	}
	return byte('0' + r), nil
}

// IsFinalConsumer indica si el identificador corresponde a consumidor final.
func IsFinalConsumer(id string) bool {
	return strings.EqualFold(strings.TrimSpace(id), FinalConsumerID)
}

func splitNIT(taxID string) (string, byte, error) {
	var clean []byte
	for _, r := range strings.ToUpper(taxID) {
		if unicode.IsDigit(r) || r == 'K' {
			clean = append(clean, byte(r))
		}
	}
	if len(clean) < 2 {
		return "", 0, fmt.Errorf("fel: NIT debe tener al menos 2 caracteres, se encontraron %d", len(clean))
	}
	base := string(clean[:len(clean)-1])
	if strings.ContainsRune(base, 'K') {
		return "", 0, fmt.Errorf("fel: 'K' solo puede ser dígito verificador: %q", taxID)
	}
	return base, clean[len(clean)-1], nil
}
