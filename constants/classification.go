package constants

import "strings"

// Classification is the categorical tag assigned to an extracted document.
type Classification string

// Stable values (these exact strings travel on the wire).
const (
	NeedsValidation Classification = "BUTUH_VALIDASI"
	InputVAT        Classification = "PPN_MASUKAN"
	OutputVAT       Classification = "PPN_KELUARAN"
)

var allClassifications = []Classification{
	NeedsValidation,
	InputVAT,
	OutputVAT,
}

// ClassificationStrings returns the classification values as plain strings,
// in a stable order, for schema enums and CLI help text.
func ClassificationStrings() []string {
	result := make([]string, len(allClassifications))
	for i, c := range allClassifications {
		result[i] = string(c)
	}
	return result
}

// CanonicalizeClassification maps loosely formatted input to a known
// classification. Unknown input falls back to NeedsValidation.
func CanonicalizeClassification(input string) (Classification, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(input))
	normalized = strings.ReplaceAll(normalized, " ", "_")

	synonyms := map[string]Classification{
		"MASUKAN":        InputVAT,
		"PAJAK_MASUKAN":  InputVAT,
		"KELUARAN":       OutputVAT,
		"PAJAK_KELUARAN": OutputVAT,
	}
	if c, ok := synonyms[normalized]; ok {
		return c, true
	}

	for _, c := range allClassifications {
		if normalized == string(c) {
			return c, true
		}
	}
	return NeedsValidation, false
}
