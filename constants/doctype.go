package constants

import (
	"strings"
)

type DocType string

const (
	Invoice  DocType = "invoice"
	Delivery DocType = "delivery"
	Receipt  DocType = "receipt"
	Utility  DocType = "utility"
	Other    DocType = "other"
)

var allDocTypes = []DocType{
	Invoice,
	Delivery,
	Receipt,
	Utility,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allDocTypes))
	for i, dt := range allDocTypes {
		result[i] = string(dt)
	}
	return result
}

// Canonicalize maps a free-form label onto one of the known document types.
func Canonicalize(input string) (DocType, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]DocType{
		"bill":           Invoice,
		"statement":      Invoice,
		"credit note":    Invoice,
		"delivery note":  Delivery,
		"goods received": Delivery,
		"pod":            Delivery,
		"till receipt":   Receipt,
		"payment slip":   Receipt,
		"energy bill":    Utility,
		"utility bill":   Utility,
	}

	if dt, ok := synonyms[normalized]; ok {
		return dt, true
	}

	for _, dt := range allDocTypes {
		if normalized == string(dt) {
			return dt, true
		}
	}

	return Other, false
}
