package canonical

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	fallbackSupplierPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b([A-Z][A-Z \t&.]+(?:LTD|LIMITED|INC|CORP|LLC|CO|COMPANY))\b`),
		regexp.MustCompile(`(?im)^(?:from|supplier|company):[ \t]*([A-Za-z \t&.]+)`),
		regexp.MustCompile(`(?i)\b([A-Z][A-Z \t&.]{3,20})\s+(?:invoice|delivery|receipt)`),
	}
	fallbackInvoiceNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:invoice|inv)[ \t]*(?:number|no|num)?[ \t]*[#:]?[ \t]*([A-Za-z]*[\-_/]?\d[A-Za-z0-9\-_/]*)\b`),
		regexp.MustCompile(`\b(INV[0-9\-_/]{3,20})\b`),
		regexp.MustCompile(`\b([A-Z]{2,4}[0-9]{3,8})\b`),
	}
	fallbackDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:date|dated|invoice date)[ \t]*:?[ \t]*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})\b`),
		regexp.MustCompile(`\b(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})\b`),
		regexp.MustCompile(`\b(\d{4}[/\-.]\d{1,2}[/\-.]\d{1,2})\b`),
	}
	fallbackTotalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:grand total|final total)[ \t]*:?[ \t]*[£$€]?[ \t]*([\d,]+\.?\d*)\b`),
		regexp.MustCompile(`(?i)\b(?:total|amount|sum|due)[ \t]*:?[ \t]*[£$€]?[ \t]*([\d,]+\.?\d*)\b`),
		regexp.MustCompile(`(?i)[£$€][ \t]*([\d,]+\.?\d*)[ \t]*(?:total|amount)`),
	}
	fallbackCurrencySymbol = regexp.MustCompile(`[£$€]`)
	fallbackCurrencyWord   = regexp.MustCompile(`(?i)\b(gbp|pounds?|eur|euros?|usd|dollars?)\b`)
)

// fallbackResult holds the rule-based extraction output with per-field
// confidences for every field a pattern actually matched.
type fallbackResult struct {
	SupplierName    string
	InvoiceNumber   string
	InvoiceDate     string
	Currency        string
	Total           float64
	FieldConfidence map[string]float64
}

// extractWithRules runs the rule-based field extraction used when the parser
// service is unavailable or rejects the text. It never fails; unmatched
// fields stay zero-valued with no confidence entry.
func extractWithRules(text, defaultCurrency string) fallbackResult {
	res := fallbackResult{
		Currency:        defaultCurrency,
		FieldConfidence: map[string]float64{},
	}

	for _, re := range fallbackSupplierPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			res.SupplierName = strings.TrimSpace(m[1])
			res.FieldConfidence["supplier_name"] = 0.8
			break
		}
	}
	for _, re := range fallbackInvoiceNumberPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			res.InvoiceNumber = m[1]
			res.FieldConfidence["invoice_number"] = 0.8
			break
		}
	}
	for _, re := range fallbackDatePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			res.InvoiceDate = m[1]
			res.FieldConfidence["invoice_date"] = 0.7
			break
		}
	}
	for _, re := range fallbackTotalPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
			if err != nil {
				continue
			}
			res.Total = amount
			res.FieldConfidence["total"] = 0.8
			break
		}
	}
	if cur := detectCurrency(text); cur != "" {
		res.Currency = cur
	}

	return res
}

func detectCurrency(text string) string {
	if m := fallbackCurrencySymbol.FindString(text); m != "" {
		switch m {
		case "£":
			return "GBP"
		case "$":
			return "USD"
		case "€":
			return "EUR"
		}
	}
	if m := fallbackCurrencyWord.FindString(text); m != "" {
		switch strings.TrimSuffix(strings.ToLower(m), "s") {
		case "gbp", "pound":
			return "GBP"
		case "eur", "euro":
			return "EUR"
		case "usd", "dollar":
			return "USD"
		}
	}
	return ""
}
