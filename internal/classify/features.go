package classify

import (
	"regexp"
	"strings"

	"github.com/owlin/docintake/constants"
	"github.com/owlin/docintake/internal/entity"
)

var (
	reInvoiceNumber = regexp.MustCompile(`(?i)\b(?:invoice|inv)[ \t]*(?:number|no|num)?[ \t]*[#:]?[ \t]*([A-Za-z]*[\-_/]?\d[A-Za-z0-9\-_/]*)\b`)
	reInvoiceDate   = regexp.MustCompile(`(?i)\b(?:date|dated|invoice date)[ \t]*:?[ \t]*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})\b`)
	reTotalAmount   = regexp.MustCompile(`(?i)\b(?:total|amount|sum|due)[ \t]*:?[ \t]*[£$€]?[ \t]*([\d,]+\.?\d*)\b`)
	reSupplier      = regexp.MustCompile(`\b([A-Z][A-Z \t&.]+(?:LTD|LIMITED|INC|CORP|LLC|CO|COMPANY))\b`)
	reCurrency      = regexp.MustCompile(`[£$€]\s*[\d,]+\.?\d*`)
	reNumber        = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
	reDate          = regexp.MustCompile(`\b\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}\b`)
)

var docTypeKeywords = map[constants.DocType][]string{
	constants.Invoice: {
		"invoice", "bill", "statement", "account", "payment due",
		"invoice number", "invoice date", "billing", "amount due",
		"total due", "balance", "outstanding", "invoice to", "bill to",
	},
	constants.Delivery: {
		"delivery note", "goods received", "pod", "delivery date",
		"received by", "signature", "delivery address", "delivered to",
		"quantity received", "received quantity", "delivery reference",
	},
	constants.Receipt: {
		"receipt", "payment received", "thank you for your payment",
		"transaction", "purchase", "sale", "cash register", "register",
		"payment confirmation", "transaction receipt", "payment slip",
	},
	constants.Utility: {
		"energy", "kwh", "standing charge", "gas", "electricity", "utility",
		"meter reading", "consumption", "usage", "energy supplier",
		"electric supplier", "gas supplier", "water", "sewerage",
	},
}

var tableIndicators = []string{"qty", "quantity", "description", "unit", "price", "amount", "total"}

// Features holds the signals the heuristic scorer and the optional trained
// model consume for one page.
type Features struct {
	TextLength int
	TextLines  int
	TextWords  int

	KeywordHits map[constants.DocType]int

	InvoiceNumberCount int
	InvoiceDateCount   int
	TotalAmountCount   int
	SupplierCount      int
	CurrencyCount      int
	NumberCount        int
	DateCount          int

	TableDensity float64
	AspectRatio  float64

	IsReceiptShape   bool
	HasHeaderKeyword bool
	HasFooterKeyword bool
}

// ExtractFeatures derives classification signals from the page text plus the
// dimensional features of its fingerprint.
func ExtractFeatures(text string, fp entity.PageFingerprint) Features {
	lower := strings.ToLower(text)

	f := Features{
		TextLength:  len(text),
		TextLines:   len(strings.Split(text, "\n")),
		TextWords:   len(strings.Fields(text)),
		KeywordHits: make(map[constants.DocType]int, len(docTypeKeywords)),
		AspectRatio: fp.AspectRatio,
	}
	if f.AspectRatio == 0 {
		f.AspectRatio = 1.0
	}

	for docType, keywords := range docTypeKeywords {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		f.KeywordHits[docType] = hits
	}

	f.InvoiceNumberCount = len(reInvoiceNumber.FindAllString(text, -1))
	f.InvoiceDateCount = len(reInvoiceDate.FindAllString(text, -1))
	f.TotalAmountCount = len(reTotalAmount.FindAllString(text, -1))
	f.SupplierCount = len(reSupplier.FindAllString(text, -1))
	f.CurrencyCount = len(reCurrency.FindAllString(text, -1))
	f.NumberCount = len(reNumber.FindAllString(text, -1))
	f.DateCount = len(reDate.FindAllString(text, -1))

	indicatorHits := 0
	for _, ind := range tableIndicators {
		if strings.Contains(lower, ind) {
			indicatorHits++
		}
	}
	words := f.TextWords
	if words < 1 {
		words = 1
	}
	f.TableDensity = float64(indicatorHits) / float64(words)

	f.IsReceiptShape = f.AspectRatio < 0.8

	head := lower
	if len(head) > 500 {
		head = head[:500]
	}
	tail := lower
	if len(tail) > 500 {
		tail = tail[len(tail)-500:]
	}
	for _, kw := range []string{"invoice", "delivery", "receipt"} {
		if strings.Contains(head, kw) {
			f.HasHeaderKeyword = true
			break
		}
	}
	for _, kw := range []string{"total", "amount", "payment"} {
		if strings.Contains(tail, kw) {
			f.HasFooterKeyword = true
			break
		}
	}

	return f
}

// Map flattens the feature set for the model capability interface.
func (f Features) Map() map[string]float64 {
	m := map[string]float64{
		"text_length":          float64(f.TextLength),
		"text_lines":           float64(f.TextLines),
		"text_words":           float64(f.TextWords),
		"invoice_number_count": float64(f.InvoiceNumberCount),
		"invoice_date_count":   float64(f.InvoiceDateCount),
		"total_amount_count":   float64(f.TotalAmountCount),
		"supplier_count":       float64(f.SupplierCount),
		"currency_count":       float64(f.CurrencyCount),
		"number_count":         float64(f.NumberCount),
		"date_count":           float64(f.DateCount),
		"table_density":        f.TableDensity,
		"aspect_ratio":         f.AspectRatio,
		"is_receipt_shape":     boolFeature(f.IsReceiptShape),
		"has_header_keyword":   boolFeature(f.HasHeaderKeyword),
		"has_footer_keyword":   boolFeature(f.HasFooterKeyword),
	}
	for docType, hits := range f.KeywordHits {
		m[string(docType)+"_keywords"] = float64(hits)
	}
	return m
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
