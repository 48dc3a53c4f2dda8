package parser

import "context"

// ParsedLineItem is one invoice line as returned by the parser service.
type ParsedLineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity,omitempty"`
	UnitPrice   float64 `json:"unit_price,omitempty"`
	Total       float64 `json:"total,omitempty"`
}

// ParsedInvoice is the normalized shape we want from the parser service.
type ParsedInvoice struct {
	SupplierName  string           `json:"supplier_name"`
	InvoiceNumber string           `json:"invoice_number"`
	InvoiceDate   string           `json:"invoice_date"` // YYYY-MM-DD
	TotalAmount   float64          `json:"total_amount"`
	VATAmount     float64          `json:"vat_amount,omitempty"`
	Currency      string           `json:"currency"` // ISO 4217
	LineItems     []ParsedLineItem `json:"line_items,omitempty"`
	Confidence    float64          `json:"confidence,omitempty"` // optional (0..1)
}

type ParseRequest struct {
	Text            string
	DocType         string
	SupplierHint    string
	DefaultCurrency string
}

// InvoiceParser is the interface the canonical builder depends on.
type InvoiceParser interface {
	Available() bool
	Parse(ctx context.Context, req ParseRequest) (ParsedInvoice, []byte /*rawJSON*/, error)
}
