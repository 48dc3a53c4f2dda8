package entity

import (
	"time"

	"github.com/owlin/docintake/constants"
)

// LineItem is one invoice line as reported by the parsing service.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity,omitempty"`
	UnitPrice   float64 `json:"unit_price,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
}

// CanonicalInvoice is the final deduplicated, structured invoice record.
// Built once per sufficiently confident stitch group; immutable afterwards.
type CanonicalInvoice struct {
	ID               string             `json:"id"`
	SupplierName     string             `json:"supplier_name"`
	InvoiceNumber    string             `json:"invoice_number"`
	InvoiceDate      string             `json:"invoice_date"`
	Currency         string             `json:"currency"`
	Subtotal         float64            `json:"subtotal"`
	Tax              float64            `json:"tax"`
	Total            float64            `json:"total"`
	LineItems        []LineItem         `json:"line_items,omitempty"`
	FieldConfidence  map[string]float64 `json:"field_confidence"`
	Warnings         []string           `json:"warnings,omitempty"`
	ExtractionMethod string             `json:"extraction_method"`
	SourceSegments   []string           `json:"source_segments"`
	SourcePages      []int              `json:"source_pages"`
	Confidence       float64            `json:"confidence"`
	CreatedAt        time.Time          `json:"created_at"`
}

// CanonicalDocument is the final structured record for non-invoice types.
type CanonicalDocument struct {
	ID             string            `json:"id"`
	DocType        constants.DocType `json:"doc_type"`
	SupplierName   string            `json:"supplier_name"`
	DocumentNumber string            `json:"document_number"`
	DocumentDate   string            `json:"document_date"`
	Content        DocumentContent   `json:"content"`
	Confidence     float64           `json:"confidence"`
	SourceSegments []string          `json:"source_segments"`
	SourcePages    []int             `json:"source_pages"`
	CreatedAt      time.Time         `json:"created_at"`
}

// DocumentContent carries the concatenated text plus type-specific features.
type DocumentContent struct {
	Text          string         `json:"text"`
	SegmentsCount int            `json:"segments_count"`
	Features      map[string]any `json:"features,omitempty"`
}
