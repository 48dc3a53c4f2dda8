package entity

import (
	"time"

	"github.com/owlin/docintake/constants"
)

// Segment is a contiguous run of pages within one file believed to form one
// logical document. Fingerprint fields are inherited from the first page.
// A segment is immutable once absorbed into a StitchGroup.
type Segment struct {
	ID            string            `json:"id"`
	FileID        string            `json:"file_id"`
	DocType       constants.DocType `json:"doc_type"`
	SupplierGuess string            `json:"supplier_guess,omitempty"`
	PageNumbers   []int             `json:"page_numbers"`
	Text          string            `json:"text"`
	PHash         uint64            `json:"phash"`
	HeaderSimhash uint64            `json:"header_simhash"`
	FooterSimhash uint64            `json:"footer_simhash"`
	UploadedAt    time.Time         `json:"uploaded_at"`

	// Candidate keys extracted by the stitcher before scoring.
	InvoiceNumbers []string `json:"invoice_numbers,omitempty"`
	Dates          []string `json:"dates,omitempty"`
}
