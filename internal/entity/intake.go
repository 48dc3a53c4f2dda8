package entity

import (
	"image"
	"time"
)

// PageInput is one page of an uploaded file as produced by the upstream
// OCR/extraction service: a rendered image plus its recognized text. Either
// part may be missing; fingerprinting degrades to sentinels for the gap.
type PageInput struct {
	Image image.Image
	Text  string
}

// BatchFile is one uploaded file within a batch.
type BatchFile struct {
	ID         string
	Path       string
	Pages      []PageInput
	UploadedAt time.Time
}

// IntakeMetadata aggregates batch counters for the result.
type IntakeMetadata struct {
	FilesProcessed           int `json:"files_processed"`
	PagesProcessed           int `json:"pages_processed"`
	DuplicatesFound          int `json:"duplicates_found"`
	StitchGroupsCreated      int `json:"stitch_groups_created"`
	CanonicalEntitiesCreated int `json:"canonical_entities_created"`
}

// IntakeResult is the complete outcome of one batch run. It is always
// well-formed: "no documents found" and "processing failed" are
// distinguished by Success and Errors, never by a nil result.
type IntakeResult struct {
	Success            bool                `json:"success"`
	CanonicalInvoices  []CanonicalInvoice  `json:"canonical_invoices"`
	CanonicalDocuments []CanonicalDocument `json:"canonical_documents"`
	DuplicateGroups    []DuplicateGroup    `json:"duplicate_groups"`
	StitchGroups       []StitchGroup       `json:"stitch_groups"`
	ProcessingTime     time.Duration       `json:"processing_time"`
	Warnings           []string            `json:"warnings"`
	Errors             []string            `json:"errors"`
	Metadata           IntakeMetadata      `json:"metadata"`
}
