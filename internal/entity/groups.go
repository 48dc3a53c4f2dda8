package entity

import "github.com/owlin/docintake/constants"

// DuplicateType distinguishes page-level from file-level duplicate groups.
type DuplicateType string

const (
	DuplicatePage DuplicateType = "page"
	DuplicateFile DuplicateType = "file"
)

// DuplicateGroup collapses a set of duplicate items onto one primary. Every
// input item belongs to exactly one group; items without duplicates get a
// singleton group at confidence 1.0.
type DuplicateGroup struct {
	GroupID    string        `json:"group_id"`
	PrimaryID  string        `json:"primary_id"`
	Duplicates []string      `json:"duplicates"`
	Confidence float64       `json:"confidence"`
	Type       DuplicateType `json:"type"`
	Reasons    []string      `json:"reasons"`
}

// Size returns the total number of items in the group including the primary.
func (g *DuplicateGroup) Size() int {
	return 1 + len(g.Duplicates)
}

// StitchGroup is a cluster of segments believed to be fragments of one
// logical document split across files. Confidence is the minimum pairwise
// score across all merges that formed the group, so it never increases as
// the group grows.
type StitchGroup struct {
	GroupID        string            `json:"group_id"`
	Segments       []Segment         `json:"segments"`
	Confidence     float64           `json:"confidence"`
	DocType        constants.DocType `json:"doc_type"`
	SupplierGuess  string            `json:"supplier_guess,omitempty"`
	InvoiceNumbers []string          `json:"invoice_numbers,omitempty"`
	Dates          []string          `json:"dates,omitempty"`
	Reasons        []string          `json:"reasons"`
}

// SegmentIDs returns the member segment ids in order.
func (g *StitchGroup) SegmentIDs() []string {
	ids := make([]string, len(g.Segments))
	for i, seg := range g.Segments {
		ids[i] = seg.ID
	}
	return ids
}
