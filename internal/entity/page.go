package entity

import (
	"time"

	"github.com/owlin/docintake/constants"
)

// SentinelTextHash is the text-hash value assigned when hashing fails or the
// page carries no text. Sentinel hashes never count as an exact match.
const SentinelTextHash = ""

// PageFingerprint holds the identity signatures of one scanned page. All hash
// fields are always populated; zero values act as sentinels that compare as
// maximally dissimilar instead of failing downstream comparisons.
type PageFingerprint struct {
	PHash         uint64             `json:"phash"`
	HeaderSimhash uint64             `json:"header_simhash"`
	FooterSimhash uint64             `json:"footer_simhash"`
	TextHash      string             `json:"text_hash"`
	Width         int                `json:"width"`
	Height        int                `json:"height"`
	AspectRatio   float64            `json:"aspect_ratio"`
	Features      map[string]float64 `json:"features,omitempty"`
}

// Page is one scanned page flowing through the pipeline.
type Page struct {
	ID          string            `json:"id"`
	FileID      string            `json:"file_id"`
	FilePath    string            `json:"file_path,omitempty"`
	PageIndex   int               `json:"page_index"`
	Text        string            `json:"text"`
	Fingerprint PageFingerprint   `json:"fingerprint"`
	UploadedAt  time.Time         `json:"uploaded_at"`
	DocType     constants.DocType `json:"doc_type,omitempty"`

	// Classification output, filled by the classify stage.
	ClassificationConfidence float64            `json:"classification_confidence,omitempty"`
	ClassificationMethod     string             `json:"classification_method,omitempty"`
	ClassificationScores     map[string]float64 `json:"classification_scores,omitempty"`
}
