package segment

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/owlin/docintake/internal/entity"
	"github.com/owlin/docintake/internal/stitch"
)

var totalsKeywords = []string{"total", "amount due", "grand total", "final total"}

// Segmenter groups one file's pages into contiguous same-document runs using
// classifier output and boundary heuristics.
type Segmenter struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{logger: logger}
}

// SegmentFile splits one file's classified pages into segments. A new
// segment starts when the classified doc type changes or the supplier guess
// changes. Pages are processed in page-index order.
func (s *Segmenter) SegmentFile(pages []entity.Page) []entity.Segment {
	if len(pages) == 0 {
		return nil
	}

	ordered := make([]entity.Page, len(pages))
	copy(ordered, pages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PageIndex < ordered[j].PageIndex
	})

	var segments []entity.Segment
	var current *entity.Segment
	currentSupplier := ""

	for _, page := range ordered {
		pageSupplier := stitch.ExtractSupplierGuess(page.Text)
		if current == nil || s.startsNewSegment(page, pageSupplier, current, currentSupplier) {
			if current != nil {
				segments = append(segments, *current)
			}
			seg := entity.Segment{
				ID:            fmt.Sprintf("%s_seg_%d", page.FileID, len(segments)),
				FileID:        page.FileID,
				DocType:       page.DocType,
				SupplierGuess: pageSupplier,
				PageNumbers:   []int{page.PageIndex},
				Text:          page.Text,
				PHash:         page.Fingerprint.PHash,
				HeaderSimhash: page.Fingerprint.HeaderSimhash,
				FooterSimhash: page.Fingerprint.FooterSimhash,
				UploadedAt:    page.UploadedAt,
			}
			current = &seg
			currentSupplier = pageSupplier
			continue
		}

		current.PageNumbers = append(current.PageNumbers, page.PageIndex)
		current.Text += fmt.Sprintf("\n--- PAGE %d ---\n%s", page.PageIndex, page.Text)
	}
	segments = append(segments, *current)

	s.logger.Debug("segment.file_done", "file_id", ordered[0].FileID, "pages", len(pages), "segments", len(segments))
	return segments
}

func (s *Segmenter) startsNewSegment(page entity.Page, pageSupplier string, current *entity.Segment, currentSupplier string) bool {
	if page.DocType != current.DocType {
		return true
	}
	if pageSupplier != "" && currentSupplier != "" && pageSupplier != currentSupplier {
		return true
	}

	// A totals block usually closes a document, but it is deliberately not a
	// forced boundary: carried-forward subtotals appear mid-run on multi-page
	// invoices, and the type/supplier rules already break at real starts.
	if containsTotalsKeyword(page.Text) {
		return false
	}

	return false
}

func containsTotalsKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range totalsKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
