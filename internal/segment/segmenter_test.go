package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owlin/docintake/constants"
	"github.com/owlin/docintake/internal/entity"
)

func page(fileID string, index int, docType constants.DocType, text string) entity.Page {
	return entity.Page{
		FileID:     fileID,
		PageIndex:  index,
		DocType:    docType,
		Text:       text,
		UploadedAt: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestSegmentFileSingleRun(t *testing.T) {
	s := New(nil)

	pages := []entity.Page{
		page("f1", 0, constants.Invoice, "INVOICE page one"),
		page("f1", 1, constants.Invoice, "continued page two"),
	}

	segments := s.SegmentFile(pages)
	require.Len(t, segments, 1)

	seg := segments[0]
	assert.Equal(t, "f1_seg_0", seg.ID)
	assert.Equal(t, constants.Invoice, seg.DocType)
	assert.Equal(t, []int{0, 1}, seg.PageNumbers)
	assert.Contains(t, seg.Text, "--- PAGE 1 ---")
	assert.Contains(t, seg.Text, "continued page two")
}

func TestSegmentFileBreaksOnDocTypeChange(t *testing.T) {
	s := New(nil)

	pages := []entity.Page{
		page("f1", 0, constants.Invoice, "INVOICE"),
		page("f1", 1, constants.Invoice, "invoice continued"),
		page("f1", 2, constants.Delivery, "DELIVERY NOTE"),
	}

	segments := s.SegmentFile(pages)
	require.Len(t, segments, 2)
	assert.Equal(t, constants.Invoice, segments[0].DocType)
	assert.Equal(t, []int{0, 1}, segments[0].PageNumbers)
	assert.Equal(t, constants.Delivery, segments[1].DocType)
	assert.Equal(t, "f1_seg_1", segments[1].ID)
}

func TestSegmentFileBreaksOnSupplierChange(t *testing.T) {
	s := New(nil)

	pages := []entity.Page{
		page("f1", 0, constants.Invoice, "ACME SUPPLIES LTD\ninvoice content"),
		page("f1", 1, constants.Invoice, "POWERCO LIMITED\nanother invoice"),
	}

	segments := s.SegmentFile(pages)
	require.Len(t, segments, 2)
	assert.Equal(t, "ACME SUPPLIES LTD", segments[0].SupplierGuess)
	assert.Equal(t, "POWERCO LIMITED", segments[1].SupplierGuess)
}

func TestSegmentFileTotalsKeywordIsNotABoundary(t *testing.T) {
	s := New(nil)

	pages := []entity.Page{
		page("f1", 0, constants.Invoice, "ACME SUPPLIES LTD\nline items"),
		page("f1", 1, constants.Invoice, "Grand Total: 100.00\nAmount due"),
		page("f1", 2, constants.Invoice, "terms and conditions"),
	}

	segments := s.SegmentFile(pages)
	require.Len(t, segments, 1)
	assert.Equal(t, []int{0, 1, 2}, segments[0].PageNumbers)
}

func TestSegmentFileSortsPagesByIndex(t *testing.T) {
	s := New(nil)

	pages := []entity.Page{
		page("f1", 2, constants.Invoice, "third"),
		page("f1", 0, constants.Invoice, "first"),
		page("f1", 1, constants.Invoice, "second"),
	}

	segments := s.SegmentFile(pages)
	require.Len(t, segments, 1)
	assert.Equal(t, []int{0, 1, 2}, segments[0].PageNumbers)
	assert.Contains(t, segments[0].Text, "first")
}

func TestSegmentFileInheritsFingerprintFromFirstPage(t *testing.T) {
	s := New(nil)

	first := page("f1", 0, constants.Invoice, "INVOICE")
	first.Fingerprint = entity.PageFingerprint{PHash: 42, HeaderSimhash: 7, FooterSimhash: 9}
	second := page("f1", 1, constants.Invoice, "continued")
	second.Fingerprint = entity.PageFingerprint{PHash: 99}

	segments := s.SegmentFile([]entity.Page{first, second})
	require.Len(t, segments, 1)
	assert.Equal(t, uint64(42), segments[0].PHash)
	assert.Equal(t, uint64(7), segments[0].HeaderSimhash)
}

func TestSegmentFileEmpty(t *testing.T) {
	s := New(nil)
	assert.Nil(t, s.SegmentFile(nil))
}
