package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owlin/docintake/internal/common"
	"github.com/owlin/docintake/internal/entity"
	"github.com/owlin/docintake/internal/fingerprint"
)

func newTestDeduper() *Deduper {
	return New(common.DefaultConfig().Dedupe, 0, nil)
}

func TestDedupeGroupsNearIdenticalPages(t *testing.T) {
	d := newTestDeduper()

	textHash := fingerprint.TextHash("INVOICE INV-001 Total: 100.00")
	header := fingerprint.Simhash("ACME SUPPLIES LTD invoice header")
	footer := fingerprint.Simhash("page footer with totals")

	items := []Item{
		{ID: "p1", PHash: 0xF0F0F0F0F0F0F0F0, HeaderSimhash: header, FooterSimhash: footer, TextHash: textHash},
		// Rescan of the same page: two phash bits flipped, identical text.
		{ID: "p2", PHash: 0xF0F0F0F0F0F0F0F3, HeaderSimhash: header, FooterSimhash: footer, TextHash: textHash},
		{ID: "p3", PHash: 0x123456789ABCDEF0, HeaderSimhash: fingerprint.Simhash("unrelated utility bill"), FooterSimhash: 0, TextHash: fingerprint.TextHash("something else")},
	}

	groups := d.Dedupe(items, entity.DuplicatePage)
	require.Len(t, groups, 2)

	assert.Equal(t, "p1", groups[0].PrimaryID)
	assert.Equal(t, []string{"p2"}, groups[0].Duplicates)
	assert.GreaterOrEqual(t, groups[0].Confidence, 0.85)
	assert.NotEmpty(t, groups[0].Reasons)

	assert.Equal(t, "p3", groups[1].PrimaryID)
	assert.Empty(t, groups[1].Duplicates)
	assert.Equal(t, 1.0, groups[1].Confidence)
	assert.Equal(t, []string{"no duplicates found"}, groups[1].Reasons)
}

func TestDedupeEqualTextDifferentImages(t *testing.T) {
	d := newTestDeduper()

	text := "INVOICE INV-001\nACME LTD\nTotal: 100.00"
	textHash := fingerprint.TextHash(text)
	header := fingerprint.Simhash("INVOICE INV-001")
	footer := fingerprint.Simhash("Total: 100.00")

	// Same content rescanned: the perceptual hashes differ by a few bits but
	// the extracted text is byte-identical.
	items := []Item{
		{ID: "a", PHash: 0xAAAAAAAAAAAAAAAA, HeaderSimhash: header, FooterSimhash: footer, TextHash: textHash},
		{ID: "b", PHash: 0xAAAAAAAAAAAAAAA5, HeaderSimhash: header, FooterSimhash: footer, TextHash: textHash},
	}

	groups := d.Dedupe(items, entity.DuplicatePage)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"b"}, groups[0].Duplicates)
}

func TestDedupeSentinelTextHashesNeverMatch(t *testing.T) {
	d := newTestDeduper()

	// Two pages with no text and wholly different images share sentinel
	// hashes everywhere; they must not be treated as duplicates.
	items := []Item{
		{ID: "a", PHash: 0, HeaderSimhash: 0, FooterSimhash: 0, TextHash: entity.SentinelTextHash},
		{ID: "b", PHash: 0, HeaderSimhash: 0, FooterSimhash: 0, TextHash: entity.SentinelTextHash},
	}

	groups := d.Dedupe(items, entity.DuplicatePage)
	require.Len(t, groups, 2)
	for _, g := range groups {
		assert.Empty(t, g.Duplicates)
	}
}

func TestScoreThresholdBoundaryIsInclusive(t *testing.T) {
	header := fingerprint.Simhash("shared header text here")
	footer := fingerprint.Simhash("shared footer text here")
	textHash := fingerprint.TextHash("same text")

	// No phash signal; exact text 0.4 + header 0.2 + footer 0.2 = 0.8.
	a := Item{ID: "a", HeaderSimhash: header, FooterSimhash: footer, TextHash: textHash}
	b := Item{ID: "b", HeaderSimhash: header, FooterSimhash: footer, TextHash: textHash}

	cfg := common.DefaultConfig().Dedupe
	cfg.ConfidenceThreshold = 0.8
	atThreshold := New(cfg, 0, nil)
	score, _ := atThreshold.Score(a, b)
	assert.InDelta(t, 0.8, score, 1e-9)

	groups := atThreshold.Dedupe([]Item{a, b}, entity.DuplicatePage)
	require.Len(t, groups, 1, "score exactly at the threshold is included")

	cfg.ConfidenceThreshold = 0.81
	aboveThreshold := New(cfg, 0, nil)
	groups = aboveThreshold.Dedupe([]Item{a, b}, entity.DuplicatePage)
	require.Len(t, groups, 2, "score strictly below the threshold is excluded")
}

func TestScorePhashGate(t *testing.T) {
	d := newTestDeduper()

	// Distance far beyond the Hamming gate: the phash term contributes
	// nothing even though the hashes are technically comparable.
	a := Item{ID: "a", PHash: 0xFFFFFFFFFFFFFFFF}
	b := Item{ID: "b", PHash: 0x00000000FFFFFFFF}
	score, reasons := d.Score(a, b)
	assert.Zero(t, score)
	assert.Empty(t, reasons)
}

func TestScoreClippedToOne(t *testing.T) {
	d := newTestDeduper()

	header := fingerprint.Simhash("shared header text")
	footer := fingerprint.Simhash("shared footer text")
	a := Item{ID: "a", PHash: 0xF0F0F0F0F0F0F0F0, HeaderSimhash: header, FooterSimhash: footer, TextHash: fingerprint.TextHash("x")}
	b := a
	b.ID = "b"

	score, _ := d.Score(a, b)
	assert.Equal(t, 1.0, score)
}

func TestDedupeIdempotent(t *testing.T) {
	d := newTestDeduper()

	textHash := fingerprint.TextHash("same")
	header := fingerprint.Simhash("same header line")
	items := []Item{
		{ID: "a", PHash: 0xF0F0F0F0F0F0F0F0, HeaderSimhash: header, FooterSimhash: header, TextHash: textHash},
		{ID: "b", PHash: 0xF0F0F0F0F0F0F0F0, HeaderSimhash: header, FooterSimhash: header, TextHash: textHash},
		{ID: "c", PHash: 0x123456789ABCDEF0, TextHash: fingerprint.TextHash("other")},
	}

	first := d.Dedupe(items, entity.DuplicatePage)
	second := d.Dedupe(items, entity.DuplicatePage)
	assert.Equal(t, first, second)
}

func TestDedupeFileLevel(t *testing.T) {
	d := newTestDeduper()

	textHash := fingerprint.TextHash("whole file content")
	header := fingerprint.Simhash("file header content")
	items := []Item{
		{ID: "f1", PHash: 0xF0F0F0F0F0F0F0F0, HeaderSimhash: header, FooterSimhash: header, TextHash: textHash},
		{ID: "f2", PHash: 0xF0F0F0F0F0F0F0F0, HeaderSimhash: header, FooterSimhash: header, TextHash: textHash},
	}

	groups := d.Dedupe(items, entity.DuplicateFile)
	require.Len(t, groups, 1)
	assert.Equal(t, entity.DuplicateFile, groups[0].Type)
	assert.Equal(t, "dup_file_0", groups[0].GroupID)
}

func TestBucketPairsFindLikelyDuplicates(t *testing.T) {
	textHash := fingerprint.TextHash("same content")
	items := []Item{
		{ID: "a", PHash: 0xF0F0F0F0F0F0F0F0, TextHash: textHash},
		{ID: "b", PHash: 0xF0F0F0F0F0F0F0F0, TextHash: textHash},
		{ID: "c", PHash: 0x123456789ABCDEF0, TextHash: fingerprint.TextHash("different")},
	}

	pairs := bucketPairs(items)
	require.NotEmpty(t, pairs)
	assert.Contains(t, pairs, [2]int{0, 1})
}
