package fingerprint

import (
	"image"
	"image/color"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owlin/docintake/internal/common"
	"github.com/owlin/docintake/internal/entity"
)

func testImage(w, h int, seed int64) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	rng := rand.New(rand.NewSource(seed))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(rng.Intn(256))})
		}
	}
	return img
}

func TestHammingDistanceSymmetricAndBounded(t *testing.T) {
	cases := []struct{ a, b uint64 }{
		{0xDEADBEEF, 0xDEADBEEF},
		{0xDEADBEEF, 0xCAFED00D},
		{1, 1 << 63},
		{0xFFFFFFFFFFFFFFFF, 1},
	}
	for _, tc := range cases {
		d1 := HammingDistance(tc.a, tc.b)
		d2 := HammingDistance(tc.b, tc.a)
		assert.Equal(t, d1, d2)
		assert.GreaterOrEqual(t, d1, 0)
		assert.LessOrEqual(t, d1, HashBits)
	}
	assert.Equal(t, 0, HammingDistance(0xDEADBEEF, 0xDEADBEEF))
}

func TestHammingDistanceSentinelIsMaximallyDissimilar(t *testing.T) {
	assert.Equal(t, HashBits, HammingDistance(0, 0xDEADBEEF))
	assert.Equal(t, HashBits, HammingDistance(0xDEADBEEF, 0))
	assert.Equal(t, HashBits, HammingDistance(0, 0))
	assert.Equal(t, 0.0, Similarity(0, 0))
}

func TestTextHash(t *testing.T) {
	assert.Equal(t, entity.SentinelTextHash, TextHash(""))

	h1 := TextHash("INVOICE INV-001")
	h2 := TextHash("INVOICE INV-001")
	h3 := TextHash("INVOICE INV-002")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestSimhashProperties(t *testing.T) {
	assert.Equal(t, uint64(0), Simhash(""))
	assert.Equal(t, uint64(0), Simhash("ab"))

	a := Simhash("ACME SUPPLIES LTD invoice header")
	b := Simhash("ACME SUPPLIES LTD invoice header")
	require.NotZero(t, a)
	assert.Equal(t, a, b)

	// Similar text should be far closer than unrelated text.
	similar := Simhash("ACME SUPPLIES LTD invoice header page 2")
	unrelated := Simhash("completely different content about utilities and meters")
	assert.Less(t, HammingDistance(a, similar), HammingDistance(a, unrelated))
}

func TestPerceptualHashDeterministic(t *testing.T) {
	img := testImage(200, 280, 42)
	h1 := PerceptualHash(img)
	h2 := PerceptualHash(img)
	require.NotZero(t, h1)
	assert.Equal(t, h1, h2)

	other := PerceptualHash(testImage(200, 280, 7))
	assert.NotEqual(t, h1, other)
}

func TestComputeFingerprintWithoutImage(t *testing.T) {
	f := New(common.DefaultConfig().Fingerprint, nil)

	fp := f.ComputeFingerprint(nil, "INVOICE\nACME LTD\nTotal: 100.00")
	assert.Zero(t, fp.PHash)
	assert.Zero(t, fp.Width)
	assert.NotEqual(t, entity.SentinelTextHash, fp.TextHash)
	assert.NotZero(t, fp.HeaderSimhash)
	assert.Equal(t, 1.0, fp.Features["has_text"])
}

func TestComputeFingerprintWithoutText(t *testing.T) {
	f := New(common.DefaultConfig().Fingerprint, nil)

	fp := f.ComputeFingerprint(testImage(100, 140, 1), "")
	assert.NotZero(t, fp.PHash)
	assert.Equal(t, entity.SentinelTextHash, fp.TextHash)
	assert.Zero(t, fp.HeaderSimhash)
	assert.Zero(t, fp.FooterSimhash)
}

func TestExtractHeaderFooter(t *testing.T) {
	f := New(common.DefaultConfig().Fingerprint, nil)

	lines := make([]string, 20)
	for i := range lines {
		lines[i] = "line"
	}
	lines[0] = "HEADER LINE"
	lines[19] = "FOOTER LINE"

	header, footer := f.ExtractHeaderFooter(strings.Join(lines, "\n"))
	assert.Contains(t, header, "HEADER LINE")
	assert.Contains(t, footer, "FOOTER LINE")
	assert.NotContains(t, header, "FOOTER LINE")
}

func TestArePagesSimilar(t *testing.T) {
	f := New(common.DefaultConfig().Fingerprint, nil)

	text := "INVOICE\nACME LTD\nTotal: 100.00"
	a := f.ComputeFingerprint(testImage(100, 140, 1), text)
	b := f.ComputeFingerprint(nil, text)

	// Exact text match carries similarity even with no image on one side.
	assert.True(t, f.ArePagesSimilar(a, b))

	c := f.ComputeFingerprint(nil, "a completely unrelated utility bill with kwh readings")
	assert.False(t, f.ArePagesSimilar(b, c))
}

func TestSentinelPagesAreNotSimilar(t *testing.T) {
	f := New(common.DefaultConfig().Fingerprint, nil)

	empty1 := f.ComputeFingerprint(nil, "")
	empty2 := f.ComputeFingerprint(nil, "")
	assert.False(t, f.ArePagesSimilar(empty1, empty2))
}
