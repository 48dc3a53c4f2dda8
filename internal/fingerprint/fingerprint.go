package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"image"
	"log/slog"
	"math/bits"
	"strings"

	"github.com/owlin/docintake/internal/common"
	"github.com/owlin/docintake/internal/entity"
)

// HashBits is the width of every 64-bit signature.
const HashBits = 64

// Fingerprinter computes identity signatures per page: a DCT perceptual hash
// over the page image, simhashes over the header and footer text, and a
// content hash over the full text. Any internal failure yields a sentinel
// zero hash; sentinels compare as maximally dissimilar, so downstream
// comparisons never fail on missing data.
type Fingerprinter struct {
	cfg    common.FingerprintConfig
	logger *slog.Logger
}

func New(cfg common.FingerprintConfig, logger *slog.Logger) *Fingerprinter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HeaderRatio <= 0 {
		cfg.HeaderRatio = 0.1
	}
	if cfg.FooterRatio <= 0 {
		cfg.FooterRatio = 0.1
	}
	return &Fingerprinter{cfg: cfg, logger: logger}
}

// ComputeFingerprint builds the full fingerprint for one page. It never
// returns an error: missing image or text degrades the respective signals
// to sentinels.
func (f *Fingerprinter) ComputeFingerprint(img image.Image, text string) entity.PageFingerprint {
	fp := entity.PageFingerprint{TextHash: entity.SentinelTextHash}

	if img != nil {
		fp.PHash = PerceptualHash(img)
		bounds := img.Bounds()
		fp.Width = bounds.Dx()
		fp.Height = bounds.Dy()
		if fp.Height > 0 {
			fp.AspectRatio = float64(fp.Width) / float64(fp.Height)
		}
	} else {
		f.logger.Warn("fingerprint.no_image")
	}

	header, footer := f.ExtractHeaderFooter(text)
	fp.HeaderSimhash = Simhash(header)
	fp.FooterSimhash = Simhash(footer)
	fp.TextHash = TextHash(text)

	lines := 0
	if text != "" {
		lines = strings.Count(text, "\n") + 1
	}
	fp.Features = map[string]float64{
		"width":        float64(fp.Width),
		"height":       float64(fp.Height),
		"aspect_ratio": fp.AspectRatio,
		"text_length":  float64(len(text)),
		"text_lines":   float64(lines),
		"has_text":     boolFeature(strings.TrimSpace(text) != ""),
	}
	return fp
}

// ExtractHeaderFooter returns the first and last ~10% of lines (by config).
func (f *Fingerprinter) ExtractHeaderFooter(text string) (string, string) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || text == "" {
		return "", ""
	}

	headerEnd := int(float64(len(lines)) * f.cfg.HeaderRatio)
	if headerEnd < 1 {
		headerEnd = 1
	}
	footerStart := len(lines) - int(float64(len(lines))*f.cfg.FooterRatio)
	if footerStart < 0 {
		footerStart = 0
	}

	header := strings.TrimSpace(strings.Join(lines[:headerEnd], "\n"))
	footer := strings.TrimSpace(strings.Join(lines[footerStart:], "\n"))
	return header, footer
}

// TextHash returns the hex SHA-256 of the page text, or the sentinel for
// empty text.
func TextHash(text string) string {
	if text == "" {
		return entity.SentinelTextHash
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// HammingDistance counts differing bits between two 64-bit hashes. If either
// side is the sentinel zero hash the distance is the full bit width, so
// sentinels never look similar to anything.
func HammingDistance(a, b uint64) int {
	if a == 0 || b == 0 {
		return HashBits
	}
	return bits.OnesCount64(a ^ b)
}

// Similarity maps a Hamming distance onto [0,1].
func Similarity(a, b uint64) float64 {
	return 1 - float64(HammingDistance(a, b))/float64(HashBits)
}

// ArePagesSimilar reports whether two fingerprints plausibly show the same
// page: close perceptual hashes, a near-identical header or footer, or an
// exact non-sentinel text match.
func (f *Fingerprinter) ArePagesSimilar(a, b entity.PageFingerprint) bool {
	if HammingDistance(a.PHash, b.PHash) <= f.cfg.SimilarPhashMax {
		return true
	}
	if Similarity(a.HeaderSimhash, b.HeaderSimhash) >= f.cfg.SimilarSimhashMin {
		return true
	}
	if Similarity(a.FooterSimhash, b.FooterSimhash) >= f.cfg.SimilarSimhashMin {
		return true
	}
	if a.TextHash != entity.SentinelTextHash && a.TextHash == b.TextHash {
		return true
	}
	return false
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
