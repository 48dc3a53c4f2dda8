package stitch

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/owlin/docintake/constants"
	"github.com/owlin/docintake/internal/cluster"
	"github.com/owlin/docintake/internal/common"
	"github.com/owlin/docintake/internal/entity"
	"github.com/owlin/docintake/internal/fingerprint"
)

// Weights of the pairwise stitch signals.
const (
	supplierEqualWeight    = 0.3
	supplierContainsWeight = 0.2
	invoiceNumberWeight    = 0.4
	dateWeight             = 0.2
	headerWeight           = 0.2
	footerWeight           = 0.2
	temporalWeight         = 0.1
	docTypeWeight          = 0.1

	temporalWindow = time.Hour
)

// Stitcher links segments across files into logical documents via weighted
// multi-signal scoring and the same greedy clustering the deduper uses.
type Stitcher struct {
	cfg           common.StitchConfig
	fullScanBelow int
	logger        *slog.Logger
}

func New(cfg common.StitchConfig, fullScanBelow int, logger *slog.Logger) *Stitcher {
	if logger == nil {
		logger = slog.Default()
	}
	if fullScanBelow <= 0 {
		fullScanBelow = 64
	}
	return &Stitcher{cfg: cfg, fullScanBelow: fullScanBelow, logger: logger}
}

// Stitch clusters the segments into stitch groups. Every segment lands in
// exactly one group; any internal failure degrades to one group per segment
// instead of propagating.
func (s *Stitcher) Stitch(segments []entity.Segment) (groups []entity.StitchGroup) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("stitch.degraded_to_singletons", "panic", r)
			groups = singletonStitchGroups(segments, "stitching failed")
		}
	}()

	prepared := make([]entity.Segment, len(segments))
	copy(prepared, segments)
	for i := range prepared {
		if len(prepared[i].InvoiceNumbers) == 0 {
			prepared[i].InvoiceNumbers = ExtractInvoiceNumbers(prepared[i].Text)
		}
		if len(prepared[i].Dates) == 0 {
			prepared[i].Dates = ExtractDates(prepared[i].Text)
		}
		if prepared[i].SupplierGuess == "" {
			prepared[i].SupplierGuess = ExtractSupplierGuess(prepared[i].Text)
		}
	}

	candidates := s.findCandidates(prepared)
	clustered := cluster.GreedyGroup(len(prepared), candidates, s.cfg.MaxGroupSize)

	groups = make([]entity.StitchGroup, 0, len(clustered))
	for _, g := range clustered {
		members := make([]entity.Segment, 0, len(g.Members))
		for _, idx := range g.Members {
			members = append(members, prepared[idx])
		}
		sortSegmentsByPage(members)

		group := entity.StitchGroup{
			GroupID:        fmt.Sprintf("stitch_group_%d", len(groups)),
			Segments:       members,
			Confidence:     g.Confidence,
			DocType:        groupDocType(members),
			SupplierGuess:  groupSupplier(members),
			InvoiceNumbers: unionStrings(members, func(seg entity.Segment) []string { return seg.InvoiceNumbers }),
			Dates:          unionStrings(members, func(seg entity.Segment) []string { return seg.Dates }),
			Reasons:        g.Reasons,
		}
		if !g.Merged {
			group.Reasons = []string{"single segment"}
		}
		groups = append(groups, group)
	}

	s.logger.Info("stitch.done", "segments", len(segments), "groups", len(groups))
	return groups
}

// Score computes the weighted pairwise stitch score in [0,1] plus the
// recorded reasons.
func (s *Stitcher) Score(a, b entity.Segment) (float64, []string) {
	score := 0.0
	var reasons []string

	supplierA := strings.ToLower(a.SupplierGuess)
	supplierB := strings.ToLower(b.SupplierGuess)
	if supplierA != "" && supplierB != "" {
		switch {
		case supplierA == supplierB:
			score += supplierEqualWeight
			reasons = append(reasons, "same supplier")
		case strings.Contains(supplierA, supplierB) || strings.Contains(supplierB, supplierA):
			score += supplierContainsWeight
			reasons = append(reasons, "similar supplier")
		}
	}

	if shared := intersect(a.InvoiceNumbers, b.InvoiceNumbers); len(shared) > 0 {
		score += invoiceNumberWeight
		reasons = append(reasons, fmt.Sprintf("common invoice numbers: %s", strings.Join(shared, ", ")))
	}

	if shared := intersect(a.Dates, b.Dates); len(shared) > 0 {
		score += dateWeight
		reasons = append(reasons, fmt.Sprintf("common dates: %s", strings.Join(shared, ", ")))
	}

	if sim := fingerprint.Similarity(a.HeaderSimhash, b.HeaderSimhash); sim >= s.cfg.HeaderSimhashMin {
		score += headerWeight
		reasons = append(reasons, fmt.Sprintf("similar header (similarity: %.2f)", sim))
	}
	if sim := fingerprint.Similarity(a.FooterSimhash, b.FooterSimhash); sim >= s.cfg.FooterSimhashMin {
		score += footerWeight
		reasons = append(reasons, fmt.Sprintf("similar footer (similarity: %.2f)", sim))
	}

	if !a.UploadedAt.IsZero() && !b.UploadedAt.IsZero() {
		diff := a.UploadedAt.Sub(b.UploadedAt)
		if diff < 0 {
			diff = -diff
		}
		if diff < temporalWindow {
			score += temporalWeight
			reasons = append(reasons, "temporal proximity")
		}
	}

	if a.DocType == b.DocType && a.DocType != constants.Other {
		score += docTypeWeight
		reasons = append(reasons, "same document type")
	}

	if score > 1 {
		score = 1
	}
	return score, reasons
}

// findCandidates scores pairs at or above the minimum stitch score. Small
// batches compare everything pairwise; larger ones only compare segments
// sharing a key bucket (invoice number, date, supplier, simhash band).
func (s *Stitcher) findCandidates(segments []entity.Segment) []cluster.Candidate {
	var candidates []cluster.Candidate
	score := func(i, j int) {
		sc, reasons := s.Score(segments[i], segments[j])
		if sc >= s.cfg.ScoreMin {
			candidates = append(candidates, cluster.Candidate{A: i, B: j, Score: sc, Reasons: reasons})
		}
	}

	if len(segments) < s.fullScanBelow {
		for i := range segments {
			for j := i + 1; j < len(segments); j++ {
				score(i, j)
			}
		}
		return candidates
	}

	for _, pair := range bucketPairs(segments) {
		score(pair[0], pair[1])
	}
	return candidates
}

func sortSegmentsByPage(segments []entity.Segment) {
	type keyed struct {
		page  int
		known bool
	}
	keys := make(map[string]keyed, len(segments))
	for _, seg := range segments {
		n, ok := ExtractPageNumber(seg.Text)
		keys[seg.ID] = keyed{page: n, known: ok}
	}
	sort.SliceStable(segments, func(i, j int) bool {
		a, b := keys[segments[i].ID], keys[segments[j].ID]
		if a.known != b.known {
			return a.known // undetectable page numbers sort last
		}
		return a.page < b.page
	})
}

func groupDocType(segments []entity.Segment) constants.DocType {
	for _, seg := range segments {
		if seg.DocType != constants.Other && seg.DocType != "" {
			return seg.DocType
		}
	}
	return constants.Other
}

func groupSupplier(segments []entity.Segment) string {
	for _, seg := range segments {
		if seg.SupplierGuess != "" {
			return seg.SupplierGuess
		}
	}
	return ""
}

func unionStrings(segments []entity.Segment, get func(entity.Segment) []string) []string {
	var union []string
	seen := make(map[string]struct{})
	for _, seg := range segments {
		for _, v := range get(seg) {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			union = append(union, v)
		}
	}
	return union
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	var shared []string
	for _, v := range b {
		if _, ok := set[v]; ok {
			shared = append(shared, v)
		}
	}
	return shared
}

func singletonStitchGroups(segments []entity.Segment, reason string) []entity.StitchGroup {
	groups := make([]entity.StitchGroup, len(segments))
	for i, seg := range segments {
		groups[i] = entity.StitchGroup{
			GroupID:        fmt.Sprintf("stitch_group_%d", i),
			Segments:       []entity.Segment{seg},
			Confidence:     1.0,
			DocType:        seg.DocType,
			SupplierGuess:  seg.SupplierGuess,
			InvoiceNumbers: seg.InvoiceNumbers,
			Dates:          seg.Dates,
			Reasons:        []string{reason},
		}
	}
	return groups
}
