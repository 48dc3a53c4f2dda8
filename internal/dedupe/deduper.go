package dedupe

import (
	"fmt"
	"log/slog"

	"github.com/owlin/docintake/internal/cluster"
	"github.com/owlin/docintake/internal/common"
	"github.com/owlin/docintake/internal/entity"
	"github.com/owlin/docintake/internal/fingerprint"
)

// Weights of the pairwise similarity signals.
const (
	phashWeight     = 0.6
	textMatchWeight = 0.4
	simhashWeight   = 0.2
	simhashBonusMin = 0.8
)

// Item is the fingerprint view of a page or file submitted for
// deduplication.
type Item struct {
	ID            string
	PHash         uint64
	HeaderSimhash uint64
	FooterSimhash uint64
	TextHash      string
}

// Deduper detects duplicate pages and files from fingerprints via greedy
// clustering over bucketed candidate pairs.
type Deduper struct {
	cfg           common.DedupeConfig
	fullScanBelow int
	logger        *slog.Logger
}

func New(cfg common.DedupeConfig, fullScanBelow int, logger *slog.Logger) *Deduper {
	if logger == nil {
		logger = slog.Default()
	}
	if fullScanBelow <= 0 {
		fullScanBelow = 64
	}
	return &Deduper{cfg: cfg, fullScanBelow: fullScanBelow, logger: logger}
}

// Dedupe groups the items into duplicate groups. Every item lands in exactly
// one group; items without duplicates become singleton groups at confidence
// 1.0. Any internal failure degrades all items to singletons instead of
// propagating.
func (d *Deduper) Dedupe(items []Item, typ entity.DuplicateType) (groups []entity.DuplicateGroup) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dedupe.degraded_to_singletons", "type", typ, "panic", r)
			groups = singletonGroups(items, typ, "deduplication failed")
		}
	}()

	candidates := d.findCandidates(items)
	clustered := cluster.GreedyGroup(len(items), candidates, 0)

	groups = make([]entity.DuplicateGroup, 0, len(clustered))
	for _, g := range clustered {
		group := entity.DuplicateGroup{
			GroupID:    fmt.Sprintf("dup_%s_%d", typ, len(groups)),
			PrimaryID:  items[g.Members[0]].ID,
			Confidence: g.Confidence,
			Type:       typ,
			Reasons:    g.Reasons,
		}
		if g.Merged {
			group.Duplicates = make([]string, 0, len(g.Members)-1)
			for _, idx := range g.Members[1:] {
				group.Duplicates = append(group.Duplicates, items[idx].ID)
			}
		} else {
			group.Duplicates = []string{}
			group.Reasons = []string{"no duplicates found"}
		}
		groups = append(groups, group)
	}

	d.logger.Info("dedupe.done",
		"type", typ,
		"items", len(items),
		"groups", len(groups),
		"duplicates", len(items)-len(groups),
	)
	return groups
}

// Score computes the weighted pairwise similarity in [0,1] plus the reasons
// behind it.
func (d *Deduper) Score(a, b Item) (float64, []string) {
	score := 0.0
	var reasons []string

	if dist := fingerprint.HammingDistance(a.PHash, b.PHash); dist <= d.cfg.PhashHammingMax {
		sim := 1 - float64(dist)/float64(fingerprint.HashBits)
		score += sim * phashWeight
		reasons = append(reasons, fmt.Sprintf("perceptual hash similarity: %.2f", sim))
	}

	if a.TextHash != entity.SentinelTextHash && a.TextHash == b.TextHash {
		score += textMatchWeight
		reasons = append(reasons, "exact text match")
	}

	if sim := fingerprint.Similarity(a.HeaderSimhash, b.HeaderSimhash); sim > simhashBonusMin {
		score += sim * simhashWeight
		reasons = append(reasons, fmt.Sprintf("header similarity: %.2f", sim))
	}
	if sim := fingerprint.Similarity(a.FooterSimhash, b.FooterSimhash); sim > simhashBonusMin {
		score += sim * simhashWeight
		reasons = append(reasons, fmt.Sprintf("footer similarity: %.2f", sim))
	}

	if score > 1 {
		score = 1
	}
	return score, reasons
}

// findCandidates scores pairs at or above the confidence threshold. Small
// batches compare everything pairwise; larger ones only compare within
// signature buckets to stay tractable.
func (d *Deduper) findCandidates(items []Item) []cluster.Candidate {
	var candidates []cluster.Candidate
	score := func(i, j int) {
		s, reasons := d.Score(items[i], items[j])
		if s >= d.cfg.ConfidenceThreshold {
			candidates = append(candidates, cluster.Candidate{A: i, B: j, Score: s, Reasons: reasons})
		}
	}

	if len(items) < d.fullScanBelow {
		for i := range items {
			for j := i + 1; j < len(items); j++ {
				score(i, j)
			}
		}
		return candidates
	}

	for _, pair := range bucketPairs(items) {
		score(pair[0], pair[1])
	}
	return candidates
}

func singletonGroups(items []Item, typ entity.DuplicateType, reason string) []entity.DuplicateGroup {
	groups := make([]entity.DuplicateGroup, len(items))
	for i, item := range items {
		groups[i] = entity.DuplicateGroup{
			GroupID:    fmt.Sprintf("dup_%s_%d", typ, i),
			PrimaryID:  item.ID,
			Duplicates: []string{},
			Confidence: 1.0,
			Type:       typ,
			Reasons:    []string{reason},
		}
	}
	return groups
}
