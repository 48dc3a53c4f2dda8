package cluster

import "sort"

// Candidate is a scored pair of item indexes proposed for grouping. Callers
// only submit candidates at or above their inclusion threshold.
type Candidate struct {
	A, B    int
	Score   float64
	Reasons []string
}

// Group is one resulting component.
type Group struct {
	// Members in ascending item-index order; singletons have one member.
	Members []int
	// Confidence is 1.0 for singletons, otherwise the minimum pairwise
	// score across all merges that formed the group.
	Confidence float64
	// Reasons accumulated from every merge, in merge order.
	Reasons []string
	// Merged reports whether the group was formed by at least one merge.
	Merged bool
}

// GreedyGroup clusters n items from scored candidates: candidates are taken
// in descending score order and each pair whose members are in different
// components merges them, the merged confidence being the minimum of both
// components' confidences and the pair score. maxSize > 0 caps component
// size; a merge that would exceed it is skipped. Every item ends up in
// exactly one group.
func GreedyGroup(n int, candidates []Candidate, maxSize int) []Group {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		if sorted[i].A != sorted[j].A {
			return sorted[i].A < sorted[j].A
		}
		return sorted[i].B < sorted[j].B
	})

	uf := NewUnionFind(n)
	confidence := make([]float64, n)
	reasons := make([][]string, n)
	merged := make([]bool, n)
	for i := range confidence {
		confidence[i] = 1.0
	}

	for _, cand := range sorted {
		ra, rb := uf.Find(cand.A), uf.Find(cand.B)
		if ra == rb {
			continue
		}
		if maxSize > 0 && uf.size[ra]+uf.size[rb] > maxSize {
			continue
		}

		conf := min3(confidence[ra], confidence[rb], cand.Score)
		joined := append(append([]string{}, reasons[ra]...), reasons[rb]...)
		joined = append(joined, cand.Reasons...)

		root := uf.Union(ra, rb)
		confidence[root] = conf
		reasons[root] = joined
		merged[root] = true
	}

	// Collect components ordered by their smallest member index.
	membersByRoot := make(map[int][]int, n)
	order := make([]int, 0, n)
	for i := 0; i < n; i++ {
		root := uf.Find(i)
		if _, seen := membersByRoot[root]; !seen {
			order = append(order, root)
		}
		membersByRoot[root] = append(membersByRoot[root], i)
	}

	groups := make([]Group, 0, len(order))
	for _, root := range order {
		groups = append(groups, Group{
			Members:    membersByRoot[root],
			Confidence: confidence[root],
			Reasons:    reasons[root],
			Merged:     merged[root],
		})
	}
	return groups
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
