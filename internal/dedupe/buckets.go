package dedupe

import (
	"fmt"

	"github.com/owlin/docintake/internal/entity"
)

// Candidate bucketing: instead of the O(n²) full scan, pairs are generated
// only for items sharing a signature bucket — the exact text hash, or an
// 8-bit band of the perceptual hash or either simhash. Banding is
// probabilistic (a pair differing in every band is missed), which is the
// standard recall tradeoff; small batches bypass it entirely.

const (
	bandCount = 8
	bandBits  = 8
	bandMask  = (1 << bandBits) - 1
)

func bucketPairs(items []Item) [][2]int {
	buckets := make(map[string][]int)
	add := func(key string, idx int) {
		buckets[key] = append(buckets[key], idx)
	}

	for i, item := range items {
		if item.TextHash != entity.SentinelTextHash {
			add("t:"+item.TextHash, i)
		}
		addBands("p", item.PHash, i, add)
		addBands("h", item.HeaderSimhash, i, add)
		addBands("f", item.FooterSimhash, i, add)
	}

	seen := make(map[[2]int]struct{})
	var pairs [][2]int
	for _, members := range buckets {
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				pair := [2]int{members[i], members[j]}
				if pair[0] > pair[1] {
					pair[0], pair[1] = pair[1], pair[0]
				}
				if _, dup := seen[pair]; dup {
					continue
				}
				seen[pair] = struct{}{}
				pairs = append(pairs, pair)
			}
		}
	}
	return pairs
}

func addBands(prefix string, hash uint64, idx int, add func(string, int)) {
	if hash == 0 {
		return
	}
	for band := 0; band < bandCount; band++ {
		value := (hash >> uint(band*bandBits)) & bandMask
		add(fmt.Sprintf("%s%d:%02x", prefix, band, value), idx)
	}
}
