package stitch

import (
	"fmt"
	"strings"

	"github.com/owlin/docintake/internal/entity"
)

// Candidate bucketing for large batches: segments are only compared when
// they share a plausible join key — an invoice number, a date, a normalized
// supplier guess, or an 8-bit simhash band.

const (
	bandCount = 8
	bandBits  = 8
	bandMask  = (1 << bandBits) - 1
)

func bucketPairs(segments []entity.Segment) [][2]int {
	buckets := make(map[string][]int)
	add := func(key string, idx int) {
		buckets[key] = append(buckets[key], idx)
	}

	for i, seg := range segments {
		for _, num := range seg.InvoiceNumbers {
			add("inv:"+num, i)
		}
		for _, date := range seg.Dates {
			add("date:"+date, i)
		}
		if seg.SupplierGuess != "" {
			add("sup:"+strings.ToLower(seg.SupplierGuess), i)
		}
		addBands("h", seg.HeaderSimhash, i, add)
		addBands("f", seg.FooterSimhash, i, add)
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
