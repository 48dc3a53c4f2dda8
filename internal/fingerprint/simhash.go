package fingerprint

import (
	"hash/fnv"
	"strings"
)

// simhashWindow is the character n-gram width for header/footer simhashes.
const simhashWindow = 4

// Simhash computes a 64-bit locality-sensitive hash over lowercase character
// n-grams: each n-gram hash casts a signed vote per bit, and the result sets
// bit i where the vote is positive. Text shorter than one n-gram yields the
// sentinel zero hash.
func Simhash(text string) uint64 {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < simhashWindow {
		return 0
	}

	lower := strings.ToLower(trimmed)
	votes := [HashBits]int{}

	for i := 0; i+simhashWindow <= len(lower); i++ {
		h := fnv.New64a()
		_, _ = h.Write([]byte(lower[i : i+simhashWindow]))
		ngram := h.Sum64()
		for bit := 0; bit < HashBits; bit++ {
			if ngram&(1<<uint(bit)) != 0 {
				votes[bit]++
			} else {
				votes[bit]--
			}
		}
	}

	var hash uint64
	for bit := 0; bit < HashBits; bit++ {
		if votes[bit] > 0 {
			hash |= 1 << uint(bit)
		}
	}
	return hash
}
