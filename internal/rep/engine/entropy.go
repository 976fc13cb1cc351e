package engine

import "math"

// minEntropyLen is the shortest input worth scoring. Short names produce
// unstable entropy values and legitimate short domains would dominate the
// false positives.
const minEntropyLen = 8

// shannonEntropy computes the base-2 Shannon entropy of the byte
// distribution of s. Algorithmically generated hostnames score high;
// dictionary-word hostnames score low.
func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	var freq [256]int
	for i := 0; i < len(s); i++ {
		freq[s[i]]++
	}
	n := float64(len(s))
	var entropy float64
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// entropyExceeds scores the registrable label string and reports whether it
// crosses the threshold. Inputs shorter than minEntropyLen always pass.
func entropyExceeds(labels string, threshold float64) (float64, bool) {
	if len(labels) < minEntropyLen {
		return 0, false
	}
	score := shannonEntropy(labels)
	return score, score > threshold
}
