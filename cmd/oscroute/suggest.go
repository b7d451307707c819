package main

import (
	"sort"

	"github.com/hbollon/go-edlib"
)

const (
	suggestThreshold = 0.8
	maxSuggestions   = 3
)

// suggest returns up to maxSuggestions candidates that look like address,
// best first.
func suggest(address string, candidates []string) []string {
	type scored struct {
		value string
		score float32
	}

	var hits []scored
	for _, c := range candidates {
		score, err := edlib.StringsSimilarity(address, c, edlib.JaroWinkler)
		if err != nil || score < suggestThreshold {
			continue
		}
		hits = append(hits, scored{c, score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].value < hits[j].value
	})
	if len(hits) > maxSuggestions {
		hits = hits[:maxSuggestions]
	}

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.value
	}
	return out
}
