// Package suggest finds the closest known name for an unknown one.
package suggest

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// MaxEditDistance bounds the Levenshtein fallback.
const MaxEditDistance = 2

// Closest returns the candidate that best matches target, or "" when nothing
// is close. Candidates containing target as a case-insensitive subsequence
// rank first, by fuzzy distance; otherwise the nearest candidate within
// MaxEditDistance edits wins. Ties go to the lexically smaller name.
func Closest(target string, candidates []string) string {
	if target == "" || len(candidates) == 0 {
		return ""
	}

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	ranks := fuzzy.RankFindFold(target, sorted)
	if len(ranks) > 0 {
		sort.Stable(ranks)
		return ranks[0].Target
	}

	best, bestDistance := "", MaxEditDistance+1
	for _, c := range sorted {
		if d := fuzzy.LevenshteinDistance(target, c); d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best
}
